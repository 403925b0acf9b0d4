package httputil

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const accessTokenKey = "access_token"

// AccessTokenMiddleware stores the request's KMS access token in the context. The
// token comes from "Authorization: Bearer <token>"; requests without one use
// defaultToken. Tokens are passed through to the KMS and never validated here.
func AccessTokenMiddleware(defaultToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := defaultToken
		if scheme, value, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok &&
			strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(value) != "" {
			token = strings.TrimSpace(value)
		}
		c.Set(accessTokenKey, token)
		c.Next()
	}
}

// GetAccessToken returns the token set by AccessTokenMiddleware, or "" when the
// middleware did not run.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}
