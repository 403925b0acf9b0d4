package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoUseCase "github.com/allisson/parquet-keytools/internal/crypto/usecase"
	"github.com/allisson/parquet-keytools/internal/httputil"
)

// CacheHandler revokes cached KMS clients and KEKs.
type CacheHandler struct {
	keyUseCase cryptoUseCase.KeyUseCase
	logger     *slog.Logger
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(keyUseCase cryptoUseCase.KeyUseCase, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{
		keyUseCase: keyUseCase,
		logger:     logger,
	}
}

// RevokeTokenHandler drops the cache entries of the caller's access token.
// DELETE /v1/cache/tokens/self - Returns 204 No Content.
func (h *CacheHandler) RevokeTokenHandler(c *gin.Context) {
	if err := h.keyUseCase.RevokeToken(c.Request.Context(), httputil.GetAccessToken(c)); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

// RevokeAllHandler drops the cache entries of every access token.
// DELETE /v1/cache - Returns 204 No Content.
func (h *CacheHandler) RevokeAllHandler(c *gin.Context) {
	if err := h.keyUseCase.RevokeAllTokens(c.Request.Context()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}
