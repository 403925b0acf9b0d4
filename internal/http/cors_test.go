package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		origins string
		wantNil bool
	}{
		{name: "disabled", enabled: false, origins: "https://example.com", wantNil: true},
		{name: "no origins", enabled: true, origins: "", wantNil: true},
		{name: "only invalid origins", enabled: true, origins: "example.com, ftp://x.io", wantNil: true},
		{name: "origin list", enabled: true, origins: "https://app.example.com,https://admin.example.com"},
		{name: "wildcard", enabled: true, origins: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := createCORSMiddleware(tt.enabled, tt.origins, discardLogger())
			if tt.wantNil {
				assert.Nil(t, middleware)
			} else {
				assert.NotNil(t, middleware)
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	origins := parseOrigins(" https://app.example.com/ , ,http://localhost:3000,not-an-origin,https://x.io/path", discardLogger())
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, origins)

	assert.Nil(t, parseOrigins("", discardLogger()))
	assert.Equal(t, []string{"*"}, parseOrigins("*", discardLogger()))
}

func corsRouter(origins string) *gin.Engine {
	router := gin.New()
	if middleware := createCORSMiddleware(origins != "", origins, discardLogger()); middleware != nil {
		router.Use(middleware)
	}
	router.POST("/v1/files/keys", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestCORSIntegration(t *testing.T) {
	t.Run("AllowedOrigin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/files/keys", nil)
		req.Header.Set("Origin", "https://app.example.com")
		corsRouter("https://app.example.com").ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/files/keys", nil)
		req.Header.Set("Origin", "https://app.example.com")
		corsRouter("").ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/v1/files/keys", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		corsRouter("https://app.example.com").ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}
