// Package http provides the HTTP server, its router and the shared middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"gocloud.dev/blob"

	cryptoHTTP "github.com/allisson/parquet-keytools/internal/crypto/http"
	"github.com/allisson/parquet-keytools/internal/httputil"
	"github.com/allisson/parquet-keytools/internal/metrics"
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	bucket *blob.Bucket
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// RouterConfig holds the router settings taken from the application configuration.
type RouterConfig struct {
	GinMode                 string
	DefaultAccessToken      string
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int
	CORSEnabled             bool
	CORSAllowOrigins        string
	MetricsNamespace        string
}

// NewServer creates a new HTTP server. db is only pinged by the readiness check
// and may be nil when key material is not stored in a database.
func NewServer(
	db *sql.DB,
	bucket *blob.Bucket,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		bucket: bucket,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter configures the Gin router with all routes and middleware.
// meterProvider may be nil, in which case no HTTP metrics are recorded.
func (s *Server) SetupRouter(
	cfg RouterConfig,
	keyHandler *cryptoHTTP.KeyHandler,
	rotationHandler *cryptoHTTP.RotationHandler,
	cacheHandler *cryptoHTTP.CacheHandler,
	meterProvider metric.MeterProvider,
) {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	v1.Use(httputil.AccessTokenMiddleware(cfg.DefaultAccessToken))
	if cfg.RateLimitEnabled {
		v1.Use(TokenRateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	{
		files := v1.Group("/files/keys")
		files.POST("", keyHandler.GenerateHandler)
		files.POST("/unwrap", keyHandler.UnwrapHandler)

		v1.POST("/rotations", rotationHandler.RotateHandler)

		v1.DELETE("/cache", cacheHandler.RevokeAllHandler)
		v1.DELETE("/cache/tokens/self", cacheHandler.RevokeTokenHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler of the configured router.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// Start starts the HTTP server. SetupRouter must have been called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the bucket, and the database when one is
// configured, can serve requests.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := true
	components := gin.H{}

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("database not ready", slog.Any("error", err))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if s.bucket == nil {
		components["bucket"] = "error"
		ready = false
	} else if ok, err := s.bucket.IsAccessible(ctx); err != nil || !ok {
		s.logger.Warn("bucket not ready", slog.Any("error", err))
		components["bucket"] = "error"
		ready = false
	} else {
		components["bucket"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
