package http

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/allisson/parquet-keytools/internal/httputil"
)

const (
	limiterIdleTimeout   = time.Hour
	limiterSweepInterval = 5 * time.Minute
)

// tokenLimiterStore holds one rate limiter per access token. Tokens are keyed by
// their SHA-256 digest so the store never holds them in clear.
type tokenLimiterStore struct {
	mu        sync.Mutex
	limiters  map[[sha256.Size]byte]*tokenLimiterEntry
	rps       float64
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type tokenLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newTokenLimiterStore(rps float64, burst int) *tokenLimiterStore {
	return &tokenLimiterStore{
		limiters: make(map[[sha256.Size]byte]*tokenLimiterEntry),
		rps:      rps,
		burst:    burst,
		now:      time.Now,
	}
}

// TokenRateLimitMiddleware enforces per-token rate limiting on the key endpoints.
//
// MUST be used after httputil.AccessTokenMiddleware. Requests without a token share
// the default token's limiter. Idle limiters are swept on access, so no background
// goroutine is started.
//
// Returns 429 Too Many Requests with a Retry-After header when the limit is exceeded.
func TokenRateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newTokenLimiterStore(rps, burst)

	return func(c *gin.Context) {
		limiter := store.getLimiter(httputil.GetAccessToken(c))

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(math.Ceil(reservation.Delay().Seconds()))
			reservation.Cancel()

			logger.Debug("rate limit exceeded", slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (s *tokenLimiterStore) getLimiter(token string) *rate.Limiter {
	key := sha256.Sum256([]byte(token))
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > limiterSweepInterval {
		s.sweep(now)
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &tokenLimiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.limiters[key] = entry
	}
	entry.lastAccess = now
	return entry.limiter
}

// sweep removes limiters idle for longer than limiterIdleTimeout. Callers hold mu.
func (s *tokenLimiterStore) sweep(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastAccess) > limiterIdleTimeout {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

func (s *tokenLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
