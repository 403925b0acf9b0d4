package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/allisson/parquet-keytools/internal/cache"
	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	cryptoService "github.com/allisson/parquet-keytools/internal/crypto/service"
	"github.com/allisson/parquet-keytools/internal/errors"
)

// KmsClientAndDetails is a resolved KMS client with the instance it is bound to.
type KmsClientAndDetails struct {
	Client         cryptoDomain.KmsClient
	KmsInstanceID  string
	KmsInstanceURL string
}

// KeyToolkit owns the token scoped caches of the key protocol and builds file key
// wrappers and unwrappers on top of them.
//
// Three caches are kept, all scoped by access token: KMS clients by KMS instance id,
// KEKs for writing by master key id, and unwrapped KEK bytes by encoded KEK id.
type KeyToolkit struct {
	cfg        Config
	kmsClients KmsClientProvider
	keyCipher  cryptoService.LocalKeyCipher
	logger     *slog.Logger
	now        func() time.Time

	kmsClientCache *cache.TwoLevelCache[cryptoDomain.KmsClient]
	kekWriteCache  *cache.TwoLevelCache[*cryptoDomain.KeyEncryptionKey]
	kekReadCache   *cache.TwoLevelCache[[]byte]

	rotationMu               sync.Mutex
	lastKekWriteCacheCleanup time.Time
}

// ToolkitOption configures a KeyToolkit.
type ToolkitOption func(*KeyToolkit)

// WithToolkitClock overrides the time source of the toolkit and its caches.
func WithToolkitClock(now func() time.Time) ToolkitOption {
	return func(t *KeyToolkit) {
		t.now = now
	}
}

// NewKeyToolkit validates cfg and creates a toolkit with empty caches.
func NewKeyToolkit(
	cfg Config,
	kmsClients KmsClientProvider,
	keyCipher cryptoService.LocalKeyCipher,
	logger *slog.Logger,
	opts ...ToolkitOption,
) (*KeyToolkit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &KeyToolkit{
		cfg:        cfg,
		kmsClients: kmsClients,
		keyCipher:  keyCipher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.kmsClientCache = cache.New[cryptoDomain.KmsClient](
		cache.WithClock(t.now),
		cache.WithEvictionHandler(t.closeKmsClient),
	)
	t.kekWriteCache = cache.New[*cryptoDomain.KeyEncryptionKey](cache.WithClock(t.now))
	t.kekReadCache = cache.New[[]byte](cache.WithClock(t.now))
	return t, nil
}

// Config returns the protocol settings.
func (t *KeyToolkit) Config() Config {
	return t.cfg
}

// GetKmsClient returns the cached client for (accessToken, kmsInstanceID), building
// and initializing one on a miss. Concurrent misses build a single client.
func (t *KeyToolkit) GetKmsClient(
	ctx context.Context,
	kmsInstanceID, kmsInstanceURL, accessToken string,
) (cryptoDomain.KmsClient, error) {
	scope := t.kmsClientCache.GetOrCreateScope(accessToken, t.cfg.CacheLifetime)
	// Concurrent callers share the supplier, so it must outlive the first caller.
	sharedCtx := context.WithoutCancel(ctx)
	return scope.ComputeIfAbsent(kmsInstanceID, t.cfg.CacheLifetime, func() (cryptoDomain.KmsClient, error) {
		return t.createAndInitKmsClient(sharedCtx, kmsInstanceID, kmsInstanceURL, accessToken)
	})
}

// closeKmsClient releases a client that left the cache.
func (t *KeyToolkit) closeKmsClient(client cryptoDomain.KmsClient) {
	closer, ok := client.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		t.logger.Warn("failed to close kms client", slog.Any("error", err))
	}
}

func (t *KeyToolkit) createAndInitKmsClient(
	ctx context.Context,
	kmsInstanceID, kmsInstanceURL, accessToken string,
) (cryptoDomain.KmsClient, error) {
	client, err := t.kmsClients.NewKmsClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create kms client: %w", err)
	}

	if err := client.Initialize(ctx, kmsInstanceID, kmsInstanceURL, accessToken); err != nil {
		if errors.Is(err, errors.ErrConfiguration) {
			return nil, fmt.Errorf("failed to initialize kms client %s: %w", kmsInstanceID, err)
		}
		return nil, fmt.Errorf("%w: failed to initialize kms client %s: %w", errors.ErrConfiguration, kmsInstanceID, err)
	}

	t.logger.Debug("kms client initialized",
		slog.String("kms_instance_id", kmsInstanceID),
		slog.String("access_token", formatTokenForLog(accessToken)),
	)
	return client, nil
}

// RemoveCacheEntriesForToken purges the KMS client and KEK caches of accessToken.
// The next operation with the token builds a fresh KMS client.
func (t *KeyToolkit) RemoveCacheEntriesForToken(accessToken string) {
	t.kmsClientCache.RemoveScope(accessToken)
	t.kekWriteCache.RemoveScope(accessToken)
	t.kekReadCache.RemoveScope(accessToken)
}

// RemoveCacheEntriesForAllTokens purges every cache.
func (t *KeyToolkit) RemoveCacheEntriesForAllTokens() {
	t.kmsClientCache.Clear()
	t.kekWriteCache.Clear()
	t.kekReadCache.Clear()
}

// Close purges every cache and closes the cached KMS clients.
func (t *KeyToolkit) Close() {
	t.RemoveCacheEntriesForAllTokens()
}

// CleanKEKWriteCacheForRotation clears the KEK write cache when the last clean is
// older than the rotation clean period, so rotations create KEKs under the newest
// master key versions without every call paying for new KEKs. Reports whether it
// cleared.
func (t *KeyToolkit) CleanKEKWriteCacheForRotation() bool {
	t.rotationMu.Lock()
	defer t.rotationMu.Unlock()

	now := t.now()
	if !t.lastKekWriteCacheCleanup.IsZero() &&
		now.Sub(t.lastKekWriteCacheCleanup) <= t.cfg.RotationCacheCleanPeriod {
		return false
	}

	t.kekWriteCache.Clear()
	t.lastKekWriteCacheCleanup = now
	return true
}

// evictExpiredScopes drops expired token scopes. Each cache sweeps at most once per
// half cache lifetime.
func (t *KeyToolkit) evictExpiredScopes() {
	t.kmsClientCache.EvictExpiredScopes(t.cfg.CacheLifetime)
	t.kekWriteCache.EvictExpiredScopes(t.cfg.CacheLifetime)
	t.kekReadCache.EvictExpiredScopes(t.cfg.CacheLifetime)
}

func (t *KeyToolkit) kekWriteScope(accessToken string) *cache.Scope[*cryptoDomain.KeyEncryptionKey] {
	return t.kekWriteCache.GetOrCreateScope(accessToken, t.cfg.CacheLifetime)
}

func (t *KeyToolkit) kekReadScope(accessToken string) *cache.Scope[[]byte] {
	return t.kekReadCache.GetOrCreateScope(accessToken, t.cfg.CacheLifetime)
}
