package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"
	"gocloud.dev/gcerrors"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

// keeperSet lazily opens one keeper per master key id and reuses it until close.
//
// close waits for in-flight calls. A set used after close opens a keeper per call
// and closes it when the call returns, so late callers never leak keepers.
type keeperSet struct {
	calls   sync.RWMutex
	mu      sync.Mutex
	keepers map[string]Keeper
	closed  bool
	open    func(ctx context.Context, masterKeyID string) (Keeper, error)
}

func newKeeperSet(open func(ctx context.Context, masterKeyID string) (Keeper, error)) *keeperSet {
	return &keeperSet{keepers: make(map[string]Keeper), open: open}
}

func (s *keeperSet) acquire(ctx context.Context, masterKeyID string) (Keeper, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keeper, ok := s.keepers[masterKeyID]; ok {
		return keeper, func() {}, nil
	}
	keeper, err := s.open(ctx, masterKeyID)
	if err != nil {
		return nil, nil, err
	}
	if s.closed {
		return keeper, func() { _ = keeper.Close() }, nil
	}
	s.keepers[masterKeyID] = keeper
	return keeper, func() {}, nil
}

func (s *keeperSet) wrap(ctx context.Context, keyBytes []byte, masterKeyID string) (string, error) {
	s.calls.RLock()
	defer s.calls.RUnlock()

	keeper, release, err := s.acquire(ctx, masterKeyID)
	if err != nil {
		return "", err
	}
	defer release()

	ciphertext, err := keeper.Encrypt(ctx, keyBytes)
	if err != nil {
		return "", mapKeeperError(err, "wrap", masterKeyID)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *keeperSet) unwrap(ctx context.Context, wrappedKey string, masterKeyID string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key is not base64: %v", cryptoDomain.ErrMalformedKeyMaterial, err)
	}

	s.calls.RLock()
	defer s.calls.RUnlock()

	keeper, release, err := s.acquire(ctx, masterKeyID)
	if err != nil {
		return nil, err
	}
	defer release()

	keyBytes, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, mapKeeperError(err, "unwrap", masterKeyID)
	}
	return keyBytes, nil
}

// close closes every open keeper. It is safe to call more than once.
func (s *keeperSet) close() error {
	s.calls.Lock()
	defer s.calls.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	var errs []error
	for masterKeyID, keeper := range s.keepers {
		if err := keeper.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "failed to close keeper for %s", masterKeyID))
		}
	}
	clear(s.keepers)
	return errors.Join(errs...)
}

// mapKeeperError classifies keeper failures. Vault reports auth failures as plain
// HTTP responses, every other driver through gcerrors codes.
func mapKeeperError(err error, operation, masterKeyID string) error {
	var respErr *api.ResponseError
	if errors.As(err, &respErr) && (respErr.StatusCode == 401 || respErr.StatusCode == 403) {
		return fmt.Errorf("%w: failed to %s key with master key %s: %v", errors.ErrAccessDenied, operation, masterKeyID, err)
	}

	switch gcerrors.Code(err) {
	case gcerrors.PermissionDenied:
		return fmt.Errorf("%w: failed to %s key with master key %s: %v", errors.ErrAccessDenied, operation, masterKeyID, err)
	case gcerrors.NotFound:
		return fmt.Errorf("%w: %s: %v", cryptoDomain.ErrMasterKeyNotFound, masterKeyID, err)
	default:
		return fmt.Errorf("failed to %s key with master key %s: %w", operation, masterKeyID, err)
	}
}

// GocloudKmsClient wraps keys through gocloud.dev secrets keepers.
//
// Each master key id maps to a keeper URL (awskms://, gcpkms://, azurekeyvault://,
// base64key://, ...). An id that is itself a keeper URL is used as is. Credentials
// come from the environment of the driver, so the access token only scopes caching.
type GocloudKmsClient struct {
	kmsService KMSService
	keeperURLs map[string]string
	keepers    *keeperSet
}

// NewGocloudKmsClientFactory returns a factory for keeper backed clients.
func NewGocloudKmsClientFactory(kmsService KMSService, keeperURLs map[string]string) KmsClientFactory {
	return func() cryptoDomain.KmsClient {
		c := &GocloudKmsClient{kmsService: kmsService, keeperURLs: keeperURLs}
		c.keepers = newKeeperSet(c.openKeeper)
		return c
	}
}

func (g *GocloudKmsClient) Initialize(ctx context.Context, kmsInstanceID, kmsInstanceURL, accessToken string) error {
	return nil
}

func (g *GocloudKmsClient) WrapKey(ctx context.Context, keyBytes []byte, masterKeyID string) (string, error) {
	return g.keepers.wrap(ctx, keyBytes, masterKeyID)
}

func (g *GocloudKmsClient) UnwrapKey(ctx context.Context, wrappedKey string, masterKeyID string) ([]byte, error) {
	return g.keepers.unwrap(ctx, wrappedKey, masterKeyID)
}

// Close releases the keepers opened by the client.
func (g *GocloudKmsClient) Close() error {
	return g.keepers.close()
}

func (g *GocloudKmsClient) openKeeper(ctx context.Context, masterKeyID string) (Keeper, error) {
	keeperURL, ok := g.keeperURLs[masterKeyID]
	if !ok {
		if !strings.Contains(masterKeyID, "://") {
			return nil, fmt.Errorf("%w: no keeper url for %s", cryptoDomain.ErrMasterKeyNotFound, masterKeyID)
		}
		keeperURL = masterKeyID
	}
	keeper, err := g.kmsService.OpenKeeper(ctx, keeperURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConfiguration, err)
	}
	return keeper, nil
}

// ParseKeeperURLs parses the KMS_KEEPER_URLS format: comma-separated "id=url" entries.
func ParseKeeperURLs(raw string) (map[string]string, error) {
	urls := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return urls, nil
	}
	for part := range strings.SplitSeq(raw, ",") {
		id, keeperURL, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || id == "" || keeperURL == "" {
			return nil, fmt.Errorf("%w: invalid KMS_KEEPER_URLS entry %q", errors.ErrConfiguration, part)
		}
		urls[id] = keeperURL
	}
	return urls, nil
}
