package service

import (
	"fmt"
	"sort"
	"sync"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/metrics"
)

// Names of the KMS clients registered by the application.
const (
	LocalKmsClientName   = "local"
	GocloudKmsClientName = "gocloud"
	VaultKmsClientName   = "vault"
)

// KmsClientFactory builds an uninitialized KMS client.
type KmsClientFactory func() cryptoDomain.KmsClient

// KmsClientRegistry resolves the configured KMS client name to a factory.
//
// Factories are registered at startup. NewKmsClient builds one client of the
// selected kind on every call; caching is the caller's concern.
type KmsClientRegistry struct {
	mu        sync.RWMutex
	selected  string
	factories map[string]KmsClientFactory
	metrics   metrics.BusinessMetrics
}

// NewKmsClientRegistry creates a registry that builds clients named selected.
// When businessMetrics is not nil every client it builds records KMS call metrics.
func NewKmsClientRegistry(selected string, businessMetrics metrics.BusinessMetrics) *KmsClientRegistry {
	return &KmsClientRegistry{
		selected:  selected,
		factories: make(map[string]KmsClientFactory),
		metrics:   businessMetrics,
	}
}

// Register adds or replaces the factory for name.
func (r *KmsClientRegistry) Register(name string, factory KmsClientFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// Names returns the registered client names in sorted order.
func (r *KmsClientRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewKmsClient builds a new client of the selected kind.
func (r *KmsClientRegistry) NewKmsClient() (cryptoDomain.KmsClient, error) {
	if r.selected == "" {
		return nil, cryptoDomain.ErrKmsClientUnspecified
	}

	r.mu.RLock()
	factory, ok := r.factories[r.selected]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrKmsClientNotRegistered, r.selected)
	}

	client := factory()
	if r.metrics != nil {
		client = NewKmsClientWithMetrics(client, r.metrics)
	}
	return client, nil
}
