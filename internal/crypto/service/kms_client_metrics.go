package service

import (
	"context"
	"io"
	"time"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/metrics"
)

// kmsClientWithMetrics decorates a KmsClient with metrics instrumentation.
type kmsClientWithMetrics struct {
	next    cryptoDomain.KmsClient
	metrics metrics.BusinessMetrics
}

// NewKmsClientWithMetrics wraps a KmsClient with metrics recording.
func NewKmsClientWithMetrics(client cryptoDomain.KmsClient, m metrics.BusinessMetrics) cryptoDomain.KmsClient {
	return &kmsClientWithMetrics{
		next:    client,
		metrics: m,
	}
}

func (k *kmsClientWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	k.metrics.RecordOperation(ctx, "kms", operation, status)
	k.metrics.RecordDuration(ctx, "kms", operation, time.Since(start), status)
}

// Initialize records metrics for client initialization.
func (k *kmsClientWithMetrics) Initialize(
	ctx context.Context,
	kmsInstanceID, kmsInstanceURL, accessToken string,
) error {
	start := time.Now()
	err := k.next.Initialize(ctx, kmsInstanceID, kmsInstanceURL, accessToken)
	k.record(ctx, "kms_initialize", start, err)
	return err
}

// WrapKey records metrics for KMS wrap calls.
func (k *kmsClientWithMetrics) WrapKey(ctx context.Context, keyBytes []byte, masterKeyID string) (string, error) {
	start := time.Now()
	wrapped, err := k.next.WrapKey(ctx, keyBytes, masterKeyID)
	k.record(ctx, "kms_wrap", start, err)
	return wrapped, err
}

// UnwrapKey records metrics for KMS unwrap calls.
func (k *kmsClientWithMetrics) UnwrapKey(ctx context.Context, wrappedKey string, masterKeyID string) ([]byte, error) {
	start := time.Now()
	keyBytes, err := k.next.UnwrapKey(ctx, wrappedKey, masterKeyID)
	k.record(ctx, "kms_unwrap", start, err)
	return keyBytes, err
}

// Close closes the decorated client when it holds resources.
func (k *kmsClientWithMetrics) Close() error {
	if closer, ok := k.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
