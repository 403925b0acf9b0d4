package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/metrics"
)

const metricsDomain = "keytools"

func recordMetrics(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// keyUseCaseWithMetrics decorates KeyUseCase with metrics instrumentation.
type keyUseCaseWithMetrics struct {
	next    KeyUseCase
	metrics metrics.BusinessMetrics
}

// NewKeyUseCaseWithMetrics wraps a KeyUseCase with metrics recording.
func NewKeyUseCaseWithMetrics(useCase KeyUseCase, m metrics.BusinessMetrics) KeyUseCase {
	return &keyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (k *keyUseCaseWithMetrics) GenerateFileKeys(
	ctx context.Context,
	input *cryptoDomain.GenerateFileKeysInput,
) (*cryptoDomain.GenerateFileKeysOutput, error) {
	start := time.Now()
	output, err := k.next.GenerateFileKeys(ctx, input)
	recordMetrics(ctx, k.metrics, "file_keys_generate", start, err)
	return output, err
}

func (k *keyUseCaseWithMetrics) UnwrapFileKeys(
	ctx context.Context,
	input *cryptoDomain.UnwrapFileKeysInput,
) (*cryptoDomain.UnwrapFileKeysOutput, error) {
	start := time.Now()
	output, err := k.next.UnwrapFileKeys(ctx, input)
	recordMetrics(ctx, k.metrics, "file_keys_unwrap", start, err)
	return output, err
}

func (k *keyUseCaseWithMetrics) RevokeToken(ctx context.Context, accessToken string) error {
	start := time.Now()
	err := k.next.RevokeToken(ctx, accessToken)
	recordMetrics(ctx, k.metrics, "token_revoke", start, err)
	return err
}

func (k *keyUseCaseWithMetrics) RevokeAllTokens(ctx context.Context) error {
	start := time.Now()
	err := k.next.RevokeAllTokens(ctx)
	recordMetrics(ctx, k.metrics, "token_revoke_all", start, err)
	return err
}

// rotationUseCaseWithMetrics decorates RotationUseCase with metrics instrumentation.
type rotationUseCaseWithMetrics struct {
	next    RotationUseCase
	metrics metrics.BusinessMetrics
}

// NewRotationUseCaseWithMetrics wraps a RotationUseCase with metrics recording.
func NewRotationUseCaseWithMetrics(useCase RotationUseCase, m metrics.BusinessMetrics) RotationUseCase {
	return &rotationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (r *rotationUseCaseWithMetrics) RotateMasterKeys(
	ctx context.Context,
	folder, accessToken string,
) (*cryptoDomain.RotationResult, error) {
	start := time.Now()
	result, err := r.next.RotateMasterKeys(ctx, folder, accessToken)
	recordMetrics(ctx, r.metrics, "master_keys_rotate", start, err)
	return result, err
}
