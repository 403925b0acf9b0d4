// Package usecase implements the key protocol of encrypted columnar files: how data
// keys are wrapped under master keys, how they are recovered, and how a folder of
// files is moved to new master key versions.
package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// KmsClientProvider builds new, uninitialized KMS clients of the configured kind.
type KmsClientProvider interface {
	NewKmsClient() (cryptoDomain.KmsClient, error)
}

// KeyUseCase generates and recovers the data keys of single files.
type KeyUseCase interface {
	// GenerateFileKeys creates random footer and column keys and wraps them.
	GenerateFileKeys(
		ctx context.Context,
		input *cryptoDomain.GenerateFileKeysInput,
	) (*cryptoDomain.GenerateFileKeysOutput, error)

	// UnwrapFileKeys recovers data keys from key metadata, footer key first.
	UnwrapFileKeys(
		ctx context.Context,
		input *cryptoDomain.UnwrapFileKeysInput,
	) (*cryptoDomain.UnwrapFileKeysOutput, error)

	// RevokeToken drops every cached KMS client and KEK for accessToken.
	RevokeToken(ctx context.Context, accessToken string) error

	// RevokeAllTokens drops every cached KMS client and KEK.
	RevokeAllTokens(ctx context.Context) error
}

// RotationUseCase re-wraps the keys of every file in a folder under the current
// master key versions.
type RotationUseCase interface {
	RotateMasterKeys(ctx context.Context, folder, accessToken string) (*cryptoDomain.RotationResult, error)
}
