package domain

import "context"

// KmsClient wraps and unwraps keys under master keys held by a KMS.
//
// A client is built once per (access token, KMS instance) and initialized before
// use; afterwards it may serve concurrent calls. Implementations return errors
// wrapping errors.ErrAccessDenied when the KMS rejects the access token.
type KmsClient interface {
	// Initialize binds the client to a KMS instance and access token.
	Initialize(ctx context.Context, kmsInstanceID, kmsInstanceURL, accessToken string) error

	// WrapKey encrypts keyBytes under the master key and returns an opaque string.
	WrapKey(ctx context.Context, keyBytes []byte, masterKeyID string) (string, error)

	// UnwrapKey reverses WrapKey.
	UnwrapKey(ctx context.Context, wrappedKey string, masterKeyID string) ([]byte, error)
}
