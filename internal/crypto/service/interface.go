// Package service provides the cryptographic building blocks of the key tools: AEAD
// ciphers, the local key cipher used for double wrapping, and the KMS clients.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with a fresh random nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt authenticates and decrypts ciphertext. Fails on any AAD or nonce mismatch.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// NonceSize returns the nonce length in bytes.
	NonceSize() int
}

// AEADManager creates AEAD cipher instances for a key and algorithm.
type AEADManager interface {
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// LocalKeyCipher wraps keys in process with AEAD, binding each wrapped key to an AAD.
type LocalKeyCipher interface {
	// WrapLocally returns base64(nonce || ciphertext) of keyBytes under masterKey.
	WrapLocally(keyBytes, masterKey, aad []byte) (string, error)

	// UnwrapLocally reverses WrapLocally. The aad must match the one used to wrap.
	UnwrapLocally(encodedWrappedKey string, masterKey, aad []byte) ([]byte, error)
}

// Keeper is the subset of *secrets.Keeper used by the KMS clients.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
