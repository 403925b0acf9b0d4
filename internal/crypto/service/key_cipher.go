package service

import (
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// KeyCipherService implements LocalKeyCipher on top of an AEADManager.
type KeyCipherService struct {
	aeadManager AEADManager
	alg         cryptoDomain.Algorithm
}

// NewKeyCipher creates a local key cipher using alg for every wrap and unwrap.
func NewKeyCipher(aeadManager AEADManager, alg cryptoDomain.Algorithm) *KeyCipherService {
	return &KeyCipherService{aeadManager: aeadManager, alg: alg}
}

// WrapLocally encrypts keyBytes under masterKey and returns base64(nonce || ciphertext).
func (k *KeyCipherService) WrapLocally(keyBytes, masterKey, aad []byte) (string, error) {
	aead, err := k.aeadManager.CreateCipher(masterKey, k.alg)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	ciphertext, nonce, err := aead.Encrypt(keyBytes, aad)
	if err != nil {
		return "", fmt.Errorf("failed to wrap key: %w", err)
	}

	wrapped := make([]byte, 0, len(nonce)+len(ciphertext))
	wrapped = append(wrapped, nonce...)
	wrapped = append(wrapped, ciphertext...)
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// UnwrapLocally decodes and decrypts a key produced by WrapLocally.
func (k *KeyCipherService) UnwrapLocally(encodedWrappedKey string, masterKey, aad []byte) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(encodedWrappedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key is not base64: %v", cryptoDomain.ErrMalformedKeyMaterial, err)
	}

	aead, err := k.aeadManager.CreateCipher(masterKey, k.alg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonceSize := aead.NonceSize()
	if len(wrapped) <= nonceSize {
		return nil, fmt.Errorf("%w: wrapped key is too short", cryptoDomain.ErrMalformedKeyMaterial)
	}

	keyBytes, err := aead.Decrypt(wrapped[nonceSize:], wrapped[:nonceSize], aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return keyBytes, nil
}
