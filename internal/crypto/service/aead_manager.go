package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// AEADManagerService implements AEADManager.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for the key and algorithm.
//
// AES-GCM accepts 16, 24 or 32-byte keys. ChaCha20-Poly1305 requires 32 bytes.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCM(key)
	case cryptoDomain.ChaCha20:
		if len(key) != 32 {
			return nil, fmt.Errorf(
				"%w: chacha20-poly1305 key has %d bytes",
				cryptoDomain.ErrInvalidKeySize,
				len(key),
			)
		}
		return NewChaCha20Poly1305(key)
	default:
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrUnsupportedAlgorithm, alg)
	}
}
