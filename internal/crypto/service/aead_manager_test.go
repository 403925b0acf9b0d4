package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

func TestAEADManagerService_CreateCipher(t *testing.T) {
	manager := NewAEADManager()

	t.Run("aes-gcm for every supported key size", func(t *testing.T) {
		for _, size := range []int{16, 24, 32} {
			cipher, err := manager.CreateCipher(randomKey(t, size), cryptoDomain.AESGCM)
			require.NoError(t, err)
			_, ok := cipher.(*AESGCMCipher)
			assert.True(t, ok, "cipher should be of type *AESGCMCipher")
		}
	})

	t.Run("chacha20-poly1305 with 256-bit key", func(t *testing.T) {
		cipher, err := manager.CreateCipher(randomKey(t, 32), cryptoDomain.ChaCha20)
		require.NoError(t, err)
		_, ok := cipher.(*ChaCha20Poly1305Cipher)
		assert.True(t, ok, "cipher should be of type *ChaCha20Poly1305Cipher")
	})

	t.Run("chacha20-poly1305 rejects 128-bit key", func(t *testing.T) {
		_, err := manager.CreateCipher(randomKey(t, 16), cryptoDomain.ChaCha20)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("aes-gcm rejects other key sizes", func(t *testing.T) {
		_, err := manager.CreateCipher(randomKey(t, 64), cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := manager.CreateCipher(randomKey(t, 32), cryptoDomain.Algorithm("unsupported"))
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
		assert.ErrorIs(t, err, errors.ErrConfiguration)
	})
}
