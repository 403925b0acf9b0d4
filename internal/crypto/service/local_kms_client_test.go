package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

func newTestMasterKeyChain(t *testing.T, ids ...string) *cryptoDomain.MasterKeyChain {
	t.Helper()
	raw := ""
	for i, id := range ids {
		if i > 0 {
			raw += ","
		}
		raw += id + ":" + base64.StdEncoding.EncodeToString(randomKey(t, 16))
	}
	mkc, err := cryptoDomain.ParseMasterKeyChain(raw)
	require.NoError(t, err)
	t.Cleanup(mkc.Close)
	return mkc
}

func TestLocalKmsClient(t *testing.T) {
	ctx := context.Background()
	keyCipher := NewKeyCipher(NewAEADManager(), cryptoDomain.AESGCM)
	factory := NewLocalKmsClientFactory(newTestMasterKeyChain(t, "kf", "kc1"), keyCipher)

	client := factory()
	require.NoError(t, client.Initialize(ctx, "DEFAULT", "DEFAULT", "DEFAULT"))

	t.Run("wrap and unwrap", func(t *testing.T) {
		key := randomKey(t, 16)
		wrapped, err := client.WrapKey(ctx, key, "kf")
		require.NoError(t, err)

		unwrapped, err := client.UnwrapKey(ctx, wrapped, "kf")
		require.NoError(t, err)
		assert.Equal(t, key, unwrapped)
	})

	t.Run("master key id is bound as aad", func(t *testing.T) {
		wrapped, err := client.WrapKey(ctx, randomKey(t, 16), "kf")
		require.NoError(t, err)

		_, err = client.UnwrapKey(ctx, wrapped, "kc1")
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("unknown master key is access denied", func(t *testing.T) {
		_, err := client.WrapKey(ctx, randomKey(t, 16), "missing")
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyNotFound)
		assert.ErrorIs(t, err, errors.ErrAccessDenied)

		_, err = client.UnwrapKey(ctx, "AAAA", "missing")
		assert.ErrorIs(t, err, errors.ErrAccessDenied)
	})

	t.Run("initialize without master keys", func(t *testing.T) {
		err := NewLocalKmsClientFactory(nil, keyCipher)().Initialize(ctx, "DEFAULT", "DEFAULT", "DEFAULT")
		assert.ErrorIs(t, err, errors.ErrConfiguration)
	})
}
