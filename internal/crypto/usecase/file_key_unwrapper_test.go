package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

func wrapTestKeys(t *testing.T, toolkit *KeyToolkit) (footerMeta, columnMeta []byte, footerDEK, columnDEK []byte) {
	t.Helper()
	ctx := context.Background()
	wrapper, err := toolkit.NewFileKeyWrapper(ctx, nil, "alice")
	require.NoError(t, err)

	footerDEK, columnDEK = randomDEK(t), randomDEK(t)
	footerMeta, err = wrapper.GetEncryptionKeyMetadata(ctx, footerDEK, "kf", true)
	require.NoError(t, err)
	columnMeta, err = wrapper.GetEncryptionKeyMetadata(ctx, columnDEK, "kc", false)
	require.NoError(t, err)
	return footerMeta, columnMeta, footerDEK, columnDEK
}

func TestFileKeyUnwrapper_KmsInstanceResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to footer key material", func(t *testing.T) {
		kms := newFakeKms(t, "kf", "kc")
		writer := newTestToolkit(t, DefaultConfig(), kms)
		footerMeta, columnMeta, _, columnDEK := wrapTestKeys(t, writer)

		reader := newTestToolkit(t, DefaultConfig(), kms)
		unwrapper := reader.NewFileKeyUnwrapper(nil, "alice")
		assert.Nil(t, unwrapper.KmsClientAndDetails())

		_, err := unwrapper.GetKey(ctx, footerMeta)
		require.NoError(t, err)
		details := unwrapper.KmsClientAndDetails()
		require.NotNil(t, details)
		assert.Equal(t, cryptoDomain.DefaultKmsInstanceID, details.KmsInstanceID)
		assert.Equal(t, cryptoDomain.DefaultKmsInstanceURL, details.KmsInstanceURL)

		key, err := unwrapper.GetKey(ctx, columnMeta)
		require.NoError(t, err)
		assert.Equal(t, columnDEK, key.DataKey)
	})

	t.Run("column key first without configured instance", func(t *testing.T) {
		kms := newFakeKms(t, "kf", "kc")
		writer := newTestToolkit(t, DefaultConfig(), kms)
		_, columnMeta, _, _ := wrapTestKeys(t, writer)

		unwrapper := newTestToolkit(t, DefaultConfig(), kms).NewFileKeyUnwrapper(nil, "alice")
		_, err := unwrapper.GetKey(ctx, columnMeta)
		assert.ErrorIs(t, err, cryptoDomain.ErrKmsInstanceIDMissing)
		assert.ErrorIs(t, err, errors.ErrProtocol)
	})

	t.Run("configured instance wins", func(t *testing.T) {
		kms := newFakeKms(t, "kf", "kc")
		writer := newTestToolkit(t, DefaultConfig(), kms)
		_, columnMeta, _, columnDEK := wrapTestKeys(t, writer)

		cfg := DefaultConfig()
		cfg.KmsInstanceID = "kms-reader"
		cfg.KmsInstanceURL = "https://reader.example.com"
		unwrapper := newTestToolkit(t, cfg, kms).NewFileKeyUnwrapper(nil, "alice")

		key, err := unwrapper.GetKey(ctx, columnMeta)
		require.NoError(t, err)
		assert.Equal(t, columnDEK, key.DataKey)
		assert.Equal(t, "kms-reader", unwrapper.KmsClientAndDetails().KmsInstanceID)
	})
}

func TestFileKeyUnwrapper_Errors(t *testing.T) {
	ctx := context.Background()
	kms := newFakeKms(t, "kf", "kc")
	toolkit := newTestToolkit(t, DefaultConfig(), kms)
	footerMeta, _, _, _ := wrapTestKeys(t, toolkit)

	t.Run("malformed metadata", func(t *testing.T) {
		_, err := toolkit.NewFileKeyUnwrapper(nil, "alice").GetKey(ctx, []byte("{not json"))
		assert.ErrorIs(t, err, cryptoDomain.ErrMalformedKeyMaterial)
	})

	t.Run("external metadata without store", func(t *testing.T) {
		meta, err := cryptoDomain.SerializeExternalKeyMetadata("footerKey")
		require.NoError(t, err)
		_, err = toolkit.NewFileKeyUnwrapper(nil, "alice").GetKey(ctx, meta)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyMaterialStoreMissing)
	})

	t.Run("tampered wrapped data key", func(t *testing.T) {
		metadata, err := cryptoDomain.ParseKeyMetadata(footerMeta)
		require.NoError(t, err)
		km := *metadata.KeyMaterial
		wrapped := []byte(km.EncodedWrappedDEK)
		if wrapped[10] == 'A' {
			wrapped[10] = 'B'
		} else {
			wrapped[10] = 'A'
		}
		km.EncodedWrappedDEK = string(wrapped)

		_, err = toolkit.NewFileKeyUnwrapper(nil, "alice").GetDEKAndMasterID(ctx, &km)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("kek id bound as aad", func(t *testing.T) {
		other, _, _, _ := wrapTestKeys(t, newTestToolkit(t, DefaultConfig(), kms))
		otherMeta, err := cryptoDomain.ParseKeyMetadata(other)
		require.NoError(t, err)
		metadata, err := cryptoDomain.ParseKeyMetadata(footerMeta)
		require.NoError(t, err)

		km := *metadata.KeyMaterial
		km.KekID = otherMeta.KeyMaterial.KekID

		_, err = newTestToolkit(t, DefaultConfig(), kms).NewFileKeyUnwrapper(nil, "alice").GetDEKAndMasterID(ctx, &km)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}
