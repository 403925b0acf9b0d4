package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

func newMemBucket(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() {
		_ = bucket.Close()
	})
	return bucket
}

func TestKeyMaterialObjectKey(t *testing.T) {
	tests := []struct {
		fileLocation string
		temporary    bool
		want         string
	}{
		{"warehouse/t1/part-0.parquet", false, "warehouse/t1/_KEY_MATERIAL_FOR_part-0.parquet.json"},
		{"warehouse/t1/part-0.parquet", true, "warehouse/t1/_TMP_KEY_MATERIAL_FOR_part-0.parquet.json"},
		{"part-0.parquet", false, "_KEY_MATERIAL_FOR_part-0.parquet.json"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyMaterialObjectKey(tt.fileLocation, tt.temporary))
		})
	}
}

func TestBlobKeyMaterialStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	bucket := newMemBucket(t)
	factory := NewBlobKeyMaterialStoreFactory(bucket)

	store, err := factory.Open(ctx, "t1/part-0.parquet", false)
	require.NoError(t, err)
	require.NoError(t, store.AddKeyMaterial(ctx, "footerKey", []byte(`{"m":"f"}`)))
	require.NoError(t, store.AddKeyMaterial(ctx, "columnKey1", []byte(`{"m":"c1"}`)))
	require.NoError(t, store.SaveMaterial(ctx))

	exists, err := bucket.Exists(ctx, "t1/_KEY_MATERIAL_FOR_part-0.parquet.json")
	require.NoError(t, err)
	assert.True(t, exists)

	reopened, err := factory.Open(ctx, "t1/part-0.parquet", false)
	require.NoError(t, err)

	ids, err := reopened.KeyIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"columnKey1", "footerKey"}, ids)

	material, err := reopened.GetKeyMaterial(ctx, "footerKey")
	require.NoError(t, err)
	assert.Equal(t, `{"m":"f"}`, string(material))

	_, err = reopened.GetKeyMaterial(ctx, "columnKey9")
	assert.ErrorIs(t, err, cryptoDomain.ErrKeyMaterialNotFound)
}

func TestBlobKeyMaterialStore_Errors(t *testing.T) {
	ctx := context.Background()
	bucket := newMemBucket(t)
	factory := NewBlobKeyMaterialStoreFactory(bucket)

	t.Run("empty file location", func(t *testing.T) {
		_, err := factory.Open(ctx, "", false)
		assert.ErrorIs(t, err, errors.ErrProtocol)
	})

	t.Run("missing object", func(t *testing.T) {
		store, err := factory.Open(ctx, "t1/missing.parquet", false)
		require.NoError(t, err)

		_, err = store.KeyIDs(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyMaterialNotFound)
	})

	t.Run("corrupted object", func(t *testing.T) {
		require.NoError(t, bucket.WriteAll(ctx, "t1/_KEY_MATERIAL_FOR_bad.parquet.json", []byte("{"), nil))
		store, err := factory.Open(ctx, "t1/bad.parquet", false)
		require.NoError(t, err)

		_, err = store.GetKeyMaterial(ctx, "footerKey")
		assert.ErrorIs(t, err, cryptoDomain.ErrMalformedKeyMaterial)
	})

	t.Run("remove missing object", func(t *testing.T) {
		store, err := factory.Open(ctx, "t1/never.parquet", true)
		require.NoError(t, err)
		assert.NoError(t, store.RemoveMaterial(ctx))
	})

	t.Run("move to another kind of store", func(t *testing.T) {
		store, err := factory.Open(ctx, "t1/part.parquet", true)
		require.NoError(t, err)
		other, err := NewBlobKeyMaterialStoreFactory(newMemBucket(t)).Open(ctx, "t1/part.parquet", false)
		require.NoError(t, err)

		assert.ErrorIs(t, store.MoveMaterialTo(ctx, other), errors.ErrProtocol)
	})
}

func TestBlobKeyMaterialStore_BucketFailures(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	factory := NewBlobKeyMaterialStoreFactory(bucket)
	store, err := factory.Open(ctx, "warehouse/part-0.parquet", false)
	require.NoError(t, err)
	temp, err := factory.Open(ctx, "warehouse/part-0.parquet", true)
	require.NoError(t, err)
	require.NoError(t, store.AddKeyMaterial(ctx, cryptoDomain.FooterKeyID, []byte("{}")))
	require.NoError(t, bucket.Close())

	assertStorageError := func(t *testing.T, err error, objectKey string) {
		t.Helper()
		require.Error(t, err)
		assert.ErrorIs(t, err, cryptoDomain.ErrStorageIO)
		assert.ErrorIs(t, err, errors.ErrProtocol)
		assert.NotErrorIs(t, err, cryptoDomain.ErrKeyMaterialStoreMissing)
		assert.Equal(t, gcerrors.FailedPrecondition, gcerrors.Code(err), "bucket cause stays in the chain")
		assert.Contains(t, err.Error(), objectKey)
	}
	objectKey := KeyMaterialObjectKey("warehouse/part-0.parquet", false)

	t.Run("write", func(t *testing.T) {
		assertStorageError(t, store.SaveMaterial(ctx), objectKey)
	})

	t.Run("read", func(t *testing.T) {
		fresh, err := factory.Open(ctx, "warehouse/part-0.parquet", false)
		require.NoError(t, err)
		_, err = fresh.KeyIDs(ctx)
		assertStorageError(t, err, objectKey)
	})

	t.Run("delete", func(t *testing.T) {
		assertStorageError(t, store.RemoveMaterial(ctx), objectKey)
	})

	t.Run("move", func(t *testing.T) {
		assertStorageError(t, temp.MoveMaterialTo(ctx, store), objectKey)
	})
}

func TestBlobKeyMaterialStore_MoveMaterialTo(t *testing.T) {
	ctx := context.Background()
	bucket, err := fileblob.OpenBucket(t.TempDir(), nil)
	require.NoError(t, err)
	defer func() {
		_ = bucket.Close()
	}()
	factory := NewBlobKeyMaterialStoreFactory(bucket)

	primary, err := factory.Open(ctx, "t1/part-0.parquet", false)
	require.NoError(t, err)
	require.NoError(t, primary.AddKeyMaterial(ctx, "footerKey", []byte("old")))
	require.NoError(t, primary.SaveMaterial(ctx))
	_, err = primary.KeyIDs(ctx)
	require.NoError(t, err)

	temp, err := factory.Open(ctx, "t1/part-0.parquet", true)
	require.NoError(t, err)
	require.NoError(t, temp.AddKeyMaterial(ctx, "footerKey", []byte("new")))
	require.NoError(t, temp.SaveMaterial(ctx))

	require.NoError(t, temp.MoveMaterialTo(ctx, primary))

	material, err := primary.GetKeyMaterial(ctx, "footerKey")
	require.NoError(t, err)
	assert.Equal(t, "new", string(material))

	exists, err := bucket.Exists(ctx, "t1/_TMP_KEY_MATERIAL_FOR_part-0.parquet.json")
	require.NoError(t, err)
	assert.False(t, exists)
}
