// Package repository implements key material persistence and data file discovery.
//
// Key material can live next to the data files in any gocloud.dev blob bucket
// (file://, mem://, s3://, gs://, azblob://) or in a PostgreSQL or MySQL table.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

// Object name prefixes of key material files. Both start with "_" so file listings
// treat them as hidden.
const (
	KeyMaterialFilePrefix = "_KEY_MATERIAL_FOR_"
	TempFilePrefix        = "_TMP"
	KeyMaterialFileSuffix = ".json"
)

// BlobKeyMaterialStoreFactory opens blob key material stores in a single bucket.
type BlobKeyMaterialStoreFactory struct {
	bucket *blob.Bucket
}

// NewBlobKeyMaterialStoreFactory creates a factory for stores in bucket.
func NewBlobKeyMaterialStoreFactory(bucket *blob.Bucket) *BlobKeyMaterialStoreFactory {
	return &BlobKeyMaterialStoreFactory{bucket: bucket}
}

// Open returns the store for fileLocation, a bucket key such as "warehouse/t1/part-0.parquet".
// Nothing is read until the first lookup.
func (f *BlobKeyMaterialStoreFactory) Open(
	ctx context.Context,
	fileLocation string,
	temporary bool,
) (cryptoDomain.KeyMaterialStore, error) {
	if fileLocation == "" {
		return nil, fmt.Errorf("%w: empty file location", cryptoDomain.ErrKeyMaterialStoreMissing)
	}
	return &BlobKeyMaterialStore{
		bucket:    f.bucket,
		objectKey: KeyMaterialObjectKey(fileLocation, temporary),
	}, nil
}

// KeyMaterialObjectKey returns the object key of a data file's key material.
func KeyMaterialObjectKey(fileLocation string, temporary bool) string {
	prefix := KeyMaterialFilePrefix
	if temporary {
		prefix = TempFilePrefix + prefix
	}
	name := prefix + path.Base(fileLocation) + KeyMaterialFileSuffix

	dir := path.Dir(fileLocation)
	if dir == "." || dir == "/" {
		return name
	}
	return dir + "/" + name
}

// BlobKeyMaterialStore keeps a file's key material as one JSON object mapping key
// ids to serialized key material.
type BlobKeyMaterialStore struct {
	bucket    *blob.Bucket
	objectKey string
	materials map[string]string
}

// ObjectKey returns the key of the backing object.
func (s *BlobKeyMaterialStore) ObjectKey() string {
	return s.objectKey
}

func (s *BlobKeyMaterialStore) load(ctx context.Context) error {
	if s.materials != nil {
		return nil
	}

	data, err := s.bucket.ReadAll(ctx, s.objectKey)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return fmt.Errorf("%w: %s does not exist", cryptoDomain.ErrKeyMaterialNotFound, s.objectKey)
		}
		return storageError(err, "failed to read %s", s.objectKey)
	}

	materials := make(map[string]string)
	if err := json.Unmarshal(data, &materials); err != nil {
		return fmt.Errorf("%w: %s: %v", cryptoDomain.ErrMalformedKeyMaterial, s.objectKey, err)
	}
	s.materials = materials
	return nil
}

func (s *BlobKeyMaterialStore) AddKeyMaterial(ctx context.Context, keyIDInFile string, keyMaterial []byte) error {
	if s.materials == nil {
		s.materials = make(map[string]string)
	}
	s.materials[keyIDInFile] = string(keyMaterial)
	return nil
}

func (s *BlobKeyMaterialStore) GetKeyMaterial(ctx context.Context, keyIDInFile string) ([]byte, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	material, ok := s.materials[keyIDInFile]
	if !ok {
		return nil, fmt.Errorf("%w: key %s in %s", cryptoDomain.ErrKeyMaterialNotFound, keyIDInFile, s.objectKey)
	}
	return []byte(material), nil
}

func (s *BlobKeyMaterialStore) KeyIDs(ctx context.Context) ([]string, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(s.materials))
	for id := range s.materials {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *BlobKeyMaterialStore) SaveMaterial(ctx context.Context) error {
	materials := s.materials
	if materials == nil {
		materials = map[string]string{}
	}
	data, err := json.Marshal(materials)
	if err != nil {
		return fmt.Errorf("failed to serialize key material map: %w", err)
	}

	if err := s.bucket.WriteAll(ctx, s.objectKey, data, &blob.WriterOptions{ContentType: "application/json"}); err != nil {
		return storageError(err, "failed to write %s", s.objectKey)
	}
	return nil
}

// RemoveMaterial deletes the backing object. A missing object is not an error.
func (s *BlobKeyMaterialStore) RemoveMaterial(ctx context.Context) error {
	s.materials = nil
	if err := s.bucket.Delete(ctx, s.objectKey); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return storageError(err, "failed to delete %s", s.objectKey)
	}
	return nil
}

// MoveMaterialTo copies this store's object over the target's and deletes the source.
// The copy overwrites the target in a single write, so readers never see the target
// without material.
func (s *BlobKeyMaterialStore) MoveMaterialTo(ctx context.Context, target cryptoDomain.KeyMaterialStore) error {
	dst, ok := target.(*BlobKeyMaterialStore)
	if !ok || dst.bucket != s.bucket {
		return fmt.Errorf("%w: target is not a store in the same bucket", cryptoDomain.ErrKeyMaterialStoreMissing)
	}

	if err := s.bucket.Copy(ctx, dst.objectKey, s.objectKey, nil); err != nil {
		return storageError(err, "failed to move %s to %s", s.objectKey, dst.objectKey)
	}
	dst.materials = nil

	return s.RemoveMaterial(ctx)
}

// storageError marks err as a storage failure, keeping it in the chain so callers can
// still inspect gcerrors codes or context errors.
func storageError(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", cryptoDomain.ErrStorageIO, errors.Wrapf(err, format, args...))
}
