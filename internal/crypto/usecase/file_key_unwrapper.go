package usecase

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/allisson/parquet-keytools/internal/cache"
	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// FileKeyUnwrapper recovers the data keys of one file. The KMS client is resolved
// from the first key unwrapped, which must be the footer key when the KMS instance is
// not configured. It is not safe for concurrent use.
type FileKeyUnwrapper struct {
	toolkit     *KeyToolkit
	store       cryptoDomain.KeyMaterialStore
	accessToken string
	kekScope    *cache.Scope[[]byte]
	kms         *KmsClientAndDetails
}

// NewFileKeyUnwrapper returns an unwrapper for one file. store may be nil when every
// key of the file is stored internally.
func (t *KeyToolkit) NewFileKeyUnwrapper(store cryptoDomain.KeyMaterialStore, accessToken string) *FileKeyUnwrapper {
	t.evictExpiredScopes()

	accessToken = normalizeAccessToken(accessToken)
	return &FileKeyUnwrapper{
		toolkit:     t,
		store:       store,
		accessToken: accessToken,
		kekScope:    t.kekReadScope(accessToken),
	}
}

// GetKey parses keyMetadata, loading external material from the store, and returns
// the data key with its master key id.
func (u *FileKeyUnwrapper) GetKey(ctx context.Context, keyMetadata []byte) (*cryptoDomain.KeyWithMasterID, error) {
	metadata, err := cryptoDomain.ParseKeyMetadata(keyMetadata)
	if err != nil {
		return nil, err
	}

	km := metadata.KeyMaterial
	if !metadata.IsInternalStorage {
		if u.store == nil {
			return nil, cryptoDomain.ErrKeyMaterialStoreMissing
		}
		material, err := u.store.GetKeyMaterial(ctx, metadata.KeyReference)
		if err != nil {
			return nil, err
		}
		km, err = cryptoDomain.ParseKeyMaterial(material)
		if err != nil {
			return nil, err
		}
	}

	return u.GetDEKAndMasterID(ctx, km)
}

// GetDEKAndMasterID unwraps the data key described by km.
func (u *FileKeyUnwrapper) GetDEKAndMasterID(
	ctx context.Context,
	km *cryptoDomain.KeyMaterial,
) (*cryptoDomain.KeyWithMasterID, error) {
	if err := u.resolveKmsClient(ctx, km); err != nil {
		return nil, err
	}
	client := u.kms.Client

	if !km.IsDoubleWrapped {
		dek, err := client.UnwrapKey(ctx, km.EncodedWrappedDEK, km.MasterKeyID)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap data key with master key %s: %w", km.MasterKeyID, err)
		}
		return &cryptoDomain.KeyWithMasterID{DataKey: dek, MasterID: km.MasterKeyID}, nil
	}

	kekID, err := base64.StdEncoding.DecodeString(km.KekID)
	if err != nil {
		return nil, fmt.Errorf("%w: kek id is not base64: %v", cryptoDomain.ErrMalformedKeyMaterial, err)
	}

	cfg := u.toolkit.cfg
	sharedCtx := context.WithoutCancel(ctx)
	kekBytes, err := u.kekScope.ComputeIfAbsent(km.KekID, cfg.CacheLifetime, func() ([]byte, error) {
		return client.UnwrapKey(sharedCtx, km.EncodedWrappedKEK, km.MasterKeyID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap kek with master key %s: %w", km.MasterKeyID, err)
	}

	dek, err := u.toolkit.keyCipher.UnwrapLocally(km.EncodedWrappedDEK, kekBytes, kekID)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data key with kek: %w", err)
	}
	return &cryptoDomain.KeyWithMasterID{DataKey: dek, MasterID: km.MasterKeyID}, nil
}

// KmsClientAndDetails returns the resolved KMS client, or nil before the first key.
func (u *FileKeyUnwrapper) KmsClientAndDetails() *KmsClientAndDetails {
	return u.kms
}

func (u *FileKeyUnwrapper) resolveKmsClient(ctx context.Context, km *cryptoDomain.KeyMaterial) error {
	if u.kms != nil {
		return nil
	}

	cfg := u.toolkit.cfg
	kmsInstanceID := cfg.KmsInstanceID
	if kmsInstanceID == "" {
		kmsInstanceID = km.KmsInstanceID
		if kmsInstanceID == "" {
			return cryptoDomain.ErrKmsInstanceIDMissing
		}
	}
	kmsInstanceURL := cfg.KmsInstanceURL
	if kmsInstanceURL == "" {
		kmsInstanceURL = km.KmsInstanceURL
		if kmsInstanceURL == "" {
			return cryptoDomain.ErrKmsInstanceURLMissing
		}
	}

	client, err := u.toolkit.GetKmsClient(ctx, kmsInstanceID, kmsInstanceURL, u.accessToken)
	if err != nil {
		return err
	}
	u.kms = &KmsClientAndDetails{Client: client, KmsInstanceID: kmsInstanceID, KmsInstanceURL: kmsInstanceURL}
	return nil
}
