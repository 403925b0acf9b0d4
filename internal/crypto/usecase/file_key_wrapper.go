package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/allisson/parquet-keytools/internal/cache"
	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// FileKeyWrapper produces the key metadata of one file. It is not safe for
// concurrent use; create one per file.
type FileKeyWrapper struct {
	toolkit     *KeyToolkit
	kms         KmsClientAndDetails
	store       cryptoDomain.KeyMaterialStore
	accessToken string
	kekScope    *cache.Scope[*cryptoDomain.KeyEncryptionKey]
	keyCounter  int
}

// NewFileKeyWrapper resolves the KMS client for the configured instance and returns a
// wrapper for one file. The store is required when key material is kept externally.
func (t *KeyToolkit) NewFileKeyWrapper(
	ctx context.Context,
	store cryptoDomain.KeyMaterialStore,
	accessToken string,
) (*FileKeyWrapper, error) {
	t.evictExpiredScopes()

	accessToken = normalizeAccessToken(accessToken)
	details := KmsClientAndDetails{
		KmsInstanceID:  t.cfg.wrapperKmsInstanceID(),
		KmsInstanceURL: t.cfg.wrapperKmsInstanceURL(),
	}
	client, err := t.GetKmsClient(ctx, details.KmsInstanceID, details.KmsInstanceURL, accessToken)
	if err != nil {
		return nil, err
	}
	details.Client = client

	return t.NewFileKeyWrapperWithClient(store, details, accessToken)
}

// NewFileKeyWrapperWithClient returns a wrapper bound to an already resolved KMS
// client. Rotation uses it to re-wrap keys against the instance they were read from.
func (t *KeyToolkit) NewFileKeyWrapperWithClient(
	store cryptoDomain.KeyMaterialStore,
	details KmsClientAndDetails,
	accessToken string,
) (*FileKeyWrapper, error) {
	if !t.cfg.KeyMaterialInternal && store == nil {
		return nil, cryptoDomain.ErrKeyMaterialStoreMissing
	}

	accessToken = normalizeAccessToken(accessToken)
	return &FileKeyWrapper{
		toolkit:     t,
		kms:         details,
		store:       store,
		accessToken: accessToken,
		kekScope:    t.kekWriteScope(accessToken),
	}, nil
}

// GetEncryptionKeyMetadata wraps dek under masterKeyID and returns the metadata to
// embed in the file. Footer keys use the footer key id; column keys get sequential
// ids in call order.
func (w *FileKeyWrapper) GetEncryptionKeyMetadata(
	ctx context.Context,
	dek []byte,
	masterKeyID string,
	isFooterKey bool,
) ([]byte, error) {
	keyIDInFile := cryptoDomain.FooterKeyID
	if !isFooterKey {
		keyIDInFile = cryptoDomain.ColumnKeyIDPrefix + strconv.Itoa(w.keyCounter)
		w.keyCounter++
	}
	return w.GetEncryptionKeyMetadataForKeyID(ctx, dek, masterKeyID, isFooterKey, keyIDInFile)
}

// GetEncryptionKeyMetadataForKeyID is GetEncryptionKeyMetadata with an explicit key id.
// With external storage the material is added to the store under keyIDInFile and the
// returned metadata only references it. The caller saves the store.
func (w *FileKeyWrapper) GetEncryptionKeyMetadataForKeyID(
	ctx context.Context,
	dek []byte,
	masterKeyID string,
	isFooterKey bool,
	keyIDInFile string,
) ([]byte, error) {
	cfg := w.toolkit.cfg
	km := &cryptoDomain.KeyMaterial{
		IsFooterKey:       isFooterKey,
		KmsInstanceID:     w.kms.KmsInstanceID,
		KmsInstanceURL:    w.kms.KmsInstanceURL,
		MasterKeyID:       masterKeyID,
		IsDoubleWrapped:   cfg.DoubleWrapping,
		IsInternalStorage: cfg.KeyMaterialInternal,
	}

	if cfg.DoubleWrapping {
		sharedCtx := context.WithoutCancel(ctx)
		kek, err := w.kekScope.ComputeIfAbsent(masterKeyID, cfg.CacheLifetime, func() (*cryptoDomain.KeyEncryptionKey, error) {
			return w.createKeyEncryptionKey(sharedCtx, masterKeyID)
		})
		if err != nil {
			return nil, err
		}

		wrappedDEK, err := w.toolkit.keyCipher.WrapLocally(dek, kek.Bytes, kek.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to wrap data key with kek: %w", err)
		}
		km.KekID = kek.EncodedID
		km.EncodedWrappedKEK = kek.EncodedWrappedKEK
		km.EncodedWrappedDEK = wrappedDEK
	} else {
		wrappedDEK, err := w.kms.Client.WrapKey(ctx, dek, masterKeyID)
		if err != nil {
			return nil, fmt.Errorf("failed to wrap data key with master key %s: %w", masterKeyID, err)
		}
		km.EncodedWrappedDEK = wrappedDEK
	}

	material, err := km.Serialize()
	if err != nil {
		return nil, err
	}
	if cfg.KeyMaterialInternal {
		return material, nil
	}

	if err := w.store.AddKeyMaterial(ctx, keyIDInFile, material); err != nil {
		return nil, fmt.Errorf("failed to add key material %s: %w", keyIDInFile, err)
	}
	return cryptoDomain.SerializeExternalKeyMetadata(keyIDInFile)
}

func (w *FileKeyWrapper) createKeyEncryptionKey(
	ctx context.Context,
	masterKeyID string,
) (*cryptoDomain.KeyEncryptionKey, error) {
	kekBytes := make([]byte, w.toolkit.cfg.KekLengthBits/8)
	if _, err := rand.Read(kekBytes); err != nil {
		return nil, fmt.Errorf("failed to generate kek: %w", err)
	}

	id := uuid.New()
	kekID := id[:]

	wrappedKEK, err := w.kms.Client.WrapKey(ctx, kekBytes, masterKeyID)
	if err != nil {
		cryptoDomain.Zero(kekBytes)
		return nil, fmt.Errorf("failed to wrap kek with master key %s: %w", masterKeyID, err)
	}

	w.toolkit.logger.Debug("kek created",
		slog.String("master_key_id", masterKeyID),
		slog.String("access_token", formatTokenForLog(w.accessToken)),
	)

	return &cryptoDomain.KeyEncryptionKey{
		Bytes:             kekBytes,
		ID:                kekID,
		EncodedID:         base64.StdEncoding.EncodeToString(kekID),
		EncodedWrappedKEK: wrappedKEK,
	}, nil
}
