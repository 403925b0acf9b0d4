package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

// keyUseCase implements KeyUseCase.
type keyUseCase struct {
	toolkit      *KeyToolkit
	storeFactory cryptoDomain.KeyMaterialStoreFactory
}

// NewKeyUseCase creates a KeyUseCase. storeFactory may be nil when key material is
// always stored internally.
func NewKeyUseCase(toolkit *KeyToolkit, storeFactory cryptoDomain.KeyMaterialStoreFactory) KeyUseCase {
	return &keyUseCase{
		toolkit:      toolkit,
		storeFactory: storeFactory,
	}
}

// GenerateFileKeys creates a footer key and one key per column, wrapping each under
// its master key. Column ids are assigned in column name order.
func (k *keyUseCase) GenerateFileKeys(
	ctx context.Context,
	input *cryptoDomain.GenerateFileKeysInput,
) (*cryptoDomain.GenerateFileKeysOutput, error) {
	if input.FooterMasterKeyID == "" {
		return nil, fmt.Errorf("%w: footer master key id is required", errors.ErrInvalidInput)
	}

	store, err := k.openStore(ctx, input.FileLocation)
	if err != nil {
		return nil, err
	}

	wrapper, err := k.toolkit.NewFileKeyWrapper(ctx, store, input.AccessToken)
	if err != nil {
		return nil, err
	}

	footerKey, err := k.generateFileKey(ctx, wrapper, input.FooterMasterKeyID, true)
	if err != nil {
		return nil, err
	}

	output := &cryptoDomain.GenerateFileKeysOutput{
		FooterKey:  *footerKey,
		ColumnKeys: make(map[string]cryptoDomain.FileKey, len(input.ColumnMasterKeyIDs)),
	}
	for _, column := range sortedKeys(input.ColumnMasterKeyIDs) {
		masterKeyID := input.ColumnMasterKeyIDs[column]
		if masterKeyID == "" {
			zeroFileKeys(output)
			return nil, fmt.Errorf("%w: master key id of column %s is required", errors.ErrInvalidInput, column)
		}
		columnKey, err := k.generateFileKey(ctx, wrapper, masterKeyID, false)
		if err != nil {
			zeroFileKeys(output)
			return nil, err
		}
		output.ColumnKeys[column] = *columnKey
	}

	if store != nil {
		if err := store.SaveMaterial(ctx); err != nil {
			zeroFileKeys(output)
			return nil, fmt.Errorf("failed to save key material of %s: %w", input.FileLocation, err)
		}
	}
	return output, nil
}

func (k *keyUseCase) generateFileKey(
	ctx context.Context,
	wrapper *FileKeyWrapper,
	masterKeyID string,
	isFooterKey bool,
) (*cryptoDomain.FileKey, error) {
	dek := make([]byte, k.toolkit.cfg.DataKeyLengthBits/8)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	metadata, err := wrapper.GetEncryptionKeyMetadata(ctx, dek, masterKeyID, isFooterKey)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, err
	}
	return &cryptoDomain.FileKey{KeyMetadata: metadata, DataKey: dek}, nil
}

// zeroFileKeys wipes the data keys of a partially generated output.
func zeroFileKeys(output *cryptoDomain.GenerateFileKeysOutput) {
	cryptoDomain.Zero(output.FooterKey.DataKey)
	for _, key := range output.ColumnKeys {
		cryptoDomain.Zero(key.DataKey)
	}
}

// UnwrapFileKeys recovers the footer key and then every column key.
func (k *keyUseCase) UnwrapFileKeys(
	ctx context.Context,
	input *cryptoDomain.UnwrapFileKeysInput,
) (*cryptoDomain.UnwrapFileKeysOutput, error) {
	if len(input.FooterKeyMetadata) == 0 {
		return nil, fmt.Errorf("%w: footer key metadata is required", errors.ErrInvalidInput)
	}

	var store cryptoDomain.KeyMaterialStore
	if input.FileLocation != "" && k.storeFactory != nil {
		var err error
		store, err = k.storeFactory.Open(ctx, input.FileLocation, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open key material store of %s: %w", input.FileLocation, err)
		}
	}

	unwrapper := k.toolkit.NewFileKeyUnwrapper(store, input.AccessToken)

	footerKey, err := unwrapper.GetKey(ctx, input.FooterKeyMetadata)
	if err != nil {
		return nil, err
	}

	output := &cryptoDomain.UnwrapFileKeysOutput{
		FooterKey:  footerKey,
		ColumnKeys: make(map[string]*cryptoDomain.KeyWithMasterID, len(input.ColumnKeyMetadata)),
	}
	for _, column := range sortedKeys(input.ColumnKeyMetadata) {
		columnKey, err := unwrapper.GetKey(ctx, input.ColumnKeyMetadata[column])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", column, err)
		}
		output.ColumnKeys[column] = columnKey
	}
	return output, nil
}

// RevokeToken drops the cache entries of accessToken.
func (k *keyUseCase) RevokeToken(ctx context.Context, accessToken string) error {
	k.toolkit.RemoveCacheEntriesForToken(normalizeAccessToken(accessToken))
	return nil
}

// RevokeAllTokens drops the cache entries of every token.
func (k *keyUseCase) RevokeAllTokens(ctx context.Context) error {
	k.toolkit.RemoveCacheEntriesForAllTokens()
	return nil
}

func (k *keyUseCase) openStore(ctx context.Context, fileLocation string) (cryptoDomain.KeyMaterialStore, error) {
	if k.toolkit.cfg.KeyMaterialInternal {
		return nil, nil
	}
	if fileLocation == "" {
		return nil, fmt.Errorf("%w: file location is required for external key material", errors.ErrInvalidInput)
	}
	if k.storeFactory == nil {
		return nil, cryptoDomain.ErrKeyMaterialStoreMissing
	}

	store, err := k.storeFactory.Open(ctx, fileLocation, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open key material store of %s: %w", fileLocation, err)
	}
	return store, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
