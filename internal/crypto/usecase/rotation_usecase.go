package usecase

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

// rotationUseCase implements RotationUseCase.
type rotationUseCase struct {
	toolkit      *KeyToolkit
	storeFactory cryptoDomain.KeyMaterialStoreFactory
	fileLister   cryptoDomain.FileLister
	logger       *slog.Logger
}

// NewRotationUseCase creates a RotationUseCase over external key material.
func NewRotationUseCase(
	toolkit *KeyToolkit,
	storeFactory cryptoDomain.KeyMaterialStoreFactory,
	fileLister cryptoDomain.FileLister,
	logger *slog.Logger,
) RotationUseCase {
	return &rotationUseCase{
		toolkit:      toolkit,
		storeFactory: storeFactory,
		fileLister:   fileLister,
		logger:       logger,
	}
}

// RotateMasterKeys re-wraps every key of every file in folder under the latest
// versions of the same master key ids. Each file is committed on its own by moving
// its temporary material over the current one. A failing file does not stop the
// others; the failures are reported in the result and in the returned error.
func (r *rotationUseCase) RotateMasterKeys(
	ctx context.Context,
	folder, accessToken string,
) (*cryptoDomain.RotationResult, error) {
	if r.toolkit.cfg.KeyMaterialInternal {
		return nil, cryptoDomain.ErrInternalKeyMaterialRotation
	}
	if r.storeFactory == nil || r.fileLister == nil {
		return nil, cryptoDomain.ErrKeyMaterialStoreMissing
	}

	accessToken = normalizeAccessToken(accessToken)
	if r.toolkit.CleanKEKWriteCacheForRotation() {
		r.logger.Info("kek write cache cleared for rotation")
	}

	files, err := r.fileLister.ListFiles(ctx, folder)
	if err != nil {
		return nil, err
	}

	result := &cryptoDomain.RotationResult{Folder: folder}
	var fileErrs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := r.rotateFile(ctx, file, accessToken); err != nil {
			r.logger.Error("failed to rotate file keys",
				slog.String("file", file),
				slog.Any("error", err),
			)
			result.Failures = append(result.Failures, cryptoDomain.FileRotationFailure{File: file, Err: err})
			fileErrs = append(fileErrs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		result.RotatedFiles = append(result.RotatedFiles, file)
	}

	r.logger.Info("master key rotation finished",
		slog.String("folder", folder),
		slog.Int("rotated", len(result.RotatedFiles)),
		slog.Int("failed", len(result.Failures)),
	)

	if len(fileErrs) > 0 {
		return result, fmt.Errorf(
			"%w: %d of %d files failed: %w",
			cryptoDomain.ErrRotationFailed,
			len(fileErrs),
			len(files),
			errors.Join(fileErrs...),
		)
	}
	return result, nil
}

func (r *rotationUseCase) rotateFile(ctx context.Context, file, accessToken string) (err error) {
	store, err := r.storeFactory.Open(ctx, file, false)
	if err != nil {
		return fmt.Errorf("failed to open key material store: %w", err)
	}
	tempStore, err := r.storeFactory.Open(ctx, file, true)
	if err != nil {
		return fmt.Errorf("failed to open temporary key material store: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if removeErr := tempStore.RemoveMaterial(ctx); removeErr != nil {
			r.logger.Warn("failed to remove temporary key material",
				slog.String("file", file),
				slog.Any("error", removeErr),
			)
		}
	}()

	keyIDs, err := store.KeyIDs(ctx)
	if err != nil {
		return err
	}

	unwrapper := r.toolkit.NewFileKeyUnwrapper(store, accessToken)

	footer, err := r.unwrapMaterial(ctx, unwrapper, store, cryptoDomain.FooterKeyID)
	if err != nil {
		return err
	}
	defer footer.Zero()

	wrapper, err := r.toolkit.NewFileKeyWrapperWithClient(tempStore, *unwrapper.KmsClientAndDetails(), accessToken)
	if err != nil {
		return err
	}
	if _, err := wrapper.GetEncryptionKeyMetadataForKeyID(
		ctx, footer.DataKey, footer.MasterID, true, cryptoDomain.FooterKeyID,
	); err != nil {
		return err
	}

	for _, keyID := range keyIDs {
		if keyID == cryptoDomain.FooterKeyID {
			continue
		}
		if err := r.rewrapColumnKey(ctx, unwrapper, wrapper, store, keyID); err != nil {
			return err
		}
	}

	if err := tempStore.SaveMaterial(ctx); err != nil {
		return err
	}
	if err := tempStore.MoveMaterialTo(ctx, store); err != nil {
		return err
	}

	r.logger.Debug("file keys rotated",
		slog.String("file", file),
		slog.Int("keys", len(keyIDs)),
	)
	return nil
}

func (r *rotationUseCase) rewrapColumnKey(
	ctx context.Context,
	unwrapper *FileKeyUnwrapper,
	wrapper *FileKeyWrapper,
	store cryptoDomain.KeyMaterialStore,
	keyID string,
) error {
	key, err := r.unwrapMaterial(ctx, unwrapper, store, keyID)
	if err != nil {
		return err
	}
	defer key.Zero()

	_, err = wrapper.GetEncryptionKeyMetadataForKeyID(ctx, key.DataKey, key.MasterID, false, keyID)
	return err
}

func (r *rotationUseCase) unwrapMaterial(
	ctx context.Context,
	unwrapper *FileKeyUnwrapper,
	store cryptoDomain.KeyMaterialStore,
	keyID string,
) (*cryptoDomain.KeyWithMasterID, error) {
	material, err := store.GetKeyMaterial(ctx, keyID)
	if err != nil {
		return nil, err
	}
	km, err := cryptoDomain.ParseKeyMaterial(material)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", keyID, err)
	}
	key, err := unwrapper.GetDEKAndMasterID(ctx, km)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", keyID, err)
	}
	return key, nil
}
