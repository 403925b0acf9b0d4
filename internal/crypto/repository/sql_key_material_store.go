package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/database"
	apperrors "github.com/allisson/parquet-keytools/internal/errors"
)

// keyMaterialQueries holds the dialect specific statements on the key_materials table:
//   - file_location: data file the material belongs to
//   - temporary: true for the rotation sibling store
//   - key_id: key id inside the file (footerKey, columnKey1, ...)
//   - material: serialized key material
//   - created_at: insertion time
type keyMaterialQueries struct {
	get     string
	keyIDs  string
	insert  string
	delete  string
	promote string
}

// sqlKeyMaterialStoreFactory opens key_materials backed stores.
type sqlKeyMaterialStoreFactory struct {
	db        *sql.DB
	txManager database.TxManager
	queries   keyMaterialQueries
}

func (f *sqlKeyMaterialStoreFactory) Open(
	ctx context.Context,
	fileLocation string,
	temporary bool,
) (cryptoDomain.KeyMaterialStore, error) {
	if fileLocation == "" {
		return nil, fmt.Errorf("%w: empty file location", cryptoDomain.ErrKeyMaterialStoreMissing)
	}
	return &SQLKeyMaterialStore{
		factory:      f,
		fileLocation: fileLocation,
		temporary:    temporary,
		pending:      make(map[string]string),
	}, nil
}

// SQLKeyMaterialStore keeps a file's key material as one row per key id.
//
// All rows of a file are replaced inside one transaction on SaveMaterial, and
// MoveMaterialTo swaps the temporary rows in atomically.
type SQLKeyMaterialStore struct {
	factory      *sqlKeyMaterialStoreFactory
	fileLocation string
	temporary    bool
	pending      map[string]string
}

func (s *SQLKeyMaterialStore) AddKeyMaterial(ctx context.Context, keyIDInFile string, keyMaterial []byte) error {
	s.pending[keyIDInFile] = string(keyMaterial)
	return nil
}

func (s *SQLKeyMaterialStore) GetKeyMaterial(ctx context.Context, keyIDInFile string) ([]byte, error) {
	querier := database.GetTx(ctx, s.factory.db)

	var material string
	err := querier.QueryRowContext(ctx, s.factory.queries.get, s.fileLocation, s.temporary, keyIDInFile).
		Scan(&material)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf(
				"%w: key %s of %s",
				cryptoDomain.ErrKeyMaterialNotFound,
				keyIDInFile,
				s.fileLocation,
			)
		}
		return nil, apperrors.Wrap(err, "failed to get key material")
	}
	return []byte(material), nil
}

func (s *SQLKeyMaterialStore) KeyIDs(ctx context.Context) ([]string, error) {
	querier := database.GetTx(ctx, s.factory.db)

	rows, err := querier.QueryContext(ctx, s.factory.queries.keyIDs, s.fileLocation, s.temporary)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list key ids")
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key ids")
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no key material for %s", cryptoDomain.ErrKeyMaterialNotFound, s.fileLocation)
	}
	return ids, nil
}

func (s *SQLKeyMaterialStore) SaveMaterial(ctx context.Context) error {
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return s.factory.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, s.factory.db)

		if _, err := querier.ExecContext(ctx, s.factory.queries.delete, s.fileLocation, s.temporary); err != nil {
			return apperrors.Wrap(err, "failed to clear key material")
		}

		now := time.Now().UTC()
		for _, id := range ids {
			_, err := querier.ExecContext(
				ctx,
				s.factory.queries.insert,
				s.fileLocation,
				s.temporary,
				id,
				s.pending[id],
				now,
			)
			if err != nil {
				return apperrors.Wrap(err, "failed to insert key material")
			}
		}
		return nil
	})
}

func (s *SQLKeyMaterialStore) RemoveMaterial(ctx context.Context) error {
	querier := database.GetTx(ctx, s.factory.db)

	if _, err := querier.ExecContext(ctx, s.factory.queries.delete, s.fileLocation, s.temporary); err != nil {
		return apperrors.Wrap(err, "failed to remove key material")
	}
	return nil
}

// MoveMaterialTo deletes the target rows and relabels this store's rows in one transaction.
func (s *SQLKeyMaterialStore) MoveMaterialTo(ctx context.Context, target cryptoDomain.KeyMaterialStore) error {
	dst, ok := target.(*SQLKeyMaterialStore)
	if !ok || dst.factory != s.factory || dst.fileLocation != s.fileLocation {
		return fmt.Errorf("%w: target is not a store of the same file", cryptoDomain.ErrKeyMaterialStoreMissing)
	}

	return s.factory.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, s.factory.db)

		if _, err := querier.ExecContext(ctx, s.factory.queries.delete, dst.fileLocation, dst.temporary); err != nil {
			return apperrors.Wrap(err, "failed to clear target key material")
		}
		_, err := querier.ExecContext(ctx, s.factory.queries.promote, dst.temporary, s.fileLocation, s.temporary)
		if err != nil {
			return apperrors.Wrap(err, "failed to move key material")
		}
		return nil
	})
}
