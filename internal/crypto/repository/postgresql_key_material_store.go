package repository

import (
	"database/sql"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/database"
)

var postgreSQLKeyMaterialQueries = keyMaterialQueries{
	get: `SELECT material FROM key_materials
		  WHERE file_location = $1 AND temporary = $2 AND key_id = $3`,
	keyIDs: `SELECT key_id FROM key_materials
			 WHERE file_location = $1 AND temporary = $2 ORDER BY key_id`,
	insert: `INSERT INTO key_materials (file_location, temporary, key_id, material, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
	delete: `DELETE FROM key_materials WHERE file_location = $1 AND temporary = $2`,
	promote: `UPDATE key_materials SET temporary = $1
			  WHERE file_location = $2 AND temporary = $3`,
}

// NewPostgreSQLKeyMaterialStoreFactory creates a factory for stores in a PostgreSQL
// key_materials table. Writes run inside txManager transactions.
func NewPostgreSQLKeyMaterialStoreFactory(
	db *sql.DB,
	txManager database.TxManager,
) cryptoDomain.KeyMaterialStoreFactory {
	return &sqlKeyMaterialStoreFactory{
		db:        db,
		txManager: txManager,
		queries:   postgreSQLKeyMaterialQueries,
	}
}
