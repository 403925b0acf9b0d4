package repository

import (
	"database/sql"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/database"
)

var mySQLKeyMaterialQueries = keyMaterialQueries{
	get: `SELECT material FROM key_materials
		  WHERE file_location = ? AND temporary = ? AND key_id = ?`,
	keyIDs: `SELECT key_id FROM key_materials
			 WHERE file_location = ? AND temporary = ? ORDER BY key_id`,
	insert: `INSERT INTO key_materials (file_location, temporary, key_id, material, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
	delete: `DELETE FROM key_materials WHERE file_location = ? AND temporary = ?`,
	promote: `UPDATE key_materials SET temporary = ?
			  WHERE file_location = ? AND temporary = ?`,
}

// NewMySQLKeyMaterialStoreFactory creates a factory for stores in a MySQL
// key_materials table. Writes run inside txManager transactions.
func NewMySQLKeyMaterialStoreFactory(
	db *sql.DB,
	txManager database.TxManager,
) cryptoDomain.KeyMaterialStoreFactory {
	return &sqlKeyMaterialStoreFactory{
		db:        db,
		txManager: txManager,
		queries:   mySQLKeyMaterialQueries,
	}
}
