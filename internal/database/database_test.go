package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		_, mock, err := sqlmock.NewWithDSN("keytools-connect-ok", sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		mock.ExpectPing()

		db, err := Connect(ctx, Config{
			Driver:             "sqlmock",
			ConnectionString:   "keytools-connect-ok",
			MaxOpenConnections: 5,
			MaxIdleConnections: 2,
			ConnMaxLifetime:    time.Minute,
		})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()

		assert.Equal(t, 5, db.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping failure", func(t *testing.T) {
		_, mock, err := sqlmock.NewWithDSN("keytools-connect-fail", sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		mock.ExpectPing().WillReturnError(assert.AnError)

		db, err := Connect(ctx, Config{Driver: "sqlmock", ConnectionString: "keytools-connect-fail"})
		assert.Nil(t, db)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to ping database")
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Connect(ctx, Config{Driver: "unknown"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open database")
	})
}
