package repository

import (
	"context"
	"testing"

	"github.com/easemail/easemail-backend/internal/database"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database and the foreign key pragma shared.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	// Enable foreign keys for SQLite (required for cascade delete)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createAccount(t *testing.T, db *gorm.DB, userID, email string) *models.EmailAccount {
	t.Helper()
	account := &models.EmailAccount{
		UserID:       userID,
		Provider:     "google",
		EmailAddress: email,
		GrantID:      "grant-" + email,
	}
	_, err := NewAccountRepository(db).Upsert(context.Background(), account)
	require.NoError(t, err)
	return account
}
