//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/easemail/easemail-backend/internal/database"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresIntegrationTestSuite runs the repositories against a real PostgreSQL
type PostgresIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	db        *gorm.DB
	ctx       context.Context
}

// SetupSuite starts the PostgreSQL container and migrates the schema
func (s *PostgresIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "easemail_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=easemail_test sslmode=disable", host, port.Port())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	s.db = db

	require.NoError(s.T(), database.Migrate(db))
}

// TearDownSuite stops the container
func (s *PostgresIntegrationTestSuite) TearDownSuite() {
	if s.db != nil {
		_ = database.Close(s.db)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

// SetupTest clears every table
func (s *PostgresIntegrationTestSuite) SetupTest() {
	s.db.Exec("TRUNCATE spam_reports, snoozed_emails, scheduled_emails, folder_mappings, email_accounts CASCADE")
}

// TestPostgresIntegrationTestSuite runs the suite
func TestPostgresIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationTestSuite))
}

func (s *PostgresIntegrationTestSuite) TestAccountCascadeDelete() {
	accounts := NewAccountRepository(s.db)
	account := &models.EmailAccount{UserID: "u1", Provider: "google", EmailAddress: "a@example.com", GrantID: "g1"}
	_, err := accounts.Upsert(s.ctx, account)
	s.Require().NoError(err)

	s.Require().NoError(NewSnoozeRepository(s.db).Create(s.ctx, &models.SnoozedEmail{
		UserID: "u1", AccountID: account.ID, MessageID: "m1", SnoozeUntil: time.Now().Add(time.Hour),
	}))

	s.Require().NoError(accounts.Delete(s.ctx, "u1", account.ID))

	var count int64
	s.db.Model(&models.SnoozedEmail{}).Count(&count)
	s.Zero(count)
}

func (s *PostgresIntegrationTestSuite) TestFolderMappingUpsertOnConflict() {
	account := &models.EmailAccount{UserID: "u1", Provider: "google", EmailAddress: "a@example.com", GrantID: "g1"}
	_, err := NewAccountRepository(s.db).Upsert(s.ctx, account)
	s.Require().NoError(err)

	repo := NewFolderMappingRepository(s.db)
	s.Require().NoError(repo.ReplaceForAccount(s.ctx, account.ID, []models.FolderMapping{
		{UserID: "u1", FolderName: "inbox", ProviderFolderID: "INBOX", UnreadCount: 1},
	}))
	s.Require().NoError(repo.ReplaceForAccount(s.ctx, account.ID, []models.FolderMapping{
		{UserID: "u1", FolderName: "inbox", ProviderFolderID: "INBOX", UnreadCount: 5},
	}))

	mappings, err := repo.ListByAccount(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Len(mappings, 1)
	s.Equal(5, mappings[0].UnreadCount)
}

// Concurrent terminal transitions on one record must produce exactly one winner.
func (s *PostgresIntegrationTestSuite) TestScheduledEmailSingleTerminalTransition() {
	account := &models.EmailAccount{UserID: "u1", Provider: "google", EmailAddress: "a@example.com", GrantID: "g1"}
	_, err := NewAccountRepository(s.db).Upsert(s.ctx, account)
	s.Require().NoError(err)

	repo := NewScheduledEmailRepository(s.db)
	email := &models.ScheduledEmail{
		UserID: "u1", AccountID: account.ID, Subject: "s",
		To: []models.Recipient{{Email: "b@example.com"}}, ScheduledFor: time.Now().Add(-time.Minute),
	}
	s.Require().NoError(repo.Create(s.ctx, email))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results <- repo.MarkSent(s.ctx, email.ID, "msg", time.Now())
			} else {
				results <- repo.MarkFailed(s.ctx, email.ID, "boom", time.Now())
			}
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else {
			s.ErrorIs(err, ErrNotPending)
		}
	}
	s.Equal(1, winners)
}
