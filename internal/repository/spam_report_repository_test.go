package repository

import (
	"context"
	"testing"

	"github.com/easemail/easemail-backend/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// SpamReportRepositoryTestSuite is the test suite for SpamReportRepository
type SpamReportRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo SpamReportRepository
	ctx  context.Context
}

// SetupTest runs before each test with a fresh database
func (s *SpamReportRepositoryTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.repo = NewSpamReportRepository(s.db)
	s.ctx = context.Background()
}

// TestSpamReportRepositoryTestSuite runs the test suite
func TestSpamReportRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(SpamReportRepositoryTestSuite))
}

func (s *SpamReportRepositoryTestSuite) TestCreate_IsIdempotent() {
	first := &models.SpamReport{UserID: "user-1", SenderEmail: "promo@deals.example"}
	second := &models.SpamReport{UserID: "user-1", SenderEmail: "promo@deals.example"}

	s.NoError(s.repo.Create(s.ctx, first))
	s.NoError(s.repo.Create(s.ctx, second))

	s.Equal(first.ID, second.ID)
	_, total, err := s.repo.ListByUser(s.ctx, "user-1", 20, 0)
	s.NoError(err)
	s.Equal(int64(1), total)
}

func (s *SpamReportRepositoryTestSuite) TestIsReported_ScopedToUser() {
	s.NoError(s.repo.Create(s.ctx, &models.SpamReport{UserID: "user-1", SenderEmail: "promo@deals.example"}))

	reported, err := s.repo.IsReported(s.ctx, "user-1", "promo@deals.example")
	s.NoError(err)
	s.True(reported)

	reported, err = s.repo.IsReported(s.ctx, "user-2", "promo@deals.example")
	s.NoError(err)
	s.False(reported)
}

func (s *SpamReportRepositoryTestSuite) TestDelete() {
	report := &models.SpamReport{UserID: "user-1", SenderEmail: "promo@deals.example"}
	s.NoError(s.repo.Create(s.ctx, report))

	s.ErrorIs(s.repo.Delete(s.ctx, "user-2", report.ID), ErrNotFound)
	s.NoError(s.repo.Delete(s.ctx, "user-1", report.ID))

	reported, _ := s.repo.IsReported(s.ctx, "user-1", "promo@deals.example")
	s.False(reported)
}
