package folders

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/mocks"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ResolverTestSuite struct {
	suite.Suite
	accounts *mocks.MockAccountRepository
	mappings *mocks.MockFolderMappingRepository
	client   *mocks.MockProviderClient
	resolver *Resolver
	ctx      context.Context
}

func (s *ResolverTestSuite) SetupTest() {
	s.accounts = new(mocks.MockAccountRepository)
	s.mappings = new(mocks.MockFolderMappingRepository)
	s.client = new(mocks.MockProviderClient)
	s.resolver = NewResolver(s.accounts, s.mappings, s.client, logger.Discard())
	s.ctx = context.Background()
}

func (s *ResolverTestSuite) TearDownTest() {
	s.accounts.AssertExpectations(s.T())
	s.mappings.AssertExpectations(s.T())
	s.client.AssertExpectations(s.T())
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

var primary = &models.EmailAccount{ID: "acc-1", UserID: "user-1", GrantID: "grant-1", IsPrimary: true}

func (s *ResolverTestSuite) TestResolve_EmptyTokenMeansNoFilter() {
	res, err := s.resolver.Resolve(s.ctx, "user-1", "", "   ")

	s.Require().NoError(err)
	s.Equal(StrategyNone, res.Strategy)
	s.Empty(res.FolderIDs)
}

func (s *ResolverTestSuite) TestResolve_MappingByAliasAcrossAccounts() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{
		{AccountID: "acc-1", FolderName: "spam", ProviderFolderID: "SPAM"},
		{AccountID: "acc-2", FolderName: "spam", ProviderFolderID: "JunkEmail"},
		{AccountID: "acc-2", FolderName: "inbox", ProviderFolderID: "Inbox"},
	}, nil)

	res, err := s.resolver.Resolve(s.ctx, "user-1", "", "Junk")

	s.Require().NoError(err)
	s.Equal(StrategyMapping, res.Strategy)
	s.Equal([]string{"SPAM", "JunkEmail"}, res.FolderIDs)
}

func (s *ResolverTestSuite) TestResolve_MappingScopedToAccount() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{
		{AccountID: "acc-1", FolderName: "inbox", ProviderFolderID: "INBOX"},
		{AccountID: "acc-2", FolderName: "inbox", ProviderFolderID: "Inbox"},
	}, nil)

	res, err := s.resolver.Resolve(s.ctx, "user-1", "acc-2", "INBOX")

	s.Require().NoError(err)
	s.Equal([]string{"Inbox"}, res.FolderIDs)
}

func (s *ResolverTestSuite) TestResolve_MappingByDisplayName() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{
		{AccountID: "acc-1", FolderName: "receipts", DisplayName: "Receipts", ProviderFolderID: "Label_9"},
	}, nil)

	res, err := s.resolver.Resolve(s.ctx, "user-1", "", "receipts")

	s.Require().NoError(err)
	s.Equal([]string{"Label_9"}, res.FolderIDs)
}

func (s *ResolverTestSuite) TestResolve_FallsBackToProviderFolders() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{}, nil)
	s.accounts.On("GetPrimary", s.ctx, "user-1").Return(primary, nil)
	s.client.On("ListFolders", s.ctx, "grant-1").Return([]provider.Folder{
		{ID: "AAMk1", Name: "Sent Items", Attributes: []string{`\Sent`}},
		{ID: "AAMk2", Name: "Inbox", Attributes: []string{`\Inbox`}},
	}, nil)

	res, err := s.resolver.Resolve(s.ctx, "user-1", "", "sent")

	s.Require().NoError(err)
	s.Equal(StrategyProvider, res.Strategy)
	s.Equal([]string{"AAMk1"}, res.FolderIDs)
}

func (s *ResolverTestSuite) TestResolve_ProviderLookupUsesRequestedAccount() {
	acct := &models.EmailAccount{ID: "acc-2", UserID: "user-1", GrantID: "grant-2"}
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{}, nil)
	s.accounts.On("GetForUser", s.ctx, "user-1", "acc-2").Return(acct, nil)
	s.client.On("ListFolders", s.ctx, "grant-2").Return([]provider.Folder{
		{ID: "Label_7", Name: "Travel"},
	}, nil)

	res, err := s.resolver.Resolve(s.ctx, "user-1", "acc-2", "travel")

	s.Require().NoError(err)
	s.Equal([]string{"Label_7"}, res.FolderIDs)
}

func (s *ResolverTestSuite) TestResolve_LiteralFolderID() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{}, nil)
	s.accounts.On("GetPrimary", s.ctx, "user-1").Return(nil, apperrors.ErrAccountNotFound)

	res, err := s.resolver.Resolve(s.ctx, "user-1", "", "Label_12-abc")

	s.Require().NoError(err)
	s.Equal(StrategyLiteral, res.Strategy)
	s.Equal([]string{"Label_12-abc"}, res.FolderIDs)
}

func (s *ResolverTestSuite) TestResolve_LiteralWinsOverProviderError() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{}, nil)
	s.accounts.On("GetPrimary", s.ctx, "user-1").Return(primary, nil)
	s.client.On("ListFolders", s.ctx, "grant-1").Return(nil, &provider.Error{Kind: provider.KindServer, Status: 503})

	res, err := s.resolver.Resolve(s.ctx, "user-1", "", "AQMkADAwATM0MDAAMS1iNTcwLWI2NTEtMDACLTAwCgAuAAAD")

	s.Require().NoError(err)
	s.Equal(StrategyLiteral, res.Strategy)
}

func (s *ResolverTestSuite) TestResolve_UnknownTokenIsNotFound() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{
		{AccountID: "acc-1", FolderName: "inbox", ProviderFolderID: "INBOX"},
	}, nil)
	s.accounts.On("GetPrimary", s.ctx, "user-1").Return(primary, nil)
	s.client.On("ListFolders", s.ctx, "grant-1").Return([]provider.Folder{{ID: "INBOX", Name: "INBOX"}}, nil)

	res, err := s.resolver.Resolve(s.ctx, "user-1", "", "receipts")

	s.Nil(res)
	s.True(errors.Is(err, apperrors.ErrFolderNotFound))
	s.Contains(err.Error(), "receipts")
}

func (s *ResolverTestSuite) TestResolve_ProviderErrorSurfacesForShortTokens() {
	providerErr := &provider.Error{Kind: provider.KindAuth, Status: 401, Message: "grant expired"}
	s.mappings.On("ListByUser", s.ctx, "user-1").Return([]models.FolderMapping{}, nil)
	s.accounts.On("GetPrimary", s.ctx, "user-1").Return(primary, nil)
	s.client.On("ListFolders", s.ctx, "grant-1").Return(nil, providerErr)

	_, err := s.resolver.Resolve(s.ctx, "user-1", "", "receipts")

	s.ErrorIs(err, providerErr)
	s.Equal(provider.KindAuth, provider.KindOf(err))
}

func (s *ResolverTestSuite) TestResolve_MappingLookupFailure() {
	s.mappings.On("ListByUser", s.ctx, "user-1").Return(nil, errors.New("db down"))

	_, err := s.resolver.Resolve(s.ctx, "user-1", "", "inbox")

	s.EqualError(err, "db down")
	s.accounts.AssertNotCalled(s.T(), "GetPrimary", mock.Anything, mock.Anything)
}

func TestLooksLikeFolderID(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"inbox", false},
		{"Label_12", false},
		{"Label_12-abc", true},
		{"exactly20characters!", false},
		{"twenty-one characters", true},
		{"AQMkADAwATM0MDAAMS1iNTcw", true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeFolderID(tt.token))
		})
	}
}

func TestCanonicalAlias(t *testing.T) {
	assert.Equal(t, "spam", canonicalAlias(" Junk "))
	assert.Equal(t, "trash", canonicalAlias("deleted"))
	assert.Equal(t, "inbox", canonicalAlias("INBOX"))
	assert.Equal(t, "", canonicalAlias("receipts"))
}

func TestLogicalName(t *testing.T) {
	tests := []struct {
		name       string
		folder     provider.Folder
		wantName   string
		wantSystem bool
	}{
		{"attribute", provider.Folder{ID: "x1", Name: "Gesendet", Attributes: []string{`\Sent`}}, "sent", true},
		{"gmail label id", provider.Folder{ID: "SPAM", Name: "SPAM"}, "spam", true},
		{"outlook name", provider.Folder{ID: "AAMk", Name: "Deleted Items"}, "trash", true},
		{"all mail", provider.Folder{ID: "a", Name: "[Gmail]/All Mail"}, "archive", true},
		{"user label", provider.Folder{ID: "Label_1", Name: "  Travel "}, "travel", false},
		{"provider system flag", provider.Folder{ID: "CATEGORY_SOCIAL", Name: "Social", SystemFolder: true}, "social", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, system := LogicalName(tt.folder)
			require.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantSystem, system)
		})
	}
}
