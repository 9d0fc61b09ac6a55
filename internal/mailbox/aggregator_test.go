package mailbox

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/easemail/easemail-backend/internal/folders"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/mocks"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// mockResolver is a mock implementation of FolderResolver
type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, userID, accountID, token string) (*folders.Resolution, error) {
	args := m.Called(ctx, userID, accountID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*folders.Resolution), args.Error(1)
}

type AggregatorTestSuite struct {
	suite.Suite
	accounts   *mocks.MockAccountRepository
	resolver   *mockResolver
	client     *mocks.MockProviderClient
	aggregator *Aggregator
	ctx        context.Context
}

func (s *AggregatorTestSuite) SetupTest() {
	s.accounts = new(mocks.MockAccountRepository)
	s.resolver = new(mockResolver)
	s.client = new(mocks.MockProviderClient)
	s.aggregator = NewAggregator(s.accounts, s.resolver, s.client, logger.Discard())
	s.ctx = context.Background()
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func account(n int) models.EmailAccount {
	return models.EmailAccount{
		ID:           fmt.Sprintf("acc-%d", n),
		UserID:       "user-1",
		EmailAddress: fmt.Sprintf("user%d@example.com", n),
		GrantID:      fmt.Sprintf("grant-%d", n),
	}
}

func messages(prefix string, dates ...int64) []provider.Message {
	out := make([]provider.Message, len(dates))
	for i, d := range dates {
		out[i] = provider.Message{ID: fmt.Sprintf("%s-%d", prefix, i), Date: d}
	}
	return out
}

var noFilter = &folders.Resolution{Strategy: folders.StrategyNone}

func (s *AggregatorTestSuite) TestList_NoAccountsReturnsEmptyPage() {
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{}, nil)

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1"})

	s.Require().NoError(err)
	s.NotNil(page.Messages)
	s.Empty(page.Messages)
	s.False(page.HasMore)
	s.Equal(0, page.Accounts)
}

func (s *AggregatorTestSuite) TestList_MergesSortsAndTruncates() {
	a1, a2 := account(1), account(2)
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{a1, a2}, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", mock.Anything, "").Return(noFilter, nil)
	s.client.On("ListMessages", s.ctx, "grant-1", mock.MatchedBy(func(q provider.MessageQuery) bool { return q.Limit == 3 })).
		Return(&provider.MessagePage{Data: messages("a", 500, 300, 100)}, nil)
	s.client.On("ListMessages", s.ctx, "grant-2", mock.MatchedBy(func(q provider.MessageQuery) bool { return q.Limit == 3 })).
		Return(&provider.MessagePage{Data: messages("b", 400, 200, 50)}, nil)

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1", Limit: 5})

	s.Require().NoError(err)
	s.Require().Len(page.Messages, 5)
	var dates []int64
	for _, m := range page.Messages {
		dates = append(dates, m.Date)
	}
	s.Equal([]int64{500, 400, 300, 200, 100}, dates)
	s.Equal("acc-1", page.Messages[0].AccountID)
	s.Equal("user1@example.com", page.Messages[0].AccountEmail)
	s.Equal("acc-2", page.Messages[1].AccountID)
	s.True(page.HasMore)
	s.Equal(HasMoreCursor, page.NextCursor)
	s.Empty(page.Failures)
}

func (s *AggregatorTestSuite) TestList_FailingAccountIsIsolated() {
	a1, a2, a3 := account(1), account(2), account(3)
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{a1, a2, a3}, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", mock.Anything, "").Return(noFilter, nil)
	s.client.On("ListMessages", s.ctx, "grant-1", mock.Anything).Return(&provider.MessagePage{Data: messages("a", 30)}, nil)
	s.client.On("ListMessages", s.ctx, "grant-2", mock.Anything).
		Return(nil, &provider.Error{Kind: provider.KindAuth, Status: 401, Message: "grant expired"})
	s.client.On("ListMessages", s.ctx, "grant-3", mock.Anything).Return(&provider.MessagePage{Data: messages("c", 20)}, nil)

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1", Limit: 10})

	s.Require().NoError(err)
	s.Len(page.Messages, 2)
	s.False(page.HasMore)
	s.Empty(page.NextCursor)
	s.Require().Len(page.Failures, 1)
	s.Equal("acc-2", page.Failures[0].AccountID)
	s.Equal("user2@example.com", page.Failures[0].Email)
	s.Equal(string(provider.KindAuth), page.Failures[0].Kind)
	for _, m := range page.Messages {
		s.NotEqual("acc-2", m.AccountID)
	}
}

func (s *AggregatorTestSuite) TestList_UnresolvableFolderReturnsEmptyWithWarning() {
	a1, a2 := account(1), account(2)
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{a1, a2}, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", mock.Anything, "receipts").
		Return(nil, fmt.Errorf("%w: %q", apperrors.ErrFolderNotFound, "receipts"))

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1", Folder: "receipts"})

	s.Require().NoError(err)
	s.Empty(page.Messages)
	s.NotEmpty(page.Warnings)
	s.Contains(page.Warnings[len(page.Warnings)-1], "could not be resolved for any account")
	s.client.AssertNotCalled(s.T(), "ListMessages", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AggregatorTestSuite) TestList_FolderResolvedForSomeAccounts() {
	a1, a2 := account(1), account(2)
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{a1, a2}, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", "acc-1", "travel").
		Return(&folders.Resolution{Token: "travel", FolderIDs: []string{"Label_3"}, Strategy: folders.StrategyMapping}, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", "acc-2", "travel").Return(nil, apperrors.ErrFolderNotFound)
	s.client.On("ListMessages", s.ctx, "grant-1", mock.MatchedBy(func(q provider.MessageQuery) bool {
		return len(q.FolderIDs) == 1 && q.FolderIDs[0] == "Label_3"
	})).Return(&provider.MessagePage{Data: messages("a", 10)}, nil)

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1", Folder: "travel"})

	s.Require().NoError(err)
	s.Len(page.Messages, 1)
	s.Require().Len(page.Warnings, 1)
	s.Contains(page.Warnings[0], "user2@example.com")
}

func (s *AggregatorTestSuite) TestList_ResolverFailureCountsAsAccountFailure() {
	a1 := account(1)
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{a1}, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", "acc-1", "inbox").
		Return(nil, &provider.Error{Kind: provider.KindUnavailable, Message: "circuit open"})

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1", Folder: "inbox"})

	s.Require().NoError(err)
	s.Empty(page.Messages)
	s.Require().Len(page.Failures, 1)
	s.Equal(string(provider.KindUnavailable), page.Failures[0].Kind)
}

func (s *AggregatorTestSuite) TestList_CursorIgnoredWithWarning() {
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{}, nil)

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1", Cursor: "has_more"})

	s.Require().NoError(err)
	s.Len(page.Warnings, 1)
}

func (s *AggregatorTestSuite) TestList_LimitClamped() {
	a1 := account(1)
	s.accounts.On("ListByUser", s.ctx, "user-1").Return([]models.EmailAccount{a1}, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", "acc-1", "").Return(noFilter, nil)
	s.client.On("ListMessages", s.ctx, "grant-1", mock.MatchedBy(func(q provider.MessageQuery) bool { return q.Limit == 100 })).
		Return(&provider.MessagePage{}, nil)

	page, err := s.aggregator.List(s.ctx, Query{UserID: "user-1", Limit: 5000})

	s.Require().NoError(err)
	s.NotNil(page.Messages)
	s.client.AssertExpectations(s.T())
}

func (s *AggregatorTestSuite) TestList_AccountLookupError() {
	s.accounts.On("ListByUser", s.ctx, "user-1").Return(nil, errors.New("db down"))

	_, err := s.aggregator.List(s.ctx, Query{UserID: "user-1"})

	s.EqualError(err, "db down")
}

func (s *AggregatorTestSuite) TestListAccount_PassesPageTokenThrough() {
	a1 := account(1)
	s.accounts.On("GetForUser", s.ctx, "user-1", "acc-1").Return(&a1, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", "acc-1", "").Return(noFilter, nil)
	s.client.On("ListMessages", s.ctx, "grant-1", mock.MatchedBy(func(q provider.MessageQuery) bool {
		return q.PageToken == "tok-1" && q.Limit == 20
	})).Return(&provider.MessagePage{Data: messages("a", 1), NextCursor: "tok-2"}, nil)

	page, err := s.aggregator.ListAccount(s.ctx, AccountQuery{UserID: "user-1", AccountID: "acc-1", PageToken: "tok-1"})

	s.Require().NoError(err)
	s.Equal("tok-2", page.NextCursor)
	s.Len(page.Messages, 1)
	s.Equal("acc-1", page.Messages[0].AccountID)
}

func (s *AggregatorTestSuite) TestListAccount_ForeignAccountNotFound() {
	s.accounts.On("GetForUser", s.ctx, "user-1", "acc-9").Return(nil, apperrors.ErrAccountNotFound)

	_, err := s.aggregator.ListAccount(s.ctx, AccountQuery{UserID: "user-1", AccountID: "acc-9"})

	s.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func (s *AggregatorTestSuite) TestListAccount_ProviderErrorReturned() {
	a1 := account(1)
	s.accounts.On("GetForUser", s.ctx, "user-1", "acc-1").Return(&a1, nil)
	s.resolver.On("Resolve", s.ctx, "user-1", "acc-1", "").Return(noFilter, nil)
	s.client.On("ListMessages", s.ctx, "grant-1", mock.Anything).Return(nil, &provider.Error{Kind: provider.KindRateLimit, Status: 429})

	_, err := s.aggregator.ListAccount(s.ctx, AccountQuery{UserID: "user-1", AccountID: "acc-1"})

	s.Equal(provider.KindRateLimit, provider.KindOf(err))
}

func (s *AggregatorTestSuite) TestSortNewestFirst_TiesBrokenByID() {
	msgs := []Message{
		{Message: provider.Message{ID: "b", Date: 10}},
		{Message: provider.Message{ID: "a", Date: 10}},
		{Message: provider.Message{ID: "c", Date: 20}},
	}

	SortNewestFirst(msgs)

	s.Equal("c", msgs[0].ID)
	s.Equal("a", msgs[1].ID)
	s.Equal("b", msgs[2].ID)
}

// The unified listing never exceeds the limit and stays sorted for any account count.
func TestList_LimitAndOrderProperty(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for _, limit := range []int{1, 3, 7, 20} {
			t.Run(fmt.Sprintf("accounts=%d/limit=%d", n, limit), func(t *testing.T) {
				accounts := new(mocks.MockAccountRepository)
				resolver := new(mockResolver)
				client := new(mocks.MockProviderClient)
				agg := NewAggregator(accounts, resolver, client, logger.Discard())
				ctx := context.Background()

				var list []models.EmailAccount
				ids := map[string]bool{}
				for i := 1; i <= n; i++ {
					acct := account(i)
					list = append(list, acct)
					ids[acct.ID] = true
					var dates []int64
					for d := 0; d < 10; d++ {
						dates = append(dates, int64(1000-d*n-i))
					}
					client.On("ListMessages", ctx, acct.GrantID, mock.Anything).
						Return(&provider.MessagePage{Data: messages(acct.ID, dates...)}, nil)
				}
				accounts.On("ListByUser", ctx, "user-1").Return(list, nil)
				resolver.On("Resolve", ctx, "user-1", mock.Anything, "").Return(noFilter, nil)

				page, err := agg.List(ctx, Query{UserID: "user-1", Limit: limit})
				if err != nil {
					t.Fatal(err)
				}
				if len(page.Messages) > limit {
					t.Fatalf("got %d messages for limit %d", len(page.Messages), limit)
				}
				for i, m := range page.Messages {
					if !ids[m.AccountID] {
						t.Fatalf("message %s tagged with unknown account %s", m.ID, m.AccountID)
					}
					if i > 0 && page.Messages[i-1].Date < m.Date {
						t.Fatalf("messages out of order at %d", i)
					}
				}
			})
		}
	}
}
