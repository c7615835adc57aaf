package storage

import (
	"context"
	"path/filepath"
	"testing"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite runs repository operations against a fresh database file
type RepositoryTestSuite struct {
	suite.Suite
	ctx    context.Context
	dbPath string
	repo   *SQLiteRepository
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.dbPath = filepath.Join(s.T().TempDir(), "data", "expenses.db")
	repo, err := NewSQLiteRepository(s.dbPath)
	require.NoError(s.T(), err, "failed to create test database")
	s.repo = repo
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) TestResolveOrCreateUserNormalizes() {
	id, err := s.repo.ResolveOrCreateUser(s.ctx, "Alice")
	require.NoError(s.T(), err)

	for _, name := range []string{"alice", "  ALICE  ", "aLiCe\n"} {
		got, err := s.repo.ResolveOrCreateUser(s.ctx, name)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), id, got, "username %q", name)
	}

	user, err := s.repo.GetUser(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", user.Username)
}

func (s *RepositoryTestSuite) TestResolveOrCreateUserCreatesOneRow() {
	_, err := s.repo.ResolveOrCreateUser(s.ctx, "bob")
	require.NoError(s.T(), err)
	s.repo.users.Delete("bob") // force the database lookup path
	_, err = s.repo.ResolveOrCreateUser(s.ctx, " Bob")
	require.NoError(s.T(), err)

	var count int
	require.NoError(s.T(), s.repo.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = 'bob'`).Scan(&count))
	assert.Equal(s.T(), 1, count)
}

func (s *RepositoryTestSuite) TestResolveOrCreateUserRejectsEmpty() {
	_, err := s.repo.ResolveOrCreateUser(s.ctx, "   ")
	assert.ErrorIs(s.T(), err, core.ErrEmptyUsername)
}

func (s *RepositoryTestSuite) TestBudgetDefaultAndUpdate() {
	id, err := s.repo.ResolveOrCreateUser(s.ctx, "carol")
	require.NoError(s.T(), err)

	budget, err := s.repo.GetBudget(s.ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), budget.IsZero(), "new user budget = %s", budget)

	require.NoError(s.T(), s.repo.UpdateBudget(s.ctx, id, decimal.NewFromInt(500)))
	budget, err = s.repo.GetBudget(s.ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), budget.Equal(decimal.NewFromInt(500)), "budget = %s", budget)

	require.NoError(s.T(), s.repo.UpdateBudget(s.ctx, id, decimal.RequireFromString("-12.5")))
	budget, err = s.repo.GetBudget(s.ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), budget.Equal(decimal.RequireFromString("-12.5")))
}

func (s *RepositoryTestSuite) TestUnknownUser() {
	_, err := s.repo.GetBudget(s.ctx, 999)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	_, err = s.repo.GetUser(s.ctx, 999)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	err = s.repo.UpdateBudget(s.ctx, 999, decimal.NewFromInt(1))
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	_, err = s.repo.AddExpense(s.ctx, core.Expense{UserID: 999, Description: "x", Amount: decimal.NewFromInt(1), Category: "c", Date: "2025-01-01"})
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestAddAndFetchExpenses() {
	alice, err := s.repo.ResolveOrCreateUser(s.ctx, "alice")
	require.NoError(s.T(), err)
	bob, err := s.repo.ResolveOrCreateUser(s.ctx, "bob")
	require.NoError(s.T(), err)

	input := []core.Expense{
		{UserID: alice, Description: "coffee", Amount: decimal.RequireFromString("4.50"), Category: "Food", Date: "2025-01-20"},
		{UserID: alice, Description: "refund", Amount: decimal.RequireFromString("-3"), Category: "Misc", Date: "2025-01-21"},
		{UserID: bob, Description: "bus", Amount: decimal.RequireFromString("2.20"), Category: "Transport", Date: "2025-01-21"},
		{UserID: alice, Description: "", Amount: decimal.RequireFromString("0.1"), Category: "Food", Date: "2025-01-22"},
	}
	for _, e := range input {
		id, err := s.repo.AddExpense(s.ctx, e)
		require.NoError(s.T(), err)
		assert.Positive(s.T(), id)
	}

	got, err := s.repo.FetchExpenses(s.ctx, alice)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 3)
	assert.Equal(s.T(), "coffee", got[0].Description)
	assert.True(s.T(), got[0].Amount.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(s.T(), "2025-01-20", got[0].Date)
	assert.Equal(s.T(), alice, got[0].UserID)
	assert.Equal(s.T(), "refund", got[1].Description)
	assert.True(s.T(), got[1].Amount.IsNegative())
	assert.Equal(s.T(), "", got[2].Description)

	got, err = s.repo.FetchExpenses(s.ctx, bob)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), "Transport", got[0].Category)
}

func (s *RepositoryTestSuite) TestFetchExpensesEmpty() {
	id, err := s.repo.ResolveOrCreateUser(s.ctx, "dave")
	require.NoError(s.T(), err)

	got, err := s.repo.FetchExpenses(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), got)
}

func (s *RepositoryTestSuite) TestDataSurvivesReopen() {
	id, err := s.repo.ResolveOrCreateUser(s.ctx, "erin")
	require.NoError(s.T(), err)
	_, err = s.repo.AddExpense(s.ctx, core.Expense{UserID: id, Description: "rent", Amount: decimal.NewFromInt(800), Category: "Home", Date: "2025-02-01"})
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.repo.Close())

	reopened, err := NewSQLiteRepository(s.dbPath)
	require.NoError(s.T(), err)
	s.repo = reopened

	again, err := s.repo.ResolveOrCreateUser(s.ctx, "Erin")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, again)

	got, err := s.repo.FetchExpenses(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Len(s.T(), got, 1)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
