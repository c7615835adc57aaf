package memory

import (
	"context"
	"fmt"
	"sync"

	"expenses/internal/core"
	"expenses/internal/ports"

	"github.com/shopspring/decimal"
)

// Store keeps users and expenses in process memory. Nothing survives exit.
type Store struct {
	mu       sync.Mutex
	users    []core.User
	byName   map[string]int64
	expenses []core.Expense
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{byName: make(map[string]int64)}
}

func (s *Store) ResolveOrCreateUser(_ context.Context, username string) (int64, error) {
	name, err := core.NormalizeUsername(username)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byName[name]; ok {
		return id, nil
	}
	id := int64(len(s.users) + 1)
	s.users = append(s.users, core.User{ID: id, Username: name, Budget: decimal.Zero})
	s.byName[name] = id
	return id, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return core.User{}, err
	}
	return *u, nil
}

func (s *Store) GetBudget(_ context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Budget, nil
}

func (s *Store) UpdateBudget(_ context.Context, userID int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	u.Budget = amount
	return nil
}

// AddExpense stores a copy of e and returns its synthetic id.
func (s *Store) AddExpense(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.user(e.UserID); err != nil {
		return 0, err
	}
	e.ID = int64(len(s.expenses) + 1)
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) FetchExpenses(_ context.Context, userID int64) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

// user must be called with s.mu held.
func (s *Store) user(id int64) (*core.User, error) {
	if id < 1 || id > int64(len(s.users)) {
		return nil, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	return &s.users[id-1], nil
}
