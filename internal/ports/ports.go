package ports

import (
	"context"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
)

// Ports for storage and outbound adapters.
type (
	UserStore interface {
		// ResolveOrCreateUser returns the id of the user with the normalized
		// username, creating the user with a zero budget when absent.
		ResolveOrCreateUser(ctx context.Context, username string) (int64, error)
		GetUser(ctx context.Context, userID int64) (core.User, error)
		GetBudget(ctx context.Context, userID int64) (decimal.Decimal, error)
		UpdateBudget(ctx context.Context, userID int64, amount decimal.Decimal) error
	}

	ExpenseStore interface {
		AddExpense(ctx context.Context, e core.Expense) (int64, error)
		// FetchExpenses returns every expense of the user in insertion order.
		FetchExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	}

	// Store is the full persistence boundary of the tracker.
	Store interface {
		UserStore
		ExpenseStore
		Close() error
	}

	// ExpenseExporter writes a user's expenses somewhere and returns a
	// human readable reference to the written artifact.
	ExpenseExporter interface {
		Export(ctx context.Context, user core.User, expenses []core.Expense) (ref string, err error)
	}

	// EventPublisher announces domain changes to interested parties.
	EventPublisher interface {
		PublishExpenseRecorded(ctx context.Context, user core.User, e core.Expense) error
		PublishBudgetUpdated(ctx context.Context, user core.User) error
		PublishBudgetExceeded(ctx context.Context, user core.User, status core.BudgetStatus) error
	}
)
