package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/ports"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	defaultUserCacheSize = 128
)

type SQLiteRepository struct {
	db    *sql.DB
	users cache.Cache[string, int64]
}

var _ ports.Store = (*SQLiteRepository)(nil)

// Option configures a SQLiteRepository.
type Option func(*SQLiteRepository)

// WithUserCache replaces the username to id cache.
func WithUserCache(c cache.Cache[string, int64]) Option {
	return func(r *SQLiteRepository) {
		if c != nil {
			r.users = c
		}
	}
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and applies pending migrations.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection for the lifetime of the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:    db,
		users: cache.NewLRU[string, int64](defaultUserCacheSize, 0),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn in a transaction committed on success.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ResolveOrCreateUser implements ports.UserStore
func (r *SQLiteRepository) ResolveOrCreateUser(ctx context.Context, username string) (int64, error) {
	name, err := core.NormalizeUsername(username)
	if err != nil {
		return 0, err
	}
	if id, ok := r.users.Get(name); ok {
		return id, nil
	}

	var (
		id      int64
		created bool
	)
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, name).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("select user: %w", err)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO users (username) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.users.Set(name, id)
	if created {
		slog.InfoContext(ctx, "User created", "user_id", id, "username", name)
	}
	return id, nil
}

// GetUser implements ports.UserStore
func (r *SQLiteRepository) GetUser(ctx context.Context, userID int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, budget FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.Username, &u.Budget)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetBudget implements ports.UserStore
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var budget decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT budget FROM users WHERE id = ?`, userID).Scan(&budget)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("user %d: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get budget: %w", err)
	}
	return budget, nil
}

// UpdateBudget implements ports.UserStore
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, userID int64, amount decimal.Decimal) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET budget = ? WHERE id = ?`, amount.String(), userID)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("user %d: %w", userID, core.ErrNotFound)
		}
		slog.DebugContext(ctx, "Budget updated", "user_id", userID, "budget", amount.String())
		return nil
	})
}

// AddExpense implements ports.ExpenseStore
func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, e.UserID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %d: %w", e.UserID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (description, amount, category, date, user_id) VALUES (?, ?, ?, ?, ?)`,
			e.Description, e.Amount.String(), e.Category, e.Date, e.UserID,
		)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("expense id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"user_id", e.UserID,
		"amount", e.Amount.String(),
		"category", e.Category,
		"date", e.Date)
	return id, nil
}

// FetchExpenses implements ports.ExpenseStore
func (r *SQLiteRepository) FetchExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, description, amount, category, date
		 FROM expenses WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &e.Category, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	return expenses, nil
}
