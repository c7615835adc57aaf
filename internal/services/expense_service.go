package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"expenses/internal/core"
	"expenses/internal/export"
	applog "expenses/internal/log"
	"expenses/internal/ports"

	"github.com/shopspring/decimal"
)

// NewExpense is the user supplied part of an expense. An empty Date means
// today.
type NewExpense struct {
	Description string
	Amount      decimal.Decimal
	Category    string
	Date        string
}

// SummaryReport is what the summary view shows.
type SummaryReport struct {
	Budget  decimal.Decimal
	Summary core.Summary
	Empty   bool
}

// ExpenseService orchestrates tracker operations over a store, the export
// sinks and the optional event publisher.
type ExpenseService struct {
	store     ports.Store
	exporters []ports.ExpenseExporter
	events    ports.EventPublisher
	now       func() time.Time
	logger    *applog.Logger
}

type Option func(*ExpenseService)

// WithExporters replaces the default CSV exporter.
func WithExporters(exporters ...ports.ExpenseExporter) Option {
	return func(s *ExpenseService) { s.exporters = exporters }
}

// WithEventPublisher enables domain events.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *ExpenseService) { s.events = p }
}

// WithClock overrides the clock used to default expense dates.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

func NewExpenseService(store ports.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:     store,
		exporters: []ports.ExpenseExporter{export.CSVFile{Dir: "."}},
		now:       time.Now,
		logger:    applog.New(applog.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentService)
	return s
}

// ResolveUser finds or creates the user named username.
func (s *ExpenseService) ResolveUser(ctx context.Context, username string) (core.User, error) {
	id, err := s.store.ResolveOrCreateUser(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return s.store.GetUser(ctx, id)
}

// CheckBudget compares the user's spending with their budget.
func (s *ExpenseService) CheckBudget(ctx context.Context, userID int64) (core.BudgetStatus, error) {
	budget, err := s.store.GetBudget(ctx, userID)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("get budget: %w", err)
	}
	expenses, err := s.store.FetchExpenses(ctx, userID)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("fetch expenses: %w", err)
	}
	return core.CheckBudget(budget, expenses), nil
}

// AddExpense records an expense and then checks the budget. The insert and
// the check are separate commits: when only the check fails, the stored
// expense is returned together with the error.
func (s *ExpenseService) AddExpense(ctx context.Context, userID int64, in NewExpense) (core.Expense, core.BudgetStatus, error) {
	date, err := core.ParseDate(in.Date, s.now())
	if err != nil {
		return core.Expense{}, core.BudgetStatus{}, err
	}
	e := core.Expense{
		UserID:      userID,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        date,
	}

	id, err := s.store.AddExpense(ctx, e)
	if err != nil {
		return core.Expense{}, core.BudgetStatus{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.publish(ctx, userID, applog.OpAddExpense, func(u core.User) error {
		return s.events.PublishExpenseRecorded(ctx, u, e)
	})

	status, err := s.CheckBudget(ctx, userID)
	if err != nil {
		return e, core.BudgetStatus{}, fmt.Errorf("check budget: %w", err)
	}
	if status.Exceeded {
		s.publish(ctx, userID, applog.OpCheckBudget, func(u core.User) error {
			return s.events.PublishBudgetExceeded(ctx, u, status)
		})
	}
	return e, status, nil
}

// Summary groups the user's expenses by category.
func (s *ExpenseService) Summary(ctx context.Context, userID int64) (SummaryReport, error) {
	expenses, err := s.store.FetchExpenses(ctx, userID)
	if err != nil {
		return SummaryReport{}, fmt.Errorf("fetch expenses: %w", err)
	}
	if len(expenses) == 0 {
		return SummaryReport{Empty: true}, nil
	}
	budget, err := s.store.GetBudget(ctx, userID)
	if err != nil {
		return SummaryReport{}, fmt.Errorf("get budget: %w", err)
	}
	return SummaryReport{Budget: budget, Summary: core.Summarize(expenses)}, nil
}

// Export writes the user's expenses to every configured sink. It returns one
// result per sink; the error reports the first sink that failed.
func (s *ExpenseService) Export(ctx context.Context, userID int64) ([]export.Result, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	expenses, err := s.store.FetchExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}

	results, err := export.NewFanout(s.exporters...).ExportAll(ctx, user, expenses)
	for _, r := range results {
		if r.Err != nil {
			s.logger.LogError(ctx, "Export sink failed", r.Err, applog.OpExport, applog.NewFields().WithUser(userID))
			continue
		}
		s.logger.InfoContext(ctx, "Expenses exported",
			applog.FieldUserID, userID,
			applog.FieldCount, len(expenses),
			applog.FieldRef, r.Ref)
	}
	if err != nil {
		return results, fmt.Errorf("export expenses: %w", err)
	}
	return results, nil
}

// UpdateBudget overwrites the user's budget with any value.
func (s *ExpenseService) UpdateBudget(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if err := s.store.UpdateBudget(ctx, userID, amount); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	s.publish(ctx, userID, applog.OpUpdateBudget, func(u core.User) error {
		return s.events.PublishBudgetUpdated(ctx, u)
	})
	return nil
}

// publish sends an event without failing the operation that caused it.
func (s *ExpenseService) publish(ctx context.Context, userID int64, op string, send func(core.User) error) {
	if s.events == nil {
		return
	}
	user, err := s.store.GetUser(ctx, userID)
	if err == nil {
		err = send(user)
	}
	if err != nil {
		s.logger.LogError(ctx, "Failed to publish event", err, op, applog.NewFields().WithUser(userID))
	}
}

// Close closes the store and the event publisher when it holds resources.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.events.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
