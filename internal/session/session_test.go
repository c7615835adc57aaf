package session

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/memory"
	"expenses/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	titles []string
	bars   [][]core.CategoryAmount
	err    error
}

func (r *fakeRenderer) Render(title string, bars []core.CategoryAmount) error {
	r.titles = append(r.titles, title)
	r.bars = append(r.bars, bars)
	return r.err
}

func clock() time.Time {
	return time.Date(2025, 1, 20, 18, 0, 0, 0, time.Local)
}

type harness struct {
	store    *memory.Store
	renderer *fakeRenderer
	exportTo string
	session  *Session
	out      *bytes.Buffer
}

func run(t *testing.T, input string) *harness {
	t.Helper()
	h := &harness{
		store:    memory.New(),
		renderer: &fakeRenderer{},
		exportTo: t.TempDir(),
		out:      &bytes.Buffer{},
	}
	svc := services.NewExpenseService(h.store,
		services.WithClock(clock),
		services.WithExporters(export.CSVFile{Dir: h.exportTo}),
	)
	h.session = New(svc, h.renderer, strings.NewReader(input), h.out, WithClock(clock))
	require.NoError(t, h.session.Run(context.Background()))
	assert.Equal(t, Terminated, h.session.State())
	return h
}

func (h *harness) expenses(t *testing.T, username string) []core.Expense {
	t.Helper()
	ctx := context.Background()
	id, err := h.store.ResolveOrCreateUser(ctx, username)
	require.NoError(t, err)
	out, err := h.store.FetchExpenses(ctx, id)
	require.NoError(t, err)
	return out
}

func lines(in ...string) string {
	return strings.Join(in, "\n") + "\n"
}

func TestExitBeforeLogin(t *testing.T) {
	h := run(t, "ExIt\n")
	assert.Equal(t, "Welcome to Simple Expense Tracker!\n"+PromptUsername, h.out.String())
}

func TestEndOfInputTerminates(t *testing.T) {
	h := run(t, "")
	assert.Equal(t, "Welcome to Simple Expense Tracker!\n"+PromptUsername, h.out.String())

	h = run(t, "alice\n1\nLunch\n")
	assert.Contains(t, h.out.String(), PromptAmount)
	assert.Empty(t, h.expenses(t, "alice"))
}

func TestEmptyUsernameReprompts(t *testing.T) {
	h := run(t, lines("", "   ", "exit"))
	assert.Equal(t, 3, strings.Count(h.out.String(), PromptUsername))
	assert.NotContains(t, h.out.String(), "Welcome,")
}

func TestLoginAndLogout(t *testing.T) {
	h := run(t, lines("  Alice ", "5", "ALICE", "5", "exit"))
	out := h.out.String()

	assert.Contains(t, out, "\nWelcome, Alice!\nNo expenses found.\n")
	assert.Contains(t, out, "Welcome, ALICE!")
	assert.Equal(t, 2, strings.Count(out, "Exiting..."))
	assert.Equal(t, 3, strings.Count(out, PromptUsername))
	assert.Contains(t, out, "Choose an option:\n1. Add a new expense\n2. View expense summary\n"+
		"3. Export expenses to file\n4. Update budget\n5. Exit\n")

	id, err := h.store.ResolveOrCreateUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id, "case variants map to the same user")
}

func TestInvalidChoice(t *testing.T) {
	h := run(t, lines("bob", "9", "", "abc", "5", "exit"))
	out := h.out.String()
	assert.Equal(t, 3, strings.Count(out, "Invalid choice. Please try again."))
	assert.Equal(t, 4, strings.Count(out, PromptChoice))
}

func TestAddExpenseDefaultsDate(t *testing.T) {
	h := run(t, lines("bob", "1", "Coffee", "4.50", "Food", "", "5", "exit"))
	out := h.out.String()

	assert.Contains(t, out, lines(
		"Expense added successfully!",
		"Budget Exceeded!!!",
		"Total Expenses: $ 4.50",
		"Budget: $ 0.00",
	))

	got := h.expenses(t, "bob")
	require.Len(t, got, 1)
	assert.Equal(t, "Coffee", got[0].Description)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, "Food", got[0].Category)
	assert.Equal(t, "2025-01-20", got[0].Date)
}

func TestAddExpenseRepromptsInvalidInput(t *testing.T) {
	h := run(t, lines("bob", "1", "Taxi", "twelve", "", "12,30", "Transport", "20/01/2025", "2025-01-19", "exit"))
	out := h.out.String()

	assert.Equal(t, 2, strings.Count(out, "Invalid amount. Please enter a number."))
	assert.Equal(t, 3, strings.Count(out, PromptAmount))
	assert.Equal(t, 1, strings.Count(out, "Invalid date. Please use the format YYYY-MM-DD."))
	assert.Equal(t, 2, strings.Count(out, PromptDate))

	got := h.expenses(t, "bob")
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("12.3")))
	assert.Equal(t, "2025-01-19", got[0].Date)
}

func TestBudgetCheckAfterAdd(t *testing.T) {
	t.Run("exceeded", func(t *testing.T) {
		h := run(t, lines("carol", "4", "100", "1", "Rent", "150", "Home", "2025-01-01", "exit"))
		assert.Contains(t, h.out.String(), lines(
			"Budget updated successfully!",
		))
		assert.Contains(t, h.out.String(), lines(
			"Expense added successfully!",
			"Budget Exceeded!!!",
			"Total Expenses: $ 150.00",
			"Budget: $ 100.00",
		))
	})

	t.Run("within budget", func(t *testing.T) {
		h := run(t, lines("carol", "4", "100", "1", "Food", "50", "Food", "2025-01-01", "exit"))
		assert.Contains(t, h.out.String(), lines(
			"Expense added successfully!",
			"Total Expenses: $ 50.00",
			"Budget: $ 100.00",
		))
		assert.NotContains(t, h.out.String(), "Budget Exceeded!!!")
	})
}

func TestUpdateBudgetReprompts(t *testing.T) {
	h := run(t, lines("dave", "4", "lots", "-25.5", "exit"))
	assert.Contains(t, h.out.String(), "Invalid amount. Please enter a number.")
	assert.Contains(t, h.out.String(), "Budget updated successfully!")

	id, err := h.store.ResolveOrCreateUser(context.Background(), "dave")
	require.NoError(t, err)
	budget, err := h.store.GetBudget(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, budget.Equal(decimal.RequireFromString("-25.5")))
}

func TestViewSummaryWithoutExpenses(t *testing.T) {
	h := run(t, lines("erin", "2", "exit"))
	assert.Equal(t, 2, strings.Count(h.out.String(), "No expenses found."))
	assert.Empty(t, h.renderer.titles)
	assert.NotContains(t, h.out.String(), PromptCloseChart)
}

func TestViewSummary(t *testing.T) {
	h := run(t, lines(
		"frank",
		"4", "30",
		"1", "Bus", "2.40", "Transport", "2025-01-02",
		"1", "Lunch", "10", "Food", "2025-01-02",
		"1", "Train", "7.6", "Transport", "2025-01-03",
		"2", "",
		"exit",
	))
	out := h.out.String()

	assert.Contains(t, out, lines(
		"Budget: $ 30.00",
		"Total expenses: $ 20.00",
		"Category-wise expenses:",
		"  Transport: $10.00",
		"  Food: $10.00",
	)+PromptCloseChart)

	require.Len(t, h.renderer.titles, 1)
	assert.Equal(t, "Monthly Expenses", h.renderer.titles[0])
	require.Len(t, h.renderer.bars[0], 2)
	assert.Equal(t, "Transport", h.renderer.bars[0][0].Name)
	assert.Equal(t, "Food", h.renderer.bars[0][1].Name)
}

func TestViewSummaryChartDismissedByEndOfInput(t *testing.T) {
	h := run(t, lines("gina", "1", "x", "1", "y", "", "2"))
	assert.Len(t, h.renderer.titles, 1)
	assert.True(t, strings.HasSuffix(h.out.String(), PromptCloseChart))
}

func TestViewSummaryRenderError(t *testing.T) {
	h := &harness{store: memory.New(), renderer: &fakeRenderer{err: errors.New("no display")}, out: &bytes.Buffer{}}
	svc := services.NewExpenseService(h.store, services.WithClock(clock))
	s := New(svc, h.renderer, strings.NewReader(lines("hank", "1", "x", "1", "y", "", "2", "5", "exit")), h.out)
	require.NoError(t, s.Run(context.Background()))

	assert.Contains(t, h.out.String(), "Error: no display\n")
	assert.NotContains(t, h.out.String(), PromptCloseChart)
	assert.Contains(t, h.out.String(), "Exiting...")
}

func TestExport(t *testing.T) {
	h := run(t, lines("ivy", "1", "Book", "15", "Leisure", "2025-01-10", "3", "exit"))
	path := filepath.Join(h.exportTo, "expenses-1.csv")
	assert.Contains(t, h.out.String(), "Expenses exported to "+path+" successfully!\n")
	assert.FileExists(t, path)
}

type failingService struct {
	Service
}

func (failingService) ResolveUser(_ context.Context, username string) (core.User, error) {
	return core.User{ID: 1, Username: username}, nil
}

func (failingService) CheckBudget(context.Context, int64) (core.BudgetStatus, error) {
	return core.BudgetStatus{Empty: true}, nil
}

func (failingService) Export(context.Context, int64) ([]export.Result, error) {
	return nil, errors.New("disk full")
}

type partialExportService struct {
	failingService
}

func (partialExportService) Export(context.Context, int64) ([]export.Result, error) {
	quota := errors.New("quota exceeded")
	return []export.Result{{Ref: "out/expenses-1.csv"}, {Err: quota}}, quota
}

func TestExportReportsEachSink(t *testing.T) {
	out := &bytes.Buffer{}
	s := New(partialExportService{}, nil, strings.NewReader(lines("jo", "3")), out)

	require.NoError(t, s.Run(context.Background()))
	assert.Contains(t, out.String(), "Expenses exported to out/expenses-1.csv successfully!\nError: quota exceeded\n")
}

type lockedBudgetStore struct {
	*memory.Store
	locked bool
}

func (s *lockedBudgetStore) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := s.Store.AddExpense(ctx, e)
	s.locked = true
	return id, err
}

func (s *lockedBudgetStore) GetBudget(ctx context.Context, userID int64) (decimal.Decimal, error) {
	if s.locked {
		return decimal.Zero, errors.New("database is locked")
	}
	return s.Store.GetBudget(ctx, userID)
}

func TestAddExpenseReportsSuccessWhenBudgetCheckFails(t *testing.T) {
	store := &lockedBudgetStore{Store: memory.New()}
	out := &bytes.Buffer{}
	svc := services.NewExpenseService(store, services.WithClock(clock))
	s := New(svc, nil, strings.NewReader(lines("zed", "1", "x", "5", "c", "")), out, WithClock(clock))

	require.NoError(t, s.Run(context.Background()))
	assert.Contains(t, out.String(), "Expense added successfully!\nError: check budget: get budget: database is locked\n")

	id, err := store.ResolveOrCreateUser(context.Background(), "zed")
	require.NoError(t, err)
	stored, err := store.FetchExpenses(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestOperationErrorKeepsSessionActive(t *testing.T) {
	out := &bytes.Buffer{}
	s := New(failingService{}, nil, strings.NewReader(lines("jo", "3")), out)

	require.NoError(t, s.Run(context.Background()))
	assert.Contains(t, out.String(), "Error: disk full\n")
	assert.Equal(t, 2, strings.Count(out.String(), PromptChoice))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"1", CmdAddExpense},
		{" 2 ", CmdViewSummary},
		{"3", CmdExport},
		{"4", CmdUpdateBudget},
		{"5", CmdLogout},
		{"6", CmdInvalid},
		{"0", CmdInvalid},
		{"", CmdInvalid},
		{"one", CmdInvalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCommand(tt.in), "input %q", tt.in)
	}
	assert.Equal(t, "add_expense", CmdAddExpense.String())
	assert.Equal(t, "active", Active.String())
}
