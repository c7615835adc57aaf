// Package session runs the interactive menu loop for one user at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"expenses/internal/chart"
	"expenses/internal/core"
	"expenses/internal/export"
	applog "expenses/internal/log"
	"expenses/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PromptUsername    = `Please input username ("exit" to exit): `
	PromptChoice      = "Enter your choice: "
	PromptDescription = "Enter description: "
	PromptAmount      = "Enter amount: "
	PromptCategory    = "Enter category: "
	PromptDate        = "Enter date (optional, format YYYY-MM-DD): "
	PromptBudget      = "Enter budget: "
	PromptCloseChart  = "Press Enter to close the chart..."
)

const menu = `
---------------------------------
Choose an option:
1. Add a new expense
2. View expense summary
3. Export expenses to file
4. Update budget
5. Exit
---------------------------------
`

// Service is the set of tracker operations a session drives.
type Service interface {
	ResolveUser(ctx context.Context, username string) (core.User, error)
	CheckBudget(ctx context.Context, userID int64) (core.BudgetStatus, error)
	AddExpense(ctx context.Context, userID int64, in services.NewExpense) (core.Expense, core.BudgetStatus, error)
	Summary(ctx context.Context, userID int64) (services.SummaryReport, error)
	Export(ctx context.Context, userID int64) ([]export.Result, error)
	UpdateBudget(ctx context.Context, userID int64, amount decimal.Decimal) error
}

var _ Service = (*services.ExpenseService)(nil)

// Session holds the state of the prompt loop. The zero user means no one is
// logged in.
type Session struct {
	svc    Service
	chart  chart.Renderer
	p      *prompter
	out    io.Writer
	now    func() time.Time
	logger *applog.Logger

	state State
	user  core.User
	// log carries the id of the current login.
	log *applog.Logger
}

type Option func(*Session)

func WithLogger(l *applog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock sets the clock used to validate optional dates.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(svc Service, renderer chart.Renderer, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		svc:    svc,
		chart:  renderer,
		p:      newPrompter(in, out),
		out:    out,
		now:    time.Now,
		logger: applog.New(applog.DefaultConfig()),
		state:  AwaitingUsername,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentSession)
	s.log = s.logger
	return s
}

func (s *Session) State() State { return s.state }

// Run prints the banner and drives the state machine until the user exits or
// the input ends. Only read failures other than end of input are returned.
func (s *Session) Run(ctx context.Context) error {
	s.println("Welcome to Simple Expense Tracker!")
	for s.state != Terminated {
		var err error
		switch s.state {
		case AwaitingUsername:
			err = s.login(ctx)
		case Active:
			err = s.dispatch(ctx)
		}
		if errors.Is(err, io.EOF) {
			s.terminate()
			return nil
		}
		if err != nil {
			s.terminate()
			return fmt.Errorf("read input: %w", err)
		}
	}
	return nil
}

func (s *Session) terminate() {
	s.state = Terminated
	s.user = core.User{}
	s.log = s.logger
	s.logger.Debug("Session terminated", applog.FieldState, s.state.String())
}

func (s *Session) login(ctx context.Context) error {
	input, err := s.p.ask(PromptUsername)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(input)
	if strings.EqualFold(name, "exit") {
		s.terminate()
		return nil
	}
	if name == "" {
		return nil
	}

	user, err := s.svc.ResolveUser(ctx, name)
	if err != nil {
		s.fail(ctx, applog.OpResolveUser, err)
		return nil
	}
	s.user = user
	s.state = Active
	s.log = s.logger.With(applog.FieldSessionID, uuid.NewString())
	s.log.InfoContext(ctx, "User logged in",
		applog.FieldUserID, user.ID,
		applog.FieldUsername, user.Username)

	s.println("")
	s.println(fmt.Sprintf("Welcome, %s!", name))
	s.checkBudget(ctx)
	return nil
}

func (s *Session) dispatch(ctx context.Context) error {
	fmt.Fprint(s.out, menu)
	s.println("")
	choice, err := s.p.ask(PromptChoice)
	if err != nil {
		return err
	}

	ctx = applog.WithContext(ctx, s.log)
	switch ParseCommand(choice) {
	case CmdAddExpense:
		return s.addExpense(ctx)
	case CmdViewSummary:
		return s.viewSummary(ctx)
	case CmdExport:
		s.export(ctx)
	case CmdUpdateBudget:
		return s.updateBudget(ctx)
	case CmdLogout:
		s.println("Exiting...")
		s.log.InfoContext(ctx, "User logged out", applog.FieldUserID, s.user.ID)
		s.user = core.User{}
		s.log = s.logger
		s.state = AwaitingUsername
	case CmdInvalid:
		s.println("Invalid choice. Please try again.")
	}
	return nil
}

func (s *Session) checkBudget(ctx context.Context) {
	status, err := s.svc.CheckBudget(ctx, s.user.ID)
	if err != nil {
		s.fail(ctx, applog.OpCheckBudget, err)
		return
	}
	s.reportBudget(status)
}

func (s *Session) reportBudget(status core.BudgetStatus) {
	if status.Empty {
		s.println("No expenses found.")
		return
	}
	if status.Exceeded {
		s.println("Budget Exceeded!!!")
	}
	s.println("Total Expenses: $ " + core.FormatAmount(status.Total))
	s.println("Budget: $ " + core.FormatAmount(status.Budget))
}

func (s *Session) addExpense(ctx context.Context) error {
	description, err := s.p.ask(PromptDescription)
	if err != nil {
		return err
	}
	amount, err := askParsed(s.p, PromptAmount, "Invalid amount. Please enter a number.", core.ParseAmount)
	if err != nil {
		return err
	}
	category, err := s.p.ask(PromptCategory)
	if err != nil {
		return err
	}
	date, err := askParsed(s.p, PromptDate, "Invalid date. Please use the format YYYY-MM-DD.", func(in string) (string, error) {
		if _, err := core.ParseDate(in, s.now()); err != nil {
			return "", err
		}
		return in, nil
	})
	if err != nil {
		return err
	}

	e, status, err := s.svc.AddExpense(ctx, s.user.ID, services.NewExpense{
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        date,
	})
	if e.ID == 0 {
		s.fail(ctx, applog.OpAddExpense, err)
		return nil
	}
	// The expense is committed even when the budget check after it fails.
	s.println("Expense added successfully!")
	if err != nil {
		s.fail(ctx, applog.OpCheckBudget, err)
		return nil
	}
	s.reportBudget(status)
	return nil
}

func (s *Session) viewSummary(ctx context.Context) error {
	report, err := s.svc.Summary(ctx, s.user.ID)
	if err != nil {
		s.fail(ctx, applog.OpSummary, err)
		return nil
	}
	if report.Empty {
		s.println("No expenses found.")
		return nil
	}

	s.println("Budget: $ " + core.FormatAmount(report.Budget))
	s.println("Total expenses: $ " + core.FormatAmount(report.Summary.Total))
	s.println("Category-wise expenses:")
	for _, c := range report.Summary.ByCategory {
		s.println(fmt.Sprintf("  %s: $%s", c.Name, core.FormatAmount(c.Amount)))
	}

	if s.chart == nil {
		return nil
	}
	if err := s.chart.Render(chart.DefaultTitle, report.Summary.ByCategory); err != nil {
		s.fail(ctx, applog.OpRender, err)
		return nil
	}
	// The chart stays up until dismissed.
	if _, err := s.p.ask(PromptCloseChart); err != nil {
		return err
	}
	s.println("")
	return nil
}

func (s *Session) export(ctx context.Context) {
	results, err := s.svc.Export(ctx, s.user.ID)
	if len(results) == 0 && err != nil {
		s.fail(ctx, applog.OpExport, err)
		return
	}
	for _, r := range results {
		if r.Err != nil {
			s.fail(ctx, applog.OpExport, r.Err)
			continue
		}
		s.println(fmt.Sprintf("Expenses exported to %s successfully!", r.Ref))
	}
}

func (s *Session) updateBudget(ctx context.Context) error {
	budget, err := askParsed(s.p, PromptBudget, "Invalid amount. Please enter a number.", core.ParseAmount)
	if err != nil {
		return err
	}
	if err := s.svc.UpdateBudget(ctx, s.user.ID, budget); err != nil {
		s.fail(ctx, applog.OpUpdateBudget, err)
		return nil
	}
	s.println("Budget updated successfully!")
	return nil
}

// fail reports an operation error to the user and keeps the session going.
func (s *Session) fail(ctx context.Context, op string, err error) {
	s.println("Error: " + err.Error())
	s.log.LogError(ctx, "Operation failed", err, op, applog.NewFields().WithUser(s.user.ID))
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}
