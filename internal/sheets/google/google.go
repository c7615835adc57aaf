package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"expenses/internal/core"
	"expenses/internal/export"
	applog "expenses/internal/log"
	"expenses/internal/ports"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors expense exports into per-user tabs of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ports.ExpenseExporter = (*Client)(nil)

// New creates a Sheets client authenticated with service account credentials.
func New(ctx context.Context, spreadsheetID, sheetBase string, credentialsJSON []byte) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetBase), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if sheetBase == "" {
		sheetBase = "Expenses"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}
}

// LoadCredentials returns inline JSON credentials, or reads them from file.
func LoadCredentials(file, inline string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// TabName is the sheet tab holding a user's export.
func TabName(base string, userID int64) string {
	return fmt.Sprintf("%s-%d", base, userID)
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// Rows converts expenses into sheet values, header first.
func Rows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, toRow(export.Header))
	for _, e := range expenses {
		rows = append(rows, toRow(export.Record(e)))
	}
	return rows
}

func toRow(rec []string) []any {
	row := make([]any, len(rec))
	for i, v := range rec {
		row[i] = v
	}
	return row
}

// Export implements ports.ExpenseExporter. The user's tab is created when
// missing and fully replaced otherwise.
func (c *Client) Export(ctx context.Context, user core.User, expenses []core.Expense) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	tab := TabName(c.sheetBase, user.ID)

	if err := c.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	quoted := quoteSheet(tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", tab, err)
	}

	rows := Rows(expenses)
	rng := fmt.Sprintf("%s!A1:D%d", quoted, len(rows))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update sheet %s: %w", tab, err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentSheets).InfoContext(ctx, "Expenses exported to Google Sheets",
		applog.FieldUserID, user.ID,
		"spreadsheet_id", c.spreadsheetID,
		"sheet", tab,
		"rows", len(rows)-1)

	return fmt.Sprintf("%s!A1:D%d", tab, len(rows)), nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	applog.FromContext(ctx).WithComponent(applog.ComponentSheets).InfoContext(ctx, "Created sheet tab", "sheet", tab)
	return nil
}
