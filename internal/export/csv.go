package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/ports"
)

// Header is the first row of every export.
var Header = []string{"description", "amount", "category", "date"}

// Record renders e as an export row matching Header.
func Record(e core.Expense) []string {
	return []string{e.Description, e.Amount.String(), e.Category, e.Date}
}

// WriteCSV writes the header and one row per expense to w.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range expenses {
		if err := cw.Write(Record(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the export file name for a user.
func FileName(userID int64) string {
	return fmt.Sprintf("expenses-%d.csv", userID)
}

// CSVFile exports to expenses-<userId>.csv inside Dir, replacing any
// existing file.
type CSVFile struct {
	Dir string
}

var _ ports.ExpenseExporter = CSVFile{}

func (f CSVFile) Export(ctx context.Context, user core.User, expenses []core.Expense) (string, error) {
	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(user.ID))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(file, expenses); err != nil {
		file.Close()
		return "", fmt.Errorf("write export file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentExport).DebugContext(ctx, "Expenses written",
		applog.FieldUserID, user.ID,
		applog.FieldPath, path,
		applog.FieldCount, len(expenses))
	return path, nil
}
