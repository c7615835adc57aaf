package export

import (
	"context"

	"expenses/internal/core"
	"expenses/internal/ports"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one sink.
type Result struct {
	Ref string
	Err error
}

// Fanout runs every exporter concurrently. A failing sink does not cancel
// the others, since their artifacts may already be written.
type Fanout struct {
	exporters []ports.ExpenseExporter
}

func NewFanout(exporters ...ports.ExpenseExporter) *Fanout {
	return &Fanout{exporters: exporters}
}

// ExportAll exports to every sink and returns one Result per exporter, in
// exporter order, along with the first error encountered.
func (f *Fanout) ExportAll(ctx context.Context, user core.User, expenses []core.Expense) ([]Result, error) {
	results := make([]Result, len(f.exporters))
	var g errgroup.Group
	for i, exp := range f.exporters {
		i, exp := i, exp
		g.Go(func() error {
			ref, err := exp.Export(ctx, user, expenses)
			results[i] = Result{Ref: ref, Err: err}
			return err
		})
	}
	return results, g.Wait()
}
