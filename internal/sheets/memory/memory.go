package memory

import (
	"context"
	"fmt"
	"sync"

	"opsdesk/internal/sheets"
)

// Exporter keeps exported reports in memory. It backs local development
// without Google credentials.
type Exporter struct {
	mu      sync.Mutex
	reports []sheets.Report
	values  [][][]interface{}
	err     error
}

var _ sheets.SummaryExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// FailWith makes subsequent exports return err.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *Exporter) ExportSummary(_ context.Context, r sheets.Report) (sheets.ExportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return sheets.ExportResult{}, e.err
	}
	vals := sheets.Values(r)
	e.reports = append(e.reports, r)
	e.values = append(e.values, vals)
	return sheets.ExportResult{URL: fmt.Sprintf("mem:%d", len(e.reports)), Rows: len(vals)}, nil
}

// Reports returns a copy of every exported report.
func (e *Exporter) Reports() []sheets.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sheets.Report(nil), e.reports...)
}

// LastValues returns the rows written by the latest export.
func (e *Exporter) LastValues() [][]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.values) == 0 {
		return nil
	}
	return e.values[len(e.values)-1]
}
