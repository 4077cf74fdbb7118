// Package sheets exports expense summaries to a spreadsheet.
package sheets

import (
	"context"
	"time"

	"opsdesk/internal/aggregate"
	"opsdesk/internal/daterange"
)

// Report is one expense summary export.
type Report struct {
	Range       daterange.Range
	Summary     aggregate.Summary
	GeneratedAt time.Time
}

type ExportResult struct {
	// URL opens the written sheet.
	URL  string
	Rows int
}

// SummaryExporter writes a report, replacing what the target sheet held.
type SummaryExporter interface {
	ExportSummary(ctx context.Context, r Report) (ExportResult, error)
}

// Values lays the report out as sheet rows: a header block followed by the
// category, user and payment type tables, separated by blank rows. Amounts
// are written as numbers in major units.
func Values(r Report) [][]interface{} {
	s := r.Summary
	rows := [][]interface{}{
		{"Expense summary"},
		{"Range", r.Range.String()},
		{"Generated", r.GeneratedAt.Format("2006-01-02 15:04")},
		{"Expenses", s.Count},
		{"Total", s.Total.Major()},
	}
	rows = appendTable(rows, "Category", s.ByCategory)
	rows = appendTable(rows, "Paid by", s.ByUser)
	rows = appendTable(rows, "Payment type", s.ByType)
	return rows
}

func appendTable(rows [][]interface{}, title string, data []aggregate.Row) [][]interface{} {
	rows = append(rows, []interface{}{}, []interface{}{title, "Amount"})
	for _, row := range data {
		rows = append(rows, []interface{}{row.Name, row.Amount.Major()})
	}
	return rows
}
