// Package report defines the export port for analysis reports and its
// adapters. A report snapshot is flattened into rows and appended to an
// external destination (Google Sheets in production, memory in tests/dev).
package report

import (
	"context"
	"time"

	"finsight/internal/analytics"
)

// Writer is the outbound port for report export.
type Writer interface {
	// AppendReport flattens and appends an analysis report, returning an
	// adapter-specific reference for the written block.
	AppendReport(ctx context.Context, userID string, generatedAt time.Time, r analytics.Report) (ref string, err error)
}

// Rows flattens a report into spreadsheet-shaped rows. The first row is a
// header for the export block; category rows follow, then summary lines.
func Rows(userID string, generatedAt time.Time, r analytics.Report) [][]any {
	rows := [][]any{
		{"generated_at", generatedAt.Format(time.RFC3339), "user", userID},
	}

	for _, p := range r.Patterns {
		rows = append(rows, []any{"category", p.Category, p.Amount, p.Percentage, p.HighSpending})
	}
	for _, rec := range r.Recommendations {
		rows = append(rows, []any{"recommendation", rec.Priority, rec.Category, rec.Message})
	}
	if s := r.IncomeStability; s != nil {
		rows = append(rows, []any{"income_stability", s.Stable, s.VariabilityPercent, string(s.Trend)})
	}
	rows = append(rows, []any{"forecast", r.ForecastDays, r.Forecast})
	rows = append(rows, []any{"anomalies", len(r.Anomalies)})

	return rows
}
