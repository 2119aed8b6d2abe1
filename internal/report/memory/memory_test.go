package memory

import (
	"context"
	"testing"
	"time"

	"finsight/internal/analytics"
)

func TestAppendReport(t *testing.T) {
	store := New()
	r := analytics.Report{
		Patterns: []analytics.CategorySpending{
			{Category: "food", Amount: 150, Percentage: 88.2, HighSpending: true},
		},
		Recommendations: []analytics.Recommendation{
			{Category: "food", Message: "reduce", Priority: analytics.PriorityHigh},
		},
		ForecastDays: 30,
		Forecast:     120.5,
	}

	ref, err := store.AppendReport(context.Background(), "user1", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), r)
	if err != nil {
		t.Fatalf("AppendReport() error = %v", err)
	}
	if ref != "mem-1" {
		t.Errorf("ref = %s, want mem-1", ref)
	}

	blocks := store.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	// header + category + recommendation + forecast + anomalies
	if len(blocks[0]) != 5 {
		t.Errorf("block has %d rows, want 5", len(blocks[0]))
	}
}
