// Package memory is the in-memory report export adapter, used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/report"
)

type Store struct {
	mu     sync.Mutex
	blocks [][][]any
}

var _ report.Writer = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendReport stores the flattened report block and returns a synthetic
// reference.
func (s *Store) AppendReport(_ context.Context, userID string, generatedAt time.Time, r analytics.Report) (string, error) {
	rows := report.Rows(userID, generatedAt, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, rows)
	return fmt.Sprintf("mem-%d", len(s.blocks)), nil
}

// Blocks returns a copy of the stored report blocks.
func (s *Store) Blocks() [][][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][][]any, len(s.blocks))
	copy(out, s.blocks)
	return out
}
