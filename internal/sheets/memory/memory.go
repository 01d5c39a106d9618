// Package memory is an in-process RowAppender for tests and for running
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"zawadi/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.MirrorRow
}

func New() *Store {
	return &Store{}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, row sheets.MirrorRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.MirrorRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.MirrorRow(nil), s.rows...)
}
