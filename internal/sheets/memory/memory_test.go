package memory

import (
	"context"
	"testing"

	"zawadi/internal/sheets"
)

func TestAppendRow(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendRow(ctx, sheets.MirrorRow{Source: "expenses", ID: 1})
	if err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("AppendRow() ref = %q, want mem:1", ref)
	}

	s.AppendRow(ctx, sheets.MirrorRow{Source: "special", ID: 2})

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("Rows() returned %d rows, want 2", len(rows))
	}
	if rows[1].Source != "special" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}
