package google

import (
	"context"
	"testing"

	ports "zawadi/internal/sheets"
)

func TestRowValuesOrder(t *testing.T) {
	row := ports.MirrorRow{
		Source:  "expenses",
		ID:      7,
		Date:    "2025-03-14",
		Title:   "Gate repair",
		Detail:  "Maintenance",
		Amount:  "KES 3,500.00",
		Remarks: "paid via M-Pesa",
	}

	got := rowValues(row)
	want := []any{"expenses", int64(7), "2025-03-14", "Gate repair", "Maintenance", "KES 3,500.00", "paid via M-Pesa"}
	if len(got) != len(want) {
		t.Fatalf("rowValues() returned %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAppendRowWithoutService(t *testing.T) {
	c := &Client{}
	if _, err := c.AppendRow(context.Background(), ports.MirrorRow{}); err == nil {
		t.Error("AppendRow() on uninitialized client should fail")
	}
}
