package ledger

import (
	"errors"
	"testing"
	"time"

	"zawadi/internal/core"
)

func kes(shillings int64) core.Money {
	return core.Money{Cents: shillings * 100}
}

func TestCalendarStrategy(t *testing.T) {
	cases := []struct {
		month time.Month
		want  int
	}{
		{time.January, 1},
		{time.March, 3},
		{time.December, 12},
	}
	for _, tc := range cases {
		now := time.Date(2025, tc.month, 15, 0, 0, 0, 0, time.UTC)
		if got := (CalendarStrategy{}).ElapsedMonths(now); got != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.month, got, tc.want)
		}
	}
}

func TestAnchoredStrategy(t *testing.T) {
	s := AnchoredStrategy{Anchor: time.July}
	cases := []struct {
		month time.Month
		want  int
	}{
		{time.July, 1},
		{time.December, 6},
		{time.January, 7},
		{time.June, 12},
	}
	for _, tc := range cases {
		now := time.Date(2025, tc.month, 1, 0, 0, 0, 0, time.UTC)
		if got := s.ElapsedMonths(now); got != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.month, got, tc.want)
		}
	}
}

func TestNewElapsedStrategy(t *testing.T) {
	if _, err := NewElapsedStrategy("calendar", 0); err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if _, err := NewElapsedStrategy("anchored", time.July); err != nil {
		t.Fatalf("anchored: %v", err)
	}
	if _, err := NewElapsedStrategy("lunar", 0); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

// Mirrors the reference scenario: house A01 at 2000/month posts two full
// months, then a zero third month while three months have elapsed.
func TestPostDebtDerivation(t *testing.T) {
	h := &core.Household{HouseNo: "A01", FamilyName: "Test"}
	rate := Rate{Monthly: kes(2000), Found: true}
	strat := CalendarStrategy{}

	feb := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
	if err := Post(h, rate, 1, kes(2000), feb, strat); err != nil {
		t.Fatalf("post month 1: %v", err)
	}
	if err := Post(h, rate, 2, kes(2000), feb, strat); err != nil {
		t.Fatalf("post month 2: %v", err)
	}
	if h.YearToDate != kes(4000) {
		t.Fatalf("ytd = %d, want %d", h.YearToDate.Cents, kes(4000).Cents)
	}
	if h.CurrentDebt != kes(0) {
		t.Fatalf("current_debt = %d, want 0", h.CurrentDebt.Cents)
	}

	mar := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	if err := Post(h, rate, 3, kes(0), mar, strat); err != nil {
		t.Fatalf("post month 3: %v", err)
	}
	if h.YearToDate != kes(4000) {
		t.Fatalf("ytd = %d, want %d", h.YearToDate.Cents, kes(4000).Cents)
	}
	if h.CurrentDebt != kes(2000) {
		t.Fatalf("current_debt = %d, want %d", h.CurrentDebt.Cents, kes(2000).Cents)
	}
}

func TestPostOverwritesNotAccumulates(t *testing.T) {
	h := &core.Household{HouseNo: "H-01", FamilyName: "Achieng"}
	rate := Rate{Monthly: kes(1000), Found: true}
	now := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	if err := Post(h, rate, 1, kes(500), now, CalendarStrategy{}); err != nil {
		t.Fatal(err)
	}
	if err := Post(h, rate, 1, kes(1000), now, CalendarStrategy{}); err != nil {
		t.Fatal(err)
	}
	if h.Months[0] != kes(1000) {
		t.Fatalf("month 1 = %d, want %d (overwrite, not add)", h.Months[0].Cents, kes(1000).Cents)
	}
	if h.YearToDate != kes(1000) {
		t.Fatalf("ytd = %d, want %d", h.YearToDate.Cents, kes(1000).Cents)
	}
}

func TestPostValidation(t *testing.T) {
	h := &core.Household{HouseNo: "H-01", FamilyName: "Achieng"}
	rate := Rate{Monthly: kes(1000), Found: true}
	now := time.Now().UTC()

	for _, month := range []int{0, 13, -1} {
		err := Post(h, rate, month, kes(10), now, CalendarStrategy{})
		if !errors.Is(err, core.ErrInvalidInput) {
			t.Fatalf("month %d: expected ErrInvalidInput, got %v", month, err)
		}
	}
	err := Post(h, rate, 1, core.Money{Cents: -100}, now, CalendarStrategy{})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("negative amount: expected ErrInvalidInput, got %v", err)
	}
}

func TestNoRateMeansNoDebt(t *testing.T) {
	h := &core.Household{HouseNo: "H-09", FamilyName: "Njoroge"}
	now := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)

	if err := Post(h, Rate{}, 5, kes(0), now, CalendarStrategy{}); err != nil {
		t.Fatal(err)
	}
	if h.CurrentDebt != kes(0) {
		t.Fatalf("current_debt = %d, want 0 for rateless household", h.CurrentDebt.Cents)
	}
}

func TestOverpaymentClampsAtZero(t *testing.T) {
	h := &core.Household{HouseNo: "H-02", FamilyName: "Kiptoo"}
	rate := Rate{Monthly: kes(1500), Found: true}
	jan := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)

	// Pays half the year up front in January.
	if err := Post(h, rate, 1, kes(9000), jan, CalendarStrategy{}); err != nil {
		t.Fatal(err)
	}
	if h.CurrentDebt != kes(0) {
		t.Fatalf("current_debt = %d, want 0 (clamped, not negative)", h.CurrentDebt.Cents)
	}
}

func TestCarryForwardIdempotent(t *testing.T) {
	h := &core.Household{HouseNo: "H-01", FamilyName: "Achieng", CumulativeDebt: kes(500)}
	rate := Rate{Monthly: kes(1000), Found: true}
	dec := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

	if err := Post(h, rate, 6, kes(3000), dec, CalendarStrategy{}); err != nil {
		t.Fatal(err)
	}
	wantDebt := h.CurrentDebt // 12*1000 - 3000 = 9000

	if !CarryForward(h, 2025, dec) {
		t.Fatal("first carry-forward should apply")
	}
	if h.CumulativeDebt != kes(500).Add(wantDebt) {
		t.Fatalf("cumulative = %d, want %d", h.CumulativeDebt.Cents, kes(500).Add(wantDebt).Cents)
	}
	if h.YearToDate != kes(0) || h.CurrentDebt != kes(0) {
		t.Fatalf("expected zeroed year, got ytd=%d debt=%d", h.YearToDate.Cents, h.CurrentDebt.Cents)
	}
	for i, m := range h.Months {
		if !m.IsZero() {
			t.Fatalf("month %d not reset", i+1)
		}
	}

	snapshot := *h
	if CarryForward(h, 2025, dec) {
		t.Fatal("second carry-forward for the same year must be a no-op")
	}
	if *h != snapshot {
		t.Fatal("repeat carry-forward changed state")
	}
}
