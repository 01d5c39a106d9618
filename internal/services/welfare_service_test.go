package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"zawadi/internal/core"
	"zawadi/internal/ledger"
	"zawadi/internal/storage"
)

type recordingPublisher struct {
	published []string
	closed    bool
}

func (p *recordingPublisher) PublishMirror(ctx context.Context, source string, id int64) error {
	p.published = append(p.published, source)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func newTestService(t *testing.T) (*WelfareService, *recordingPublisher) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "welfare.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	pub := &recordingPublisher{}
	svc := NewWelfareService(repo, pub, ledger.CalendarStrategy{})
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { repo.Close() })
	return svc, pub
}

func TestPostMonthlyContribution(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Seeded H-01 is on Standard (100000 cents per month). Paying January
	// and February in full leaves March outstanding as of mid March.
	if _, err := svc.PostMonthlyContribution(ctx, "H-01", 1, core.Money{Cents: 100000}); err != nil {
		t.Fatalf("PostMonthlyContribution(jan) error = %v", err)
	}
	h, err := svc.PostMonthlyContribution(ctx, "H-01", 2, core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("PostMonthlyContribution(feb) error = %v", err)
	}
	if h.YearToDate.Cents != 200000 {
		t.Errorf("ytd = %d, want 200000", h.YearToDate.Cents)
	}
	if h.CurrentDebt.Cents != 100000 {
		t.Errorf("current debt = %d, want 100000 (march unpaid)", h.CurrentDebt.Cents)
	}

	cash, err := svc.GetCashPosition(ctx)
	if err != nil {
		t.Fatalf("GetCashPosition() error = %v", err)
	}
	if cash.Balance.Cents != 200000 {
		t.Errorf("cash balance = %d, want 200000", cash.Balance.Cents)
	}
}

func TestPostMonthlyContributionUnknownHousehold(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.PostMonthlyContribution(context.Background(), "H-99", 1, core.Money{Cents: 1000})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpsertRateRederivesDebt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.PostMonthlyContribution(ctx, "H-01", 1, core.Money{Cents: 100000}); err != nil {
		t.Fatalf("PostMonthlyContribution() error = %v", err)
	}

	// Raising Standard to 2000/month reprices the three elapsed months.
	err := svc.UpsertRate(ctx, core.RateCategory{
		Name:          "Standard",
		MonthlyAmount: core.Money{Cents: 200000},
	})
	if err != nil {
		t.Fatalf("UpsertRate() error = %v", err)
	}

	h, err := svc.GetHousehold(ctx, "H-01")
	if err != nil {
		t.Fatalf("GetHousehold() error = %v", err)
	}
	if h.CurrentDebt.Cents != 3*200000-100000 {
		t.Errorf("current debt = %d, want %d", h.CurrentDebt.Cents, 3*200000-100000)
	}
}

func TestUpdateHouseholdContactClearsDebtWithoutRate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.PostMonthlyContribution(ctx, "H-01", 1, core.Money{Cents: 50000}); err != nil {
		t.Fatalf("PostMonthlyContribution() error = %v", err)
	}

	h, err := svc.UpdateHouseholdContact(ctx, "H-01", "", "achieng@example.com")
	if err != nil {
		t.Fatalf("UpdateHouseholdContact() error = %v", err)
	}
	if !h.CurrentDebt.IsZero() {
		t.Errorf("debt without a rate = %d, want 0", h.CurrentDebt.Cents)
	}

	_, err = svc.UpdateHouseholdContact(ctx, "H-01", "NoSuchRate", "")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown rate error = %v, want ErrNotFound", err)
	}
}

func TestCarryForwardDebt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.PostMonthlyContribution(ctx, "H-01", 1, core.Money{Cents: 100000}); err != nil {
		t.Fatalf("PostMonthlyContribution() error = %v", err)
	}

	rolled, err := svc.CarryForwardDebt(ctx, 2026)
	if err != nil {
		t.Fatalf("CarryForwardDebt() error = %v", err)
	}
	if rolled != 2 {
		t.Errorf("rolled %d households, want 2", rolled)
	}

	h, _ := svc.GetHousehold(ctx, "H-01")
	if h.YearToDate.Cents != 0 || h.Months[0].Cents != 0 {
		t.Errorf("ledger not reset: ytd=%d jan=%d", h.YearToDate.Cents, h.Months[0].Cents)
	}
	if h.CumulativeDebt.Cents != 200000 {
		t.Errorf("cumulative debt = %d, want 200000", h.CumulativeDebt.Cents)
	}

	// Second run for the same year is a no-op.
	rolled, err = svc.CarryForwardDebt(ctx, 2026)
	if err != nil {
		t.Fatalf("second CarryForwardDebt() error = %v", err)
	}
	if rolled != 0 {
		t.Errorf("second run rolled %d households, want 0", rolled)
	}
}

func TestApproveRequestPublishesMirror(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	date := core.NewDate(2025, 3, 10)
	r, err := svc.SubmitRequest(ctx, core.Request{
		Kind:        core.KindExpense,
		Date:        date,
		Description: "Street lighting",
		RequestedBy: "Treasurer",
		Amount:      core.Money{Cents: 80000},
	})
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v", err)
	}

	res, err := svc.ApproveRequest(ctx, core.KindExpense, r.ID, "Chairperson", "")
	if err != nil {
		t.Fatalf("ApproveRequest() error = %v", err)
	}
	if res.MaterializedID == 0 {
		t.Fatal("no journal row materialized")
	}
	if len(pub.published) != 1 || pub.published[0] != "expenses" {
		t.Errorf("published = %v, want one expenses message", pub.published)
	}

	expenses, _ := svc.ListExpenses(ctx)
	if len(expenses) != 1 {
		t.Fatalf("journal has %d rows, want 1", len(expenses))
	}
	if res.Cash.Balance.Cents != -80000 {
		t.Errorf("cash balance = %d, want -80000", res.Cash.Balance.Cents)
	}
}

func TestApproveContributionDoesNotPublish(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	date := core.NewDate(2025, 3, 10)
	r, err := svc.SubmitRequest(ctx, core.Request{
		Kind:        core.KindContribution,
		Date:        date,
		HouseNo:     "H-01",
		Month:       3,
		RequestedBy: "Treasurer",
		Amount:      core.Money{Cents: 100000},
	})
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v", err)
	}

	if _, err := svc.ApproveRequest(ctx, core.KindContribution, r.ID, "Chairperson", ""); err != nil {
		t.Fatalf("ApproveRequest() error = %v", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("contribution approval published %v", pub.published)
	}

	h, _ := svc.GetHousehold(ctx, "H-01")
	if h.Months[2].Cents != 100000 {
		t.Errorf("march slot = %d, want 100000", h.Months[2].Cents)
	}
}

func TestSetCashOpening(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.SetCashOpening(ctx, core.Money{Cents: 1000000}, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("SetCashOpening() error = %v", err)
	}
	if p.Balance.Cents != 950000 {
		t.Errorf("balance = %d, want 950000", p.Balance.Cents)
	}

	if _, err := svc.SetCashOpening(ctx, core.Money{Cents: -1}, core.Money{}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("negative opening error = %v, want ErrInvalidInput", err)
	}
}
