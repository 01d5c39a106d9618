package cash

import (
	"context"
	"errors"
	"testing"

	"zawadi/internal/core"
)

type fakeQuerier struct {
	ytd      int64
	special  int64
	expenses int64
	pos      core.CashPosition
	sumErr   error
	saves    int
}

func (f *fakeQuerier) SumContributionYTD(ctx context.Context) (int64, error) {
	return f.ytd, f.sumErr
}

func (f *fakeQuerier) SumSpecial(ctx context.Context) (int64, error) {
	return f.special, nil
}

func (f *fakeQuerier) SumExpenses(ctx context.Context) (int64, error) {
	return f.expenses, nil
}

func (f *fakeQuerier) GetCashPosition(ctx context.Context) (core.CashPosition, error) {
	return f.pos, nil
}

func (f *fakeQuerier) SaveCashPosition(ctx context.Context, p core.CashPosition) error {
	f.pos = p
	f.saves++
	return nil
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name        string
		q           fakeQuerier
		wantBalance int64
	}{
		{
			name: "sums all journals",
			q: fakeQuerier{
				ytd: 400000, special: 50000, expenses: 120000,
				pos: core.CashPosition{
					BalanceCarriedForward: core.Money{Cents: 1000000},
					Withdrawal:            core.Money{Cents: 30000},
				},
			},
			wantBalance: 1000000 + 400000 + 50000 - 120000 - 30000,
		},
		{
			name:        "empty books",
			q:           fakeQuerier{},
			wantBalance: 0,
		},
		{
			name: "expenses can drive the balance negative",
			q: fakeQuerier{
				ytd: 100000, expenses: 250000,
			},
			wantBalance: -150000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recompute(context.Background(), &tt.q)
			if err != nil {
				t.Fatalf("Recompute() error = %v", err)
			}
			if got.Balance.Cents != tt.wantBalance {
				t.Errorf("Recompute() balance = %d, want %d", got.Balance.Cents, tt.wantBalance)
			}
			if tt.q.pos.Balance.Cents != tt.wantBalance {
				t.Errorf("persisted balance = %d, want %d", tt.q.pos.Balance.Cents, tt.wantBalance)
			}
		})
	}
}

func TestRecomputePropagatesErrors(t *testing.T) {
	boom := errors.New("disk gone")
	q := &fakeQuerier{sumErr: boom}
	if _, err := Recompute(context.Background(), q); !errors.Is(err, boom) {
		t.Errorf("Recompute() error = %v, want wrapped sum error", err)
	}
	if q.saves != 0 {
		t.Error("Recompute() saved a position despite the sum failing")
	}
}

func TestSetOpening(t *testing.T) {
	q := &fakeQuerier{ytd: 200000}

	got, err := SetOpening(context.Background(), q,
		core.Money{Cents: 750000}, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("SetOpening() error = %v", err)
	}
	if got.BalanceCarriedForward.Cents != 750000 {
		t.Errorf("carried forward = %d, want 750000", got.BalanceCarriedForward.Cents)
	}
	if got.Balance.Cents != 750000+200000-50000 {
		t.Errorf("balance = %d, want %d", got.Balance.Cents, 750000+200000-50000)
	}
}

func TestSetOpeningRejectsNegative(t *testing.T) {
	q := &fakeQuerier{}
	_, err := SetOpening(context.Background(), q,
		core.Money{Cents: -1}, core.Money{})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("SetOpening() error = %v, want ErrInvalidInput", err)
	}
	if q.saves != 0 {
		t.Error("SetOpening() persisted despite invalid input")
	}
}
