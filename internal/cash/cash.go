// Package cash maintains the community's single cash position. The
// balance is never edited directly: it is recomputed from the journals
// every time money moves, so the stored figure always agrees with the
// books.
package cash

import (
	"context"
	"fmt"

	"zawadi/internal/core"
)

// Querier is the slice of storage the reconciler needs. *storage.Queries
// satisfies it, inside or outside a transaction.
type Querier interface {
	SumContributionYTD(ctx context.Context) (int64, error)
	SumSpecial(ctx context.Context) (int64, error)
	SumExpenses(ctx context.Context) (int64, error)
	GetCashPosition(ctx context.Context) (core.CashPosition, error)
	SaveCashPosition(ctx context.Context, p core.CashPosition) error
}

// Recompute rederives the cash balance from the journals and persists
// it:
//
//	balance = carried forward + contributions YTD + special - expenses - withdrawal
//
// Run it inside the same transaction as the mutation that moved money.
func Recompute(ctx context.Context, q Querier) (core.CashPosition, error) {
	p, err := q.GetCashPosition(ctx)
	if err != nil {
		return core.CashPosition{}, err
	}

	ytd, err := q.SumContributionYTD(ctx)
	if err != nil {
		return core.CashPosition{}, err
	}
	special, err := q.SumSpecial(ctx)
	if err != nil {
		return core.CashPosition{}, err
	}
	expenses, err := q.SumExpenses(ctx)
	if err != nil {
		return core.CashPosition{}, err
	}

	p.Balance = core.Money{
		Cents: p.BalanceCarriedForward.Cents + ytd + special - expenses - p.Withdrawal.Cents,
	}
	if err := q.SaveCashPosition(ctx, p); err != nil {
		return core.CashPosition{}, err
	}
	return p, nil
}

// SetOpening replaces the carried forward balance and the recorded
// withdrawal, then rederives the running balance.
func SetOpening(ctx context.Context, q Querier, carriedForward, withdrawal core.Money) (core.CashPosition, error) {
	if err := carriedForward.Validate(); err != nil {
		return core.CashPosition{}, fmt.Errorf("carried forward: %w", err)
	}
	if err := withdrawal.Validate(); err != nil {
		return core.CashPosition{}, fmt.Errorf("withdrawal: %w", err)
	}

	p, err := q.GetCashPosition(ctx)
	if err != nil {
		return core.CashPosition{}, err
	}
	p.BalanceCarriedForward = carriedForward
	p.Withdrawal = withdrawal
	if err := q.SaveCashPosition(ctx, p); err != nil {
		return core.CashPosition{}, err
	}
	return Recompute(ctx, q)
}
