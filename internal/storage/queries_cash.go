package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zawadi/internal/core"
)

// GetCashPosition reads the singleton cash row. The row is seeded by the
// migrations, so a missing row means the schema was tampered with.
func (q *Queries) GetCashPosition(ctx context.Context) (core.CashPosition, error) {
	var p core.CashPosition
	var cd, wd, bal int64
	var updatedAt string
	err := q.db.QueryRowContext(ctx, `
		SELECT cash_balance_cd, cash_withdrawal, cash_balance, updated_at
		  FROM cash_management WHERE id = 1`).
		Scan(&cd, &wd, &bal, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashPosition{}, core.NotFoundf("cash position")
	}
	if err != nil {
		return core.CashPosition{}, fmt.Errorf("get cash position: %w", err)
	}
	p.BalanceCarriedForward = core.Money{Cents: cd}
	p.Withdrawal = core.Money{Cents: wd}
	p.Balance = core.Money{Cents: bal}
	p.UpdatedAt = decodeTime(updatedAt)
	return p, nil
}

// SaveCashPosition overwrites the singleton cash row.
func (q *Queries) SaveCashPosition(ctx context.Context, p core.CashPosition) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE cash_management
		   SET cash_balance_cd = ?, cash_withdrawal = ?, cash_balance = ?, updated_at = ?
		 WHERE id = 1`,
		p.BalanceCarriedForward.Cents, p.Withdrawal.Cents, p.Balance.Cents,
		encodeTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save cash position: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFoundf("cash position")
	}
	return nil
}
