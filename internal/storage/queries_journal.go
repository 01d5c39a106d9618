package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zawadi/internal/core"
)

// MirrorStatus tracks whether a journal row has been appended to the
// committee spreadsheet.
const (
	MirrorPending = "pending"
	MirrorDone    = "mirrored"
	MirrorError   = "error"
)

const expenseColumns = `id, date, description, category, vendor, phone, amount,
	payment_mode, remarks, receipt_ref, created_at`

func scanExpense(s scanner) (core.ExpenseEntry, error) {
	var e core.ExpenseEntry
	var date, createdAt string
	var amount int64
	err := s.Scan(&e.ID, &date, &e.Description, &e.Category, &e.Vendor, &e.Phone,
		&amount, &e.PaymentMode, &e.Remarks, &e.ReceiptRef, &createdAt)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	e.Date = decodeDate(date)
	e.Amount = core.Money{Cents: amount}
	e.CreatedAt = decodeTime(createdAt)
	return e, nil
}

// InsertExpense appends one row to the expense journal.
func (q *Queries) InsertExpense(ctx context.Context, e core.ExpenseEntry) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO expenses (date, description, category, vendor, phone, amount,
		                      payment_mode, remarks, receipt_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Date.String(), e.Description, e.Category, e.Vendor, e.Phone,
		e.Amount.Cents, e.PaymentMode, e.Remarks, e.ReceiptRef, encodeTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert expense id: %w", err)
	}
	return id, nil
}

// GetExpense returns one expense row by id.
func (q *Queries) GetExpense(ctx context.Context, id int64) (core.ExpenseEntry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseEntry{}, core.NotFoundf("expense %d", id)
	}
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns the journal, newest first.
func (q *Queries) ListExpenses(ctx context.Context) ([]core.ExpenseEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseEntry
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SumExpenses totals the expense journal.
func (q *Queries) SumExpenses(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// UpdateExpenseCorrections applies the only legal post-approval edits:
// remarks and the receipt reference.
func (q *Queries) UpdateExpenseCorrections(ctx context.Context, id int64, remarks, receiptRef string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE expenses SET remarks = ?, receipt_ref = ? WHERE id = ?`,
		remarks, receiptRef, id)
	if err != nil {
		return fmt.Errorf("update expense corrections %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFoundf("expense %d", id)
	}
	return nil
}

// ListUnmirroredExpenses returns expense ids not yet appended to the
// spreadsheet, oldest first.
func (q *Queries) ListUnmirroredExpenses(ctx context.Context, limit int) ([]int64, error) {
	return q.listUnmirrored(ctx, "expenses", limit)
}

// MarkExpenseMirrored records a successful spreadsheet append.
func (q *Queries) MarkExpenseMirrored(ctx context.Context, id int64) error {
	return q.setMirrorStatus(ctx, "expenses", id, MirrorDone)
}

// MarkExpenseMirrorError records a failed spreadsheet append.
func (q *Queries) MarkExpenseMirrorError(ctx context.Context, id int64) error {
	return q.setMirrorStatus(ctx, "expenses", id, MirrorError)
}

const specialColumns = `id, date, event, type, contributors, amount, remarks, created_at`

func scanSpecial(s scanner) (core.SpecialContribution, error) {
	var sc core.SpecialContribution
	var date, createdAt string
	var amount int64
	err := s.Scan(&sc.ID, &date, &sc.Event, &sc.Type, &sc.Contributors,
		&amount, &sc.Remarks, &createdAt)
	if err != nil {
		return core.SpecialContribution{}, err
	}
	sc.Date = decodeDate(date)
	sc.Amount = core.Money{Cents: amount}
	sc.CreatedAt = decodeTime(createdAt)
	return sc, nil
}

// InsertSpecial appends one special contribution row.
func (q *Queries) InsertSpecial(ctx context.Context, sc core.SpecialContribution) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO special (date, event, type, contributors, amount, remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.Date.String(), sc.Event, sc.Type, sc.Contributors,
		sc.Amount.Cents, sc.Remarks, encodeTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert special: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert special id: %w", err)
	}
	return id, nil
}

// GetSpecial returns one special contribution by id.
func (q *Queries) GetSpecial(ctx context.Context, id int64) (core.SpecialContribution, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+specialColumns+` FROM special WHERE id = ?`, id)
	sc, err := scanSpecial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SpecialContribution{}, core.NotFoundf("special contribution %d", id)
	}
	if err != nil {
		return core.SpecialContribution{}, fmt.Errorf("get special %d: %w", id, err)
	}
	return sc, nil
}

// ListSpecial returns the special contribution journal, newest first.
func (q *Queries) ListSpecial(ctx context.Context) ([]core.SpecialContribution, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+specialColumns+` FROM special ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list special: %w", err)
	}
	defer rows.Close()

	var out []core.SpecialContribution
	for rows.Next() {
		sc, err := scanSpecial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan special: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// SumSpecial totals the special contribution journal.
func (q *Queries) SumSpecial(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM special`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum special: %w", err)
	}
	return total, nil
}

// ListUnmirroredSpecial returns special contribution ids not yet appended
// to the spreadsheet, oldest first.
func (q *Queries) ListUnmirroredSpecial(ctx context.Context, limit int) ([]int64, error) {
	return q.listUnmirrored(ctx, "special", limit)
}

// MarkSpecialMirrored records a successful spreadsheet append.
func (q *Queries) MarkSpecialMirrored(ctx context.Context, id int64) error {
	return q.setMirrorStatus(ctx, "special", id, MirrorDone)
}

// MarkSpecialMirrorError records a failed spreadsheet append.
func (q *Queries) MarkSpecialMirrorError(ctx context.Context, id int64) error {
	return q.setMirrorStatus(ctx, "special", id, MirrorError)
}

func (q *Queries) listUnmirrored(ctx context.Context, table string, limit int) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id FROM `+table+` WHERE mirror_status = ? ORDER BY id ASC LIMIT ?`,
		MirrorPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list unmirrored %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unmirrored id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) setMirrorStatus(ctx context.Context, table string, id int64, status string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE `+table+` SET mirror_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set mirror status on %s %d: %w", table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFoundf("%s row %d", table, id)
	}
	return nil
}
