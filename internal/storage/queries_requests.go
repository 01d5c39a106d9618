package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zawadi/internal/core"
)

func requestTable(kind core.RequestKind) (string, error) {
	switch kind {
	case core.KindExpense:
		return "expense_requests", nil
	case core.KindContribution:
		return "contribution_requests", nil
	case core.KindSpecial:
		return "special_requests", nil
	}
	return "", core.InvalidInputf("kind: unknown request kind %q", string(kind))
}

// InsertRequest stages a new pending request in the queue of its kind.
func (q *Queries) InsertRequest(ctx context.Context, r core.Request) (int64, error) {
	now := encodeTime(time.Now())
	var res sql.Result
	var err error
	switch r.Kind {
	case core.KindExpense:
		res, err = q.db.ExecContext(ctx, `
			INSERT INTO expense_requests (date, description, category, requested_by, amount, status, remarks, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Date.String(), r.Description, r.Category, r.RequestedBy,
			r.Amount.Cents, string(core.StatusPending), r.Remarks, now)
	case core.KindContribution:
		res, err = q.db.ExecContext(ctx, `
			INSERT INTO contribution_requests (date, house_no, month, requested_by, amount, status, remarks, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Date.String(), r.HouseNo, r.Month, r.RequestedBy,
			r.Amount.Cents, string(core.StatusPending), r.Remarks, now)
	case core.KindSpecial:
		res, err = q.db.ExecContext(ctx, `
			INSERT INTO special_requests (date, event, type, requested_by, amount, status, remarks, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Date.String(), r.Event, r.Type, r.RequestedBy,
			r.Amount.Cents, string(core.StatusPending), r.Remarks, now)
	default:
		return 0, core.InvalidInputf("kind: unknown request kind %q", string(r.Kind))
	}
	if err != nil {
		return 0, fmt.Errorf("insert %s request: %w", r.Kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s request id: %w", r.Kind, err)
	}
	return id, nil
}

// GetRequest returns one request by kind and id.
func (q *Queries) GetRequest(ctx context.Context, kind core.RequestKind, id int64) (core.Request, error) {
	r := core.Request{ID: id, Kind: kind}
	var date, createdAt, status string
	var amount int64
	var err error
	switch kind {
	case core.KindExpense:
		err = q.db.QueryRowContext(ctx, `
			SELECT date, description, category, requested_by, amount, status, remarks, created_at
			  FROM expense_requests WHERE id = ?`, id).
			Scan(&date, &r.Description, &r.Category, &r.RequestedBy, &amount, &status, &r.Remarks, &createdAt)
	case core.KindContribution:
		err = q.db.QueryRowContext(ctx, `
			SELECT date, house_no, month, requested_by, amount, status, remarks, created_at
			  FROM contribution_requests WHERE id = ?`, id).
			Scan(&date, &r.HouseNo, &r.Month, &r.RequestedBy, &amount, &status, &r.Remarks, &createdAt)
	case core.KindSpecial:
		err = q.db.QueryRowContext(ctx, `
			SELECT date, event, type, requested_by, amount, status, remarks, created_at
			  FROM special_requests WHERE id = ?`, id).
			Scan(&date, &r.Event, &r.Type, &r.RequestedBy, &amount, &status, &r.Remarks, &createdAt)
	default:
		return core.Request{}, core.InvalidInputf("kind: unknown request kind %q", string(kind))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.Request{}, core.NotFoundf("%s request %d", kind, id)
	}
	if err != nil {
		return core.Request{}, fmt.Errorf("get %s request %d: %w", kind, id, err)
	}
	r.Date = decodeDate(date)
	r.Amount = core.Money{Cents: amount}
	r.Status = core.RequestStatus(status)
	r.CreatedAt = decodeTime(createdAt)
	return r, nil
}

// ListRequests returns requests of one kind, optionally filtered by
// status, newest first.
func (q *Queries) ListRequests(ctx context.Context, kind core.RequestKind, status core.RequestStatus) ([]core.Request, error) {
	table, err := requestTable(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT id FROM ` + table
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s requests: %w", kind, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan request id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]core.Request, 0, len(ids))
	for _, id := range ids {
		r, err := q.GetRequest(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// UpdateRequestStatus flips status from → to under a compare-and-swap: the
// update applies only if the row is still in the from status, so a lost
// race reports false instead of double-applying. Review remarks are
// prepended to the request's own remarks, preserving the trail.
func (q *Queries) UpdateRequestStatus(ctx context.Context, kind core.RequestKind, id int64, from, to core.RequestStatus, remarks string) (bool, error) {
	table, err := requestTable(kind)
	if err != nil {
		return false, err
	}
	res, err := q.db.ExecContext(ctx, `
		UPDATE `+table+`
		   SET status = ?,
		       remarks = CASE WHEN ? = '' THEN remarks ELSE ? || ' | ' || remarks END
		 WHERE id = ? AND status = ?`,
		string(to), remarks, remarks, id, string(from))
	if err != nil {
		return false, fmt.Errorf("update %s request %d status: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s request %d status: %w", kind, id, err)
	}
	return n == 1, nil
}
