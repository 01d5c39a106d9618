package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zawadi/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles all SQL against the welfare schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx rebinds the queries to a transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

// Timestamps are stored as RFC3339 text written from Go; rows created by
// migrations carry an empty string, which reads back as the zero time.
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func decodeDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

const householdColumns = `house_no, family_name, lane, COALESCE(rate_category, ''), email,
	jan, feb, mar, apr, may, jun, jul, aug, sep, oct, nov, "dec",
	ytd, cumulative_debt, current_debt, status, remarks, carried_forward_year, updated_at`

func scanHousehold(s scanner) (core.Household, error) {
	var h core.Household
	var months [12]int64
	var ytd, cumulative, current int64
	var updatedAt string
	err := s.Scan(
		&h.HouseNo, &h.FamilyName, &h.Lane, &h.RateCategory, &h.Email,
		&months[0], &months[1], &months[2], &months[3], &months[4], &months[5],
		&months[6], &months[7], &months[8], &months[9], &months[10], &months[11],
		&ytd, &cumulative, &current, &h.Status, &h.Remarks, &h.CarriedForwardYear, &updatedAt,
	)
	if err != nil {
		return core.Household{}, err
	}
	for i, m := range months {
		h.Months[i] = core.Money{Cents: m}
	}
	h.YearToDate = core.Money{Cents: ytd}
	h.CumulativeDebt = core.Money{Cents: cumulative}
	h.CurrentDebt = core.Money{Cents: current}
	h.UpdatedAt = decodeTime(updatedAt)
	return h, nil
}

// GetHousehold returns one ledger row by house number.
func (q *Queries) GetHousehold(ctx context.Context, houseNo string) (core.Household, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+householdColumns+` FROM contributions WHERE house_no = ?`, houseNo)
	h, err := scanHousehold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Household{}, core.NotFoundf("household %s", houseNo)
	}
	if err != nil {
		return core.Household{}, fmt.Errorf("get household %s: %w", houseNo, err)
	}
	return h, nil
}

// ListHouseholds returns the full ledger ordered by family name.
func (q *Queries) ListHouseholds(ctx context.Context) ([]core.Household, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+householdColumns+` FROM contributions ORDER BY family_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var out []core.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpdateHouseholdLedger persists the mutable ledger fields of a household.
func (q *Queries) UpdateHouseholdLedger(ctx context.Context, h core.Household) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE contributions
		   SET jan = ?, feb = ?, mar = ?, apr = ?, may = ?, jun = ?,
		       jul = ?, aug = ?, sep = ?, oct = ?, nov = ?, "dec" = ?,
		       ytd = ?, cumulative_debt = ?, current_debt = ?,
		       carried_forward_year = ?, updated_at = ?
		 WHERE house_no = ?`,
		h.Months[0].Cents, h.Months[1].Cents, h.Months[2].Cents, h.Months[3].Cents,
		h.Months[4].Cents, h.Months[5].Cents, h.Months[6].Cents, h.Months[7].Cents,
		h.Months[8].Cents, h.Months[9].Cents, h.Months[10].Cents, h.Months[11].Cents,
		h.YearToDate.Cents, h.CumulativeDebt.Cents, h.CurrentDebt.Cents,
		h.CarriedForwardYear, encodeTime(h.UpdatedAt), h.HouseNo,
	)
	if err != nil {
		return fmt.Errorf("update household ledger %s: %w", h.HouseNo, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFoundf("household %s", h.HouseNo)
	}
	return nil
}

// UpdateHouseholdContact updates the rate category and email of a
// household. An empty rate category clears the assignment.
func (q *Queries) UpdateHouseholdContact(ctx context.Context, houseNo, rateCategory, email string) error {
	var rc any
	if rateCategory != "" {
		rc = rateCategory
	}
	res, err := q.db.ExecContext(ctx, `
		UPDATE contributions
		   SET rate_category = ?, email = ?, updated_at = ?
		 WHERE house_no = ?`,
		rc, email, encodeTime(time.Now()), houseNo,
	)
	if err != nil {
		return fmt.Errorf("update household contact %s: %w", houseNo, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFoundf("household %s", houseNo)
	}
	return nil
}

// SumContributionYTD totals year-to-date contributions over all
// households.
func (q *Queries) SumContributionYTD(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ytd), 0) FROM contributions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum contribution ytd: %w", err)
	}
	return total, nil
}

// GetRate looks up a rate category by name.
func (q *Queries) GetRate(ctx context.Context, name string) (core.RateCategory, error) {
	var r core.RateCategory
	var amount int64
	err := q.db.QueryRowContext(ctx,
		`SELECT rate_category, amount FROM rates WHERE rate_category = ?`, name).
		Scan(&r.Name, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RateCategory{}, core.NotFoundf("rate category %s", name)
	}
	if err != nil {
		return core.RateCategory{}, fmt.Errorf("get rate %s: %w", name, err)
	}
	r.MonthlyAmount = core.Money{Cents: amount}
	return r, nil
}

// ListRates returns the rate catalog ordered by name.
func (q *Queries) ListRates(ctx context.Context) ([]core.RateCategory, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT rate_category, amount FROM rates ORDER BY rate_category ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var out []core.RateCategory
	for rows.Next() {
		var r core.RateCategory
		var amount int64
		if err := rows.Scan(&r.Name, &amount); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		r.MonthlyAmount = core.Money{Cents: amount}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertRate creates or updates a rate category by name.
func (q *Queries) UpsertRate(ctx context.Context, r core.RateCategory) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO rates (rate_category, amount) VALUES (?, ?)
		ON CONFLICT (rate_category) DO UPDATE SET amount = excluded.amount`,
		r.Name, r.MonthlyAmount.Cents,
	)
	if err != nil {
		return fmt.Errorf("upsert rate %s: %w", r.Name, err)
	}
	return nil
}
