package ledger

import (
	"time"

	"zawadi/internal/core"
)

// Rate is a household's resolved monthly rate. Found is false when the
// household has no rate category (or the category was deleted): such a
// household cannot owe against an undefined rate.
type Rate struct {
	Monthly core.Money
	Found   bool
}

// Post overwrites the given month's slot with amount and re-derives the
// year-to-date total and current debt. A resubmission corrects the month
// rather than accumulating. The household is mutated in place; callers
// persist it in their own transaction.
func Post(h *core.Household, rate Rate, month int, amount core.Money, now time.Time, strat ElapsedMonthsStrategy) error {
	if month < 1 || month > 12 {
		return core.InvalidInputf("month: want 1..12, got %d", month)
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	h.Months[month-1] = amount
	h.YearToDate = h.MonthsTotal()
	RederiveDebt(h, rate, now, strat)
	h.UpdatedAt = now
	return h.CheckYTDInvariant()
}

// RederiveDebt recomputes current_debt from the expected contribution for
// the elapsed months of the billing year. Overpayment clamps the debt at
// zero; no credit is carried (the surplus simply keeps future debt at zero
// for longer).
func RederiveDebt(h *core.Household, rate Rate, now time.Time, strat ElapsedMonthsStrategy) {
	if !rate.Found {
		h.CurrentDebt = core.Money{}
		return
	}
	expected := rate.Monthly.Mul(int64(strat.ElapsedMonths(now)))
	debt := expected.Sub(h.YearToDate)
	if debt.Cents < 0 {
		debt = core.Money{}
	}
	h.CurrentDebt = debt
}

// CarryForward moves the current debt into the cumulative balance and
// resets the twelve monthly slots for a new billing year. It reports
// whether anything happened: the operation runs at most once per
// (household, year), so a repeat call for an already-carried year is a
// no-op.
func CarryForward(h *core.Household, year int, now time.Time) bool {
	if h.CarriedForwardYear >= year {
		return false
	}
	h.CumulativeDebt = h.CumulativeDebt.Add(h.CurrentDebt)
	h.Months = [12]core.Money{}
	h.YearToDate = core.Money{}
	h.CurrentDebt = core.Money{}
	h.CarriedForwardYear = year
	h.UpdatedAt = now
	return true
}
