package core

import (
	"strings"
	"time"
)

// Date is a calendar day without a time-of-day component.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, InvalidInputf("date: want YYYY-MM-DD, got %q", s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return InvalidInputf("date: must not be zero")
	}
	return nil
}

// String renders the date as "2006-01-02".
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// RateCategory maps a category name to the fixed monthly contribution it
// implies. Names are the natural key; updates cascade by name.
type RateCategory struct {
	Name          string
	MonthlyAmount Money
}

func (r RateCategory) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return InvalidInputf("rate_category: empty name")
	}
	return r.MonthlyAmount.Validate()
}

// Household is one row of the contributions ledger: twelve monthly slots,
// the derived year-to-date total and the two debt figures. Households are
// never deleted, only updated in place.
type Household struct {
	HouseNo            string
	FamilyName         string
	Lane               string
	RateCategory       string // empty when the household has no rate assigned
	Email              string
	Months             [12]Money
	YearToDate         Money
	CumulativeDebt     Money
	CurrentDebt        Money
	Status             string
	Remarks            string
	CarriedForwardYear int
	UpdatedAt          time.Time
}

func (h Household) Validate() error {
	if strings.TrimSpace(h.HouseNo) == "" {
		return InvalidInputf("house_no: empty")
	}
	if strings.TrimSpace(h.FamilyName) == "" {
		return InvalidInputf("family_name: empty")
	}
	for i, m := range h.Months {
		if err := m.Validate(); err != nil {
			return InvalidInputf("month_%d: negative amount", i+1)
		}
	}
	return nil
}

// MonthsTotal sums the twelve monthly slots.
func (h Household) MonthsTotal() Money {
	var total Money
	for _, m := range h.Months {
		total = total.Add(m)
	}
	return total
}

// CheckYTDInvariant verifies year_to_date == Σ months. A mismatch is an
// internal fault: the caller must abort its transaction and surface it.
func (h Household) CheckYTDInvariant() error {
	if got, want := h.YearToDate, h.MonthsTotal(); got != want {
		return InvariantViolationf("house %s: year_to_date %d != months sum %d",
			h.HouseNo, got.Cents, want.Cents)
	}
	return nil
}

// ExpenseEntry is one outgoing payment in the expense journal. Rows are
// append-only once approved; only remarks and receipt references may be
// corrected afterwards.
type ExpenseEntry struct {
	ID          int64
	Date        Date
	Description string
	Category    string
	Vendor      string
	Phone       string
	Amount      Money
	PaymentMode string
	Remarks     string
	ReceiptRef  string
	CreatedAt   time.Time
}

func (e ExpenseEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return InvalidInputf("description: empty")
	}
	if len(e.Description) > 200 {
		return InvalidInputf("description: too long (max 200 characters)")
	}
	return e.Amount.Validate()
}

// SpecialContribution is a one-off event-linked inflow (harambee, funeral
// collection, and the like). Append-only.
type SpecialContribution struct {
	ID           int64
	Date         Date
	Event        string
	Type         string
	Contributors string
	Amount       Money
	Remarks      string
	CreatedAt    time.Time
}

func (s SpecialContribution) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Event) == "" {
		return InvalidInputf("event: empty")
	}
	if strings.TrimSpace(s.Type) == "" {
		return InvalidInputf("type: empty")
	}
	return s.Amount.Validate()
}

// CashPosition is the singleton cash snapshot. Balance is recomputed from
// the journals; BalanceCarriedForward and Withdrawal are its inputs.
type CashPosition struct {
	BalanceCarriedForward Money
	Withdrawal            Money
	Balance               Money
	UpdatedAt             time.Time
}

func (c CashPosition) Validate() error {
	if err := c.BalanceCarriedForward.Validate(); err != nil {
		return InvalidInputf("cash_balance_cd: negative amount")
	}
	if err := c.Withdrawal.Validate(); err != nil {
		return InvalidInputf("cash_withdrawal: negative amount")
	}
	return nil
}
