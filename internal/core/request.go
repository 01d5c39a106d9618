package core

import (
	"strings"
	"time"
)

// RequestKind tags the three staged-approval queues. One Go type covers
// all of them; the kind selects the payload fields that matter and the
// table the row lives in.
type RequestKind string

const (
	KindExpense      RequestKind = "expense"
	KindContribution RequestKind = "contribution"
	KindSpecial      RequestKind = "special"
)

func (k RequestKind) Valid() bool {
	switch k {
	case KindExpense, KindContribution, KindSpecial:
		return true
	}
	return false
}

// RequestStatus is the workflow state. pending transitions exactly once to
// approved or rejected; terminal states have no outgoing transition.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request is a staged entry awaiting approval. Kind-specific payload
// fields are zero for the other kinds.
type Request struct {
	ID          int64
	Kind        RequestKind
	Date        Date
	RequestedBy string
	Amount      Money
	Status      RequestStatus
	Remarks     string
	CreatedAt   time.Time

	// expense payload
	Description string
	Category    string

	// contribution payload
	HouseNo string
	Month   int // 1..12

	// special payload
	Event string
	Type  string
}

// Validate applies the same field constraints as the target entity of the
// request's kind.
func (r Request) Validate() error {
	if !r.Kind.Valid() {
		return InvalidInputf("kind: unknown request kind %q", string(r.Kind))
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.RequestedBy) == "" {
		return InvalidInputf("requested_by: empty")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	switch r.Kind {
	case KindExpense:
		if strings.TrimSpace(r.Description) == "" {
			return InvalidInputf("description: empty")
		}
	case KindContribution:
		if strings.TrimSpace(r.HouseNo) == "" {
			return InvalidInputf("house_no: empty")
		}
		if r.Month < 1 || r.Month > 12 {
			return InvalidInputf("month: want 1..12, got %d", r.Month)
		}
	case KindSpecial:
		if strings.TrimSpace(r.Event) == "" {
			return InvalidInputf("event: empty")
		}
		if strings.TrimSpace(r.Type) == "" {
			return InvalidInputf("type: empty")
		}
	}
	return nil
}
