// Package workflow implements the request lifecycle: every change to
// the books is staged as a pending request and only touches the
// journals or the ledger when a reviewer approves it. Approval,
// materialization and the cash recompute happen in one transaction, so
// a failure anywhere leaves the request pending and the books
// untouched.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zawadi/internal/cash"
	"zawadi/internal/core"
	"zawadi/internal/ledger"
)

// Store is the storage surface the workflow needs. *storage.Queries
// satisfies it.
type Store interface {
	InsertRequest(ctx context.Context, r core.Request) (int64, error)
	GetRequest(ctx context.Context, kind core.RequestKind, id int64) (core.Request, error)
	ListRequests(ctx context.Context, kind core.RequestKind, status core.RequestStatus) ([]core.Request, error)
	UpdateRequestStatus(ctx context.Context, kind core.RequestKind, id int64, from, to core.RequestStatus, remarks string) (bool, error)

	InsertExpense(ctx context.Context, e core.ExpenseEntry) (int64, error)
	InsertSpecial(ctx context.Context, sc core.SpecialContribution) (int64, error)

	GetHousehold(ctx context.Context, houseNo string) (core.Household, error)
	GetRate(ctx context.Context, name string) (core.RateCategory, error)
	UpdateHouseholdLedger(ctx context.Context, h core.Household) error

	cash.Querier
}

// TxRunner runs fn inside one write transaction against the store.
type TxRunner interface {
	InTx(ctx context.Context, fn func(s Store) error) error
}

// ApprovalResult reports what an approval produced: the request in its
// final state, the id of the journal row it materialized into (zero for
// contribution approvals, which update the ledger instead) and the
// recomputed cash position.
type ApprovalResult struct {
	Request        core.Request
	MaterializedID int64
	Cash           core.CashPosition
}

type Service struct {
	tx    TxRunner
	strat ledger.ElapsedMonthsStrategy
	now   func() time.Time
}

func NewService(tx TxRunner, strat ledger.ElapsedMonthsStrategy) *Service {
	return &Service{tx: tx, strat: strat, now: time.Now}
}

// Submit stages a new pending request. Validation happens here so a
// malformed request is rejected before it ever reaches a reviewer.
func (s *Service) Submit(ctx context.Context, r core.Request) (core.Request, error) {
	if err := r.Validate(); err != nil {
		return core.Request{}, err
	}
	r.Status = core.StatusPending

	var out core.Request
	err := s.tx.InTx(ctx, func(st Store) error {
		// A contribution request for an unknown household would be
		// unapprovable, so refuse it at the door.
		if r.Kind == core.KindContribution {
			if _, err := st.GetHousehold(ctx, r.HouseNo); err != nil {
				return err
			}
		}
		id, err := st.InsertRequest(ctx, r)
		if err != nil {
			return err
		}
		out, err = st.GetRequest(ctx, r.Kind, id)
		return err
	})
	if err != nil {
		return core.Request{}, err
	}
	return out, nil
}

// Approve flips a pending request to approved and materializes it:
// expense and special requests become journal rows, contribution
// requests post to the household ledger. The reviewer's note is
// prepended to the request's remarks trail.
func (s *Service) Approve(ctx context.Context, kind core.RequestKind, id int64, reviewer, note string) (ApprovalResult, error) {
	var result ApprovalResult
	err := s.tx.InTx(ctx, func(st Store) error {
		r, err := st.GetRequest(ctx, kind, id)
		if err != nil {
			return err
		}
		if r.Status != core.StatusPending {
			return core.InvalidStatef("%s request %d is %s, only pending requests can be approved",
				kind, id, r.Status)
		}

		ok, err := st.UpdateRequestStatus(ctx, kind, id,
			core.StatusPending, core.StatusApproved, reviewNote("Approved", reviewer, note))
		if err != nil {
			return err
		}
		if !ok {
			return core.InvalidStatef("%s request %d changed state during approval", kind, id)
		}

		materializedID, err := s.materialize(ctx, st, r)
		if err != nil {
			return err
		}

		pos, err := cash.Recompute(ctx, st)
		if err != nil {
			return err
		}

		final, err := st.GetRequest(ctx, kind, id)
		if err != nil {
			return err
		}
		result = ApprovalResult{Request: final, MaterializedID: materializedID, Cash: pos}
		return nil
	})
	if err != nil {
		return ApprovalResult{}, err
	}
	return result, nil
}

// Reject flips a pending request to rejected. Nothing is materialized
// and the cash position is untouched.
func (s *Service) Reject(ctx context.Context, kind core.RequestKind, id int64, reviewer, note string) (core.Request, error) {
	var out core.Request
	err := s.tx.InTx(ctx, func(st Store) error {
		r, err := st.GetRequest(ctx, kind, id)
		if err != nil {
			return err
		}
		if r.Status != core.StatusPending {
			return core.InvalidStatef("%s request %d is %s, only pending requests can be rejected",
				kind, id, r.Status)
		}

		ok, err := st.UpdateRequestStatus(ctx, kind, id,
			core.StatusPending, core.StatusRejected, reviewNote("Rejected", reviewer, note))
		if err != nil {
			return err
		}
		if !ok {
			return core.InvalidStatef("%s request %d changed state during rejection", kind, id)
		}

		out, err = st.GetRequest(ctx, kind, id)
		return err
	})
	if err != nil {
		return core.Request{}, err
	}
	return out, nil
}

// List returns requests of one kind, optionally filtered by status.
func (s *Service) List(ctx context.Context, kind core.RequestKind, status core.RequestStatus) ([]core.Request, error) {
	if !kind.Valid() {
		return nil, core.InvalidInputf("kind: unknown request kind %q", string(kind))
	}
	if status != "" && !status.Valid() {
		return nil, core.InvalidInputf("status: unknown request status %q", string(status))
	}
	var out []core.Request
	err := s.tx.InTx(ctx, func(st Store) error {
		var err error
		out, err = st.ListRequests(ctx, kind, status)
		return err
	})
	return out, err
}

func (s *Service) materialize(ctx context.Context, st Store, r core.Request) (int64, error) {
	switch r.Kind {
	case core.KindExpense:
		return st.InsertExpense(ctx, core.ExpenseEntry{
			Date:        r.Date,
			Description: r.Description,
			Category:    r.Category,
			Amount:      r.Amount,
			Remarks:     r.Remarks,
		})
	case core.KindSpecial:
		return st.InsertSpecial(ctx, core.SpecialContribution{
			Date:    r.Date,
			Event:   r.Event,
			Type:    r.Type,
			Amount:  r.Amount,
			Remarks: r.Remarks,
		})
	case core.KindContribution:
		return 0, s.postContribution(ctx, st, r)
	}
	return 0, core.InvalidInputf("kind: unknown request kind %q", string(r.Kind))
}

func (s *Service) postContribution(ctx context.Context, st Store, r core.Request) error {
	h, err := st.GetHousehold(ctx, r.HouseNo)
	if err != nil {
		return err
	}

	rate := ledger.Rate{}
	if h.RateCategory != "" {
		rc, err := st.GetRate(ctx, h.RateCategory)
		if err == nil {
			rate = ledger.Rate{Monthly: rc.MonthlyAmount, Found: true}
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}
	}

	if err := ledger.Post(&h, rate, r.Month, r.Amount, s.now(), s.strat); err != nil {
		return err
	}
	return st.UpdateHouseholdLedger(ctx, h)
}

func reviewNote(verb, reviewer, note string) string {
	if reviewer == "" {
		reviewer = "committee"
	}
	if note == "" {
		return fmt.Sprintf("%s by %s", verb, reviewer)
	}
	return fmt.Sprintf("%s by %s: %s", verb, reviewer, note)
}
