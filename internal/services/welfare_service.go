// Package services orchestrates the welfare operations across storage,
// the approval workflow and the AMQP mirror queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zawadi/internal/cash"
	"zawadi/internal/core"
	"zawadi/internal/ledger"
	"zawadi/internal/storage"
	"zawadi/internal/worker"
	"zawadi/internal/workflow"
)

// MirrorPublisher enqueues approved journal rows for the spreadsheet
// mirror. *amqp.Client satisfies it; nil disables mirroring.
type MirrorPublisher interface {
	PublishMirror(ctx context.Context, source string, id int64) error
	Close() error
}

// WelfareService is the application facade the HTTP layer talks to.
type WelfareService struct {
	repo      *storage.SQLiteRepository
	publisher MirrorPublisher
	flow      *workflow.Service
	strat     ledger.ElapsedMonthsStrategy
	now       func() time.Time
}

func NewWelfareService(repo *storage.SQLiteRepository, publisher MirrorPublisher, strat ledger.ElapsedMonthsStrategy) *WelfareService {
	return &WelfareService{
		repo:      repo,
		publisher: publisher,
		flow:      workflow.NewService(txRunner{repo: repo}, strat),
		strat:     strat,
		now:       time.Now,
	}
}

// txRunner adapts the repository's transaction wrapper to the workflow's
// store interface.
type txRunner struct {
	repo *storage.SQLiteRepository
}

func (t txRunner) InTx(ctx context.Context, fn func(s workflow.Store) error) error {
	return t.repo.WithTx(ctx, func(q *storage.Queries) error {
		return fn(q)
	})
}

var _ workflow.Store = (*storage.Queries)(nil)

// PostMonthlyContribution records a household's payment for one month
// directly, bypassing the request queue. The treasurer uses this for
// over-the-counter payments; everything else goes through requests.
func (s *WelfareService) PostMonthlyContribution(ctx context.Context, houseNo string, month int, amount core.Money) (core.Household, error) {
	if strings.TrimSpace(houseNo) == "" {
		return core.Household{}, core.InvalidInputf("house_no: empty")
	}

	var out core.Household
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		h, err := q.GetHousehold(ctx, houseNo)
		if err != nil {
			return err
		}
		rate, err := s.resolveRate(ctx, q, h.RateCategory)
		if err != nil {
			return err
		}
		if err := ledger.Post(&h, rate, month, amount, s.now(), s.strat); err != nil {
			return err
		}
		if err := q.UpdateHouseholdLedger(ctx, h); err != nil {
			return err
		}
		if _, err := cash.Recompute(ctx, q); err != nil {
			return err
		}
		out = h
		return nil
	})
	if err != nil {
		return core.Household{}, err
	}
	return out, nil
}

// UpdateHouseholdContact changes a household's rate category and email
// and rederives its debt under the new rate. An empty category clears
// the assignment, which zeroes the derived debt.
func (s *WelfareService) UpdateHouseholdContact(ctx context.Context, houseNo, rateCategory, email string) (core.Household, error) {
	var out core.Household
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		if rateCategory != "" {
			if _, err := q.GetRate(ctx, rateCategory); err != nil {
				return err
			}
		}
		if err := q.UpdateHouseholdContact(ctx, houseNo, rateCategory, email); err != nil {
			return err
		}
		h, err := q.GetHousehold(ctx, houseNo)
		if err != nil {
			return err
		}
		rate, err := s.resolveRate(ctx, q, h.RateCategory)
		if err != nil {
			return err
		}
		ledger.RederiveDebt(&h, rate, s.now(), s.strat)
		h.UpdatedAt = s.now()
		if err := q.UpdateHouseholdLedger(ctx, h); err != nil {
			return err
		}
		out = h
		return nil
	})
	if err != nil {
		return core.Household{}, err
	}
	return out, nil
}

// UpsertRate creates or changes a rate category and rederives the debt
// of every household billed under it.
func (s *WelfareService) UpsertRate(ctx context.Context, r core.RateCategory) error {
	if strings.TrimSpace(r.Name) == "" {
		return core.InvalidInputf("rate_category: empty")
	}
	if err := r.MonthlyAmount.Validate(); err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.UpsertRate(ctx, r); err != nil {
			return err
		}
		households, err := q.ListHouseholds(ctx)
		if err != nil {
			return err
		}
		rate := ledger.Rate{Monthly: r.MonthlyAmount, Found: true}
		for _, h := range households {
			if h.RateCategory != r.Name {
				continue
			}
			ledger.RederiveDebt(&h, rate, s.now(), s.strat)
			h.UpdatedAt = s.now()
			if err := q.UpdateHouseholdLedger(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
}

// CarryForwardDebt rolls every household into a new billing year: current
// debt moves into the cumulative balance and the monthly slots reset.
// Idempotent per year. The cash position is left alone; the committee
// records the new opening balance with SetCashOpening when closing the
// year.
func (s *WelfareService) CarryForwardDebt(ctx context.Context, year int) (int, error) {
	if year < 2000 || year > 2200 {
		return 0, core.InvalidInputf("year: implausible value %d", year)
	}

	rolled := 0
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		households, err := q.ListHouseholds(ctx)
		if err != nil {
			return err
		}
		for _, h := range households {
			if !ledger.CarryForward(&h, year, s.now()) {
				continue
			}
			if err := q.UpdateHouseholdLedger(ctx, h); err != nil {
				return err
			}
			rolled++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rolled, nil
}

// SetCashOpening records the opening balance and withdrawal for the cash
// position and rederives the running balance.
func (s *WelfareService) SetCashOpening(ctx context.Context, carriedForward, withdrawal core.Money) (core.CashPosition, error) {
	var out core.CashPosition
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		p, err := cash.SetOpening(ctx, q, carriedForward, withdrawal)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return core.CashPosition{}, err
	}
	return out, nil
}

// UpdateExpenseCorrections applies the only legal post-approval edits to
// an expense: remarks and receipt reference.
func (s *WelfareService) UpdateExpenseCorrections(ctx context.Context, id int64, remarks, receiptRef string) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return q.UpdateExpenseCorrections(ctx, id, remarks, receiptRef)
	})
}

// SubmitRequest stages a request for approval.
func (s *WelfareService) SubmitRequest(ctx context.Context, r core.Request) (core.Request, error) {
	return s.flow.Submit(ctx, r)
}

// ApproveRequest approves and materializes a pending request, then
// enqueues the resulting journal row for the spreadsheet mirror.
// Mirroring is best effort: a publish failure is logged, the startup
// sweep picks the row up later.
func (s *WelfareService) ApproveRequest(ctx context.Context, kind core.RequestKind, id int64, reviewer, note string) (workflow.ApprovalResult, error) {
	res, err := s.flow.Approve(ctx, kind, id, reviewer, note)
	if err != nil {
		return workflow.ApprovalResult{}, err
	}

	if res.MaterializedID != 0 {
		source := worker.SourceExpenses
		if kind == core.KindSpecial {
			source = worker.SourceSpecial
		}
		s.publishMirror(ctx, source, res.MaterializedID)
	}
	return res, nil
}

// RejectRequest rejects a pending request.
func (s *WelfareService) RejectRequest(ctx context.Context, kind core.RequestKind, id int64, reviewer, note string) (core.Request, error) {
	return s.flow.Reject(ctx, kind, id, reviewer, note)
}

// ListRequests returns requests of one kind, optionally filtered by
// status.
func (s *WelfareService) ListRequests(ctx context.Context, kind core.RequestKind, status core.RequestStatus) ([]core.Request, error) {
	return s.flow.List(ctx, kind, status)
}

func (s *WelfareService) GetHousehold(ctx context.Context, houseNo string) (core.Household, error) {
	return s.repo.Queries().GetHousehold(ctx, houseNo)
}

func (s *WelfareService) ListHouseholds(ctx context.Context) ([]core.Household, error) {
	return s.repo.Queries().ListHouseholds(ctx)
}

func (s *WelfareService) ListExpenses(ctx context.Context) ([]core.ExpenseEntry, error) {
	return s.repo.Queries().ListExpenses(ctx)
}

func (s *WelfareService) ListSpecial(ctx context.Context) ([]core.SpecialContribution, error) {
	return s.repo.Queries().ListSpecial(ctx)
}

func (s *WelfareService) ListRates(ctx context.Context) ([]core.RateCategory, error) {
	return s.repo.Queries().ListRates(ctx)
}

func (s *WelfareService) GetCashPosition(ctx context.Context) (core.CashPosition, error) {
	return s.repo.Queries().GetCashPosition(ctx)
}

func (s *WelfareService) resolveRate(ctx context.Context, q *storage.Queries, category string) (ledger.Rate, error) {
	if category == "" {
		return ledger.Rate{}, nil
	}
	rc, err := q.GetRate(ctx, category)
	if errors.Is(err, core.ErrNotFound) {
		return ledger.Rate{}, nil
	}
	if err != nil {
		return ledger.Rate{}, err
	}
	return ledger.Rate{Monthly: rc.MonthlyAmount, Found: true}, nil
}

func (s *WelfareService) publishMirror(ctx context.Context, source string, id int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Mirror publisher not available, row waits for the sweep",
			"source", source, "id", id)
		return
	}
	if err := s.publisher.PublishMirror(ctx, source, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mirror message",
			"source", source, "id", id, "error", err)
	}
}

// Close releases storage and the AMQP connection.
func (s *WelfareService) Close() error {
	var errs []error
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close welfare service: %v", errs)
	}
	return nil
}
