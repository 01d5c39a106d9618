// Package worker mirrors approved journal rows into the committee's
// read-only spreadsheet. Mirroring is best effort and strictly one way:
// the database stays the system of record, failures only delay the
// mirror.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"zawadi/internal/amqp"
	"zawadi/internal/core"
	"zawadi/internal/sheets"
	"zawadi/internal/storage"
)

// MirrorStore is the storage surface the worker needs. *storage.Queries
// satisfies it.
type MirrorStore interface {
	GetExpense(ctx context.Context, id int64) (core.ExpenseEntry, error)
	ListUnmirroredExpenses(ctx context.Context, limit int) ([]int64, error)
	MarkExpenseMirrored(ctx context.Context, id int64) error
	MarkExpenseMirrorError(ctx context.Context, id int64) error

	GetSpecial(ctx context.Context, id int64) (core.SpecialContribution, error)
	ListUnmirroredSpecial(ctx context.Context, limit int) ([]int64, error)
	MarkSpecialMirrored(ctx context.Context, id int64) error
	MarkSpecialMirrorError(ctx context.Context, id int64) error
}

const (
	SourceExpenses = "expenses"
	SourceSpecial  = "special"
)

type MirrorWorker struct {
	store     MirrorStore
	appender  sheets.RowAppender
	batchSize int
}

func NewMirrorWorker(store MirrorStore, appender sheets.RowAppender, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &MirrorWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleMirrorMessage processes one mirror message from AMQP. The row is
// re-read from the database so the spreadsheet never sees stale data.
func (w *MirrorWorker) HandleMirrorMessage(ctx context.Context, msg *amqp.MirrorMessage) error {
	switch msg.Source {
	case SourceExpenses:
		return w.mirrorExpense(ctx, msg.ID)
	case SourceSpecial:
		return w.mirrorSpecial(ctx, msg.ID)
	}
	return fmt.Errorf("unknown mirror source %q", msg.Source)
}

// ProcessPending sweeps rows whose mirror message was lost. Run it on
// startup and periodically alongside the AMQP consumer.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	expenseIDs, err := w.store.ListUnmirroredExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unmirrored expenses: %w", err)
	}
	specialIDs, err := w.store.ListUnmirroredSpecial(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unmirrored special: %w", err)
	}

	if len(expenseIDs)+len(specialIDs) == 0 {
		return nil
	}
	slog.InfoContext(ctx, "Processing pending mirror rows",
		"expenses", len(expenseIDs),
		"special", len(specialIDs))

	for _, id := range expenseIDs {
		if err := w.mirrorExpense(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror expense", "id", id, "error", err)
			if err := w.store.MarkExpenseMirrorError(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "id", id, "error", err)
			}
		}
	}
	for _, id := range specialIDs {
		if err := w.mirrorSpecial(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror special contribution", "id", id, "error", err)
			if err := w.store.MarkSpecialMirrorError(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "id", id, "error", err)
			}
		}
	}
	return nil
}

func (w *MirrorWorker) mirrorExpense(ctx context.Context, id int64) error {
	e, err := w.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	ref, err := w.appender.AppendRow(ctx, sheets.MirrorRow{
		Source:  SourceExpenses,
		ID:      e.ID,
		Date:    e.Date.String(),
		Title:   e.Description,
		Detail:  e.Category,
		Amount:  core.FormatKES(e.Amount.Cents),
		Remarks: e.Remarks,
	})
	if err != nil {
		return fmt.Errorf("append expense row: %w", err)
	}

	if err := w.store.MarkExpenseMirrored(ctx, id); err != nil {
		return fmt.Errorf("mark expense mirrored: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored expense", "id", id, "ref", ref)
	return nil
}

func (w *MirrorWorker) mirrorSpecial(ctx context.Context, id int64) error {
	sc, err := w.store.GetSpecial(ctx, id)
	if err != nil {
		return fmt.Errorf("get special contribution: %w", err)
	}

	ref, err := w.appender.AppendRow(ctx, sheets.MirrorRow{
		Source:  SourceSpecial,
		ID:      sc.ID,
		Date:    sc.Date.String(),
		Title:   sc.Event,
		Detail:  sc.Type,
		Amount:  core.FormatKES(sc.Amount.Cents),
		Remarks: sc.Remarks,
	})
	if err != nil {
		return fmt.Errorf("append special row: %w", err)
	}

	if err := w.store.MarkSpecialMirrored(ctx, id); err != nil {
		return fmt.Errorf("mark special mirrored: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored special contribution", "id", id, "ref", ref)
	return nil
}

var _ MirrorStore = (*storage.Queries)(nil)
