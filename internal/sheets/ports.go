package sheets

import "context"

// MirrorRow is one line of the committee's read-only spreadsheet mirror:
// an approved journal entry flattened for humans.
type MirrorRow struct {
	Source  string // "expenses" or "special"
	ID      int64
	Date    string
	Title   string // expense description or special event name
	Detail  string // expense category or special contribution type
	Amount  string // formatted KES
	Remarks string
}

// RowAppender is the outbound port for the mirror worker.
type RowAppender interface {
	AppendRow(ctx context.Context, row MirrorRow) (rowRef string, err error)
}
