// Package ledger implements the household contribution arithmetic: monthly
// postings, debt derivation and the year-boundary carry-forward.
//
// How many months of the billing year have fallen due is a strategy, so the
// committee can move from a plain calendar year to an anchored billing cycle
// without touching the posting logic.
package ledger

import (
	"fmt"
	"time"
)

// ElapsedMonthsStrategy reports how many months of the billing year have
// begun as of now. The expected contribution is the monthly rate times this
// count.
type ElapsedMonthsStrategy interface {
	ElapsedMonths(now time.Time) int
}

// CalendarStrategy counts calendar months begun since January, inclusive.
// In March, three months have fallen due.
type CalendarStrategy struct{}

func (CalendarStrategy) ElapsedMonths(now time.Time) int {
	return int(now.Month())
}

// AnchoredStrategy counts months begun since a fixed anchor month,
// inclusive, wrapping across the year boundary. An anchor of July makes
// July month one and June month twelve.
type AnchoredStrategy struct {
	Anchor time.Month
}

func (s AnchoredStrategy) ElapsedMonths(now time.Time) int {
	anchor := s.Anchor
	if anchor == 0 {
		anchor = time.January
	}
	n := int(now.Month()) - int(anchor) + 1
	if n < 1 {
		n += 12
	}
	return n
}

// elapsedStrategies maps strategy names to constructors taking the
// configured anchor month.
var elapsedStrategies = map[string]func(anchor time.Month) ElapsedMonthsStrategy{
	"calendar": func(time.Month) ElapsedMonthsStrategy { return CalendarStrategy{} },
	"anchored": func(anchor time.Month) ElapsedMonthsStrategy { return AnchoredStrategy{Anchor: anchor} },
}

// NewElapsedStrategy returns the named strategy. Returns an error for
// unknown names so a misconfigured deployment fails at startup, not at the
// first posting.
func NewElapsedStrategy(name string, anchor time.Month) (ElapsedMonthsStrategy, error) {
	ctor, ok := elapsedStrategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown elapsed-months strategy: %s", name)
	}
	return ctor(anchor), nil
}

// RegisterElapsedStrategy registers a custom strategy under a name.
func RegisterElapsedStrategy(name string, ctor func(anchor time.Month) ElapsedMonthsStrategy) {
	elapsedStrategies[name] = ctor
}
