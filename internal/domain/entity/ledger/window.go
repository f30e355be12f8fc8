package ledger

import "time"

// Window bounds ledger queries to [From, To] inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

func (w *Window) Contains(ts time.Time) bool {
	if w == nil {
		return true
	}
	return !ts.Before(w.From) && !ts.After(w.To)
}
