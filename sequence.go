package tdledger

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/etnz/tdledger/options"
)

// priority orders the entries of a same day.
type priority int

const (
	priorityExpiration priority = iota // transactions about an option expiration
	priorityCommodity
	priorityTransaction
	priorityOther
)

// expirationMarker flags the narrations of expiration transactions.
const expirationMarker = "EXPIRATION"

func priorityOf(e Entry) priority {
	switch e := e.(type) {
	case *Transaction:
		if strings.Contains(e.Narration, expirationMarker) {
			return priorityExpiration
		}
		return priorityTransaction
	case *Commodity:
		return priorityCommodity
	}
	return priorityOther
}

// SortEntries returns the entries ordered by date, then priority, then
// original position.
func SortEntries(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		if c := compareDates(a, b); c != 0 {
			return c
		}
		return cmp.Compare(priorityOf(a), priorityOf(b))
	})
	return sorted
}

func compareDates(a, b Entry) int {
	switch da, db := a.When(), b.When(); {
	case da.Before(db):
		return -1
	case da.After(db):
		return 1
	}
	return 0
}

// Group is a set of entries sharing an underlying instrument.
type Group struct {
	HasOption  bool
	Underlying string // empty for entries without instrument
	Entries    []Entry
}

// Header returns the group title.
func (g Group) Header() string {
	h := g.Underlying
	if h == "" {
		h = "General"
	}
	if g.HasOption {
		h = "Options: " + h
	}
	return h
}

type groupKey struct {
	hasOption  bool
	underlying string
}

// GroupByUnderlying partitions entries by the underlying of their instrument
// legs. Transactions with legs on several underlyings are left out, so are
// balance assertions. Groups are sorted, non option groups first, and their
// entries by date. A nil logger uses slog.Default().
func GroupByUnderlying(entries []Entry, logger *slog.Logger) []Group {
	if logger == nil {
		logger = slog.Default()
	}
	groups := make(map[groupKey][]Entry)
	for _, e := range entries {
		var key groupKey
		switch e := e.(type) {
		case *Transaction:
			underlyings := make(map[string]bool)
			for _, p := range e.Postings {
				if p.Cost == nil || p.Units == nil {
					continue
				}
				symbol, isOption := options.Underlying(p.Units.Currency)
				key.hasOption = key.hasOption || isOption
				underlyings[symbol] = true
			}
			if len(underlyings) >= 2 {
				logger.Info("not grouping a transaction on several underlyings", "date", e.Date, "narration", e.Narration)
				continue
			}
			for u := range underlyings {
				key.underlying = u
			}
		case *Price:
			key.underlying, key.hasOption = options.Underlying(e.Currency)
		case *Commodity:
			key.underlying, key.hasOption = options.Underlying(e.Currency)
		case *Note:
		case *Balance:
			continue
		}
		groups[key] = append(groups[key], e)
	}

	out := make([]Group, 0, len(groups))
	for k, g := range groups {
		slices.SortStableFunc(g, compareDates)
		out = append(out, Group{HasOption: k.hasOption, Underlying: k.underlying, Entries: g})
	}
	slices.SortFunc(out, func(a, b Group) int {
		if a.HasOption != b.HasOption {
			if a.HasOption {
				return 1
			}
			return -1
		}
		return strings.Compare(a.Underlying, b.Underlying)
	})
	return out
}
