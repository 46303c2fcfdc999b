package renderer

import (
	"cmp"
	"maps"
	"slices"

	"github.com/etnz/tdledger"
	"github.com/etnz/tdledger/date"
)

// Report summarizes a conversion run.
type Report struct {
	Source       string
	First, Last  date.Date // dates of the oldest and newest converted entries
	Transactions int       // raw transactions read

	Handled int
	Ignored int
	Skipped int

	Unhandled     []string
	EntryCounts   []EntryCount
	BookingErrors []BookingError
	Groups        []Group
}

// EntryCount is the number of entries of a kind.
type EntryCount struct {
	Type  string
	Count int
}

// BookingError is a booking diagnostic.
type BookingError struct {
	Date      date.Date
	Narration string
	Account   string
	Currency  string
	Reason    string
}

// Group is a group of entries sharing an underlying.
type Group struct {
	Header  string
	Entries int
}

// NewReport builds the report of a conversion of txns read from source.
func NewReport(source string, txns int, res *tdledger.Result) *Report {
	r := &Report{
		Source:       source,
		Transactions: txns,
		Handled:      res.Handled,
		Ignored:      res.Ignored,
		Skipped:      res.Skipped,
	}
	for _, k := range res.Unhandled {
		r.Unhandled = append(r.Unhandled, k.String())
	}

	counts := make(map[string]int)
	for i, e := range res.Entries {
		counts[string(e.What())]++
		if i == 0 || e.When().Before(r.First) {
			r.First = e.When()
		}
		if e.When().After(r.Last) {
			r.Last = e.When()
		}
	}
	for _, t := range slices.Sorted(maps.Keys(counts)) {
		r.EntryCounts = append(r.EntryCounts, EntryCount{Type: t, Count: counts[t]})
	}

	for _, e := range res.BookingErrors {
		r.BookingErrors = append(r.BookingErrors, BookingError{
			Date:      e.Date,
			Narration: e.Narration,
			Account:   e.Account,
			Currency:  e.Currency,
			Reason:    e.Reason,
		})
	}
	slices.SortStableFunc(r.BookingErrors, func(a, b BookingError) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return cmp.Compare(a.Currency, b.Currency)
	})

	for _, g := range res.Groups {
		r.Groups = append(r.Groups, Group{Header: g.Header(), Entries: len(g.Entries)})
	}
	return r
}
