package tdledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/tdledger/date"
	"github.com/shopspring/decimal"
)

// BookingMethod defines the order in which held lots are reduced.
type BookingMethod int

const (
	// FIFO (First-In, First-Out) reduces the oldest lots first.
	FIFO BookingMethod = iota
	// LIFO (Last-In, First-Out) reduces the most recent lots first.
	LIFO
)

func (m BookingMethod) String() string {
	switch m {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return "unknown"
	}
}

// ParseBookingMethod parses a string into a BookingMethod.
func ParseBookingMethod(s string) (BookingMethod, error) {
	switch s {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	default:
		return 0, fmt.Errorf("unknown booking method: %q", s)
	}
}

// Book resolves the unresolved costs of the entries against the lots held,
// replaying transactions in order, and fills the elided postings with the
// transaction residual. Entries are copied, not modified.
//
// A posting that cannot be resolved is left as is and reported as a
// BookingError, booking goes on with the next postings.
func Book(entries []Entry, method BookingMethod) ([]Entry, []*BookingError) {
	invs := make(Inventories)
	booked := make([]Entry, 0, len(entries))
	var errs []*BookingError
	for _, e := range entries {
		t, ok := e.(*Transaction)
		if !ok {
			booked = append(booked, e)
			continue
		}
		t = t.Clone()
		errs = append(errs, bookTransaction(t, invs, method)...)
		booked = append(booked, t)
	}
	return booked, errs
}

// bookTransaction books t in place.
func bookTransaction(t *Transaction, invs Inventories, method BookingMethod) []*BookingError {
	var errs []*BookingError
	fail := func(p Posting, format string, args ...any) {
		var currency string
		if p.Units != nil {
			currency = p.Units.Currency
		}
		errs = append(errs, &BookingError{
			Date:      t.Date,
			Narration: t.Narration,
			Account:   p.Account,
			Currency:  currency,
			Reason:    fmt.Sprintf(format, args...),
		})
	}

	for _, p := range t.Postings {
		if p.Cost != nil && p.Cost.Date.IsZero() {
			p.Cost.Date = t.Date
		}
	}

	var (
		postings    []Posting
		augmenting  []int // resolved lots to add once the reductions are done
		interpolate []int // augmenting postings with an unknown cost
		failed      bool
	)
	for _, p := range t.Postings {
		if p.Units == nil || p.Cost == nil {
			postings = append(postings, p)
			continue
		}

		inv := invs.get(p.Account)
		opposite := inv.hasOpposite(p.Units.Currency, p.Units.Number)
		if p.Cost.Resolved() && !opposite {
			postings = append(postings, p)
			augmenting = append(augmenting, len(postings)-1)
			continue
		}
		if opposite {
			// A known cost against an opposite position only reduces the lots
			// held at that cost.
			var cost *LotCost
			if p.Cost.Resolved() {
				c := lotCost(p.Cost)
				cost = &c
			}
			matched, err := inv.reduce(p.Units.Currency, p.Units.Number, cost, method)
			if err != nil {
				fail(p, "%v", err)
				failed = true
				postings = append(postings, p)
				continue
			}
			// One posting per reduced lot.
			for _, m := range matched {
				q := p.clone()
				q.Units = A(m.Units, p.Units.Currency)
				n := m.Cost.Number
				q.Cost = &CostSpec{Number: &n, Currency: m.Cost.Currency, Date: m.Cost.Date}
				postings = append(postings, q)
			}
			continue
		}
		if p.Price != nil {
			// A sale price means a reduction of a position that is not held.
			fail(p, "no lot of %s to reduce", p.Units.Currency)
			failed = true
			postings = append(postings, p)
			continue
		}
		postings = append(postings, p)
		interpolate = append(interpolate, len(postings)-1)
	}
	t.Postings = postings

	elided := elidedPostings(t)
	switch {
	case len(interpolate) == 0:
	case len(interpolate) > 1 || len(elided) > 0:
		fail(t.Postings[interpolate[0]], "ambiguous lot: %d unknown costs", len(interpolate)+len(elided))
		failed = true
	default:
		i := interpolate[0]
		if err := interpolateCost(t, i); err != nil {
			fail(t.Postings[i], "%v", err)
			failed = true
		} else {
			augmenting = append(augmenting, i)
		}
	}

	for _, i := range augmenting {
		p := t.Postings[i]
		invs.get(p.Account).Add(Lot{Units: p.Units.Number, Currency: p.Units.Currency, Cost: lotCost(p.Cost)})
	}

	if failed || len(elided) == 0 {
		return errs
	}
	if len(elided) > 1 {
		fail(t.Postings[elided[0]], "%d postings without amount", len(elided))
		return errs
	}
	fillElided(t, elided[0])
	return errs
}

func elidedPostings(t *Transaction) []int {
	var idx []int
	for i, p := range t.Postings {
		if p.Elided() {
			idx = append(idx, i)
		}
	}
	return idx
}

// interpolateCost sets the cost of posting i so that the transaction balances.
func interpolateCost(t *Transaction, i int) error {
	p := &t.Postings[i]
	residual := t.Residual()
	currency := p.Cost.Currency
	if currency == "" {
		if len(residual) != 1 {
			return fmt.Errorf("ambiguous lot: cannot infer a cost currency from %d currencies", len(residual))
		}
		for c := range residual {
			currency = c
		}
	}
	for c, n := range residual {
		if c != currency && !n.IsZero() {
			return fmt.Errorf("ambiguous lot: residual in %s and %s", currency, c)
		}
	}
	if p.Units.Number.IsZero() {
		return fmt.Errorf("ambiguous lot: zero units")
	}
	n := residual[currency].Neg().Div(p.Units.Number)
	p.Cost.Number = &n
	p.Cost.Currency = currency
	return nil
}

// fillElided replaces the elided posting i by one posting per currency
// balancing the transaction.
func fillElided(t *Transaction, i int) {
	residual := t.Residual()
	currencies := slices.Sorted(maps.Keys(residual))
	var fills []Posting
	for _, c := range currencies {
		if n := residual[c]; !n.IsZero() {
			fills = append(fills, Posting{Account: t.Postings[i].Account, Units: A(n.Neg(), c)})
		}
	}
	if len(fills) == 0 && len(currencies) > 0 {
		fills = append(fills, Posting{Account: t.Postings[i].Account, Units: A(decimal.Zero, currencies[0])})
	}
	if len(fills) == 0 {
		return
	}
	t.Postings = slices.Replace(t.Postings, i, i+1, fills...)
}

// StripReductionDates removes the acquisition date that booking stamps on
// postings whose cost stayed unresolved: a run only sees part of the history
// and cannot assert which lot these postings reduce.
func StripReductionDates(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		t, ok := e.(*Transaction)
		if !ok || !hasDatedReduction(t) {
			out = append(out, e)
			continue
		}
		t = t.Clone()
		for _, p := range t.Postings {
			if p.Cost != nil && p.Cost.Number == nil {
				p.Cost.Date = date.Date{}
			}
		}
		out = append(out, t)
	}
	return out
}

func hasDatedReduction(t *Transaction) bool {
	for _, p := range t.Postings {
		if p.Cost != nil && p.Cost.Number == nil && !p.Cost.Date.IsZero() {
			return true
		}
	}
	return false
}
