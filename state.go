package tdledger

import "github.com/shopspring/decimal"

// Balances is a units-only running balance per account and currency, ignoring
// costs. Zero balances are removed.
type Balances map[string]map[string]decimal.Decimal

// Add adds an amount to an account.
func (b Balances) Add(account string, a Amount) {
	acc, ok := b[account]
	if !ok {
		acc = make(map[string]decimal.Decimal)
		b[account] = acc
	}
	n := acc[a.Currency].Add(a.Number)
	if n.IsZero() {
		delete(acc, a.Currency)
		return
	}
	acc[a.Currency] = n
}

// Units returns the balance of a currency on an account, false if none is held.
func (b Balances) Units(account, currency string) (decimal.Decimal, bool) {
	n, ok := b[account][currency]
	return n, ok
}

// Commodities are the instruments already declared during a run.
type Commodities map[string]*Commodity

// State is the run state threaded through successive Dispatch calls, in
// transaction order.
type State struct {
	Balances    Balances
	Commodities Commodities
}

// NewState returns an empty run state.
func NewState() *State {
	return &State{Balances: make(Balances), Commodities: make(Commodities)}
}

// apply records the units of the transactions postings.
func (s *State) apply(entries []Entry) {
	for t := range Transactions(entries) {
		for _, p := range t.Postings {
			if p.Units != nil {
				s.Balances.Add(p.Account, *p.Units)
			}
		}
	}
}
