package tdledger

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/tdledger/date"
	"github.com/shopspring/decimal"
)

// LotCost is the per-unit cost and acquisition date of a lot.
type LotCost struct {
	Number   decimal.Decimal
	Currency string
	Date     date.Date
}

// Equal reports whether two lot costs are identical.
func (c LotCost) Equal(d LotCost) bool {
	return c.Number.Equal(d.Number) && c.Currency == d.Currency && c.Date == d.Date
}

// lotCost returns the lot cost of a resolved cost spec.
func lotCost(c *CostSpec) LotCost {
	return LotCost{Number: *c.Number, Currency: c.Currency, Date: c.Date}
}

// Lot is a quantity of an instrument held at a cost. Units are negative for a
// short lot.
type Lot struct {
	Units    decimal.Decimal
	Currency string
	Cost     LotCost
}

// MatchResult is the effect of adding a lot to an inventory.
type MatchResult int

const (
	Created MatchResult = iota
	Augmented
	Reduced
)

func (m MatchResult) String() string {
	switch m {
	case Created:
		return "created"
	case Augmented:
		return "augmented"
	case Reduced:
		return "reduced"
	}
	return "unknown"
}

// Inventory is the list of lots held on an account, in acquisition order.
type Inventory struct {
	lots []Lot
}

// Lots returns the lots held.
func (inv *Inventory) Lots() []Lot { return slices.Clone(inv.lots) }

// Units returns the total units held of a currency.
func (inv *Inventory) Units(currency string) decimal.Decimal {
	var total decimal.Decimal
	for _, l := range inv.lots {
		if l.Currency == currency {
			total = total.Add(l.Units)
		}
	}
	return total
}

// Currencies returns the held currencies, sorted.
func (inv *Inventory) Currencies() []string {
	set := make(map[string]bool)
	for _, l := range inv.lots {
		set[l.Currency] = true
	}
	return slices.Sorted(maps.Keys(set))
}

// Add adds a lot, merging it with a lot of identical currency and cost. The
// result tells whether the lot was created, augmented or reduced.
func (inv *Inventory) Add(lot Lot) MatchResult {
	for i, l := range inv.lots {
		if l.Currency != lot.Currency || !l.Cost.Equal(lot.Cost) {
			continue
		}
		result := Augmented
		if l.Units.Sign() != lot.Units.Sign() {
			result = Reduced
		}
		inv.lots[i].Units = l.Units.Add(lot.Units)
		if inv.lots[i].Units.IsZero() {
			inv.lots = slices.Delete(inv.lots, i, i+1)
		}
		return result
	}
	inv.lots = append(inv.lots, lot)
	return Created
}

// hasOpposite reports whether some lot of currency can be reduced by units.
func (inv *Inventory) hasOpposite(currency string, units decimal.Decimal) bool {
	for _, l := range inv.lots {
		if l.Currency == currency && l.Units.Sign() == -units.Sign() {
			return true
		}
	}
	return false
}

// reduce consumes lots of a currency opposite to units, in the method order.
// A non nil cost restricts the reduction to the lots bought at that price.
// It returns the consumed portions, signed like units, or an error without
// modifying the inventory if not enough is held.
func (inv *Inventory) reduce(currency string, units decimal.Decimal, cost *LotCost, method BookingMethod) ([]Lot, error) {
	var candidates []int
	held := decimal.Zero
	for i, l := range inv.lots {
		if l.Currency != currency || l.Units.Sign() != -units.Sign() {
			continue
		}
		if cost != nil && (!l.Cost.Number.Equal(cost.Number) || l.Cost.Currency != cost.Currency) {
			continue
		}
		candidates = append(candidates, i)
		held = held.Add(l.Units.Abs())
	}
	if len(candidates) == 0 && cost != nil {
		return nil, fmt.Errorf("no position of %s matches the cost %s %s", currency, cost.Number, cost.Currency)
	}
	if held.LessThan(units.Abs()) {
		return nil, fmt.Errorf("reduction of %s %s exceeds the %s held", units, currency, held)
	}

	// FIFO takes the oldest lots first, insertion order breaks ties.
	slices.SortStableFunc(candidates, func(a, b int) int {
		da, db := inv.lots[a].Cost.Date, inv.lots[b].Cost.Date
		switch {
		case da.Before(db):
			return -1
		case da.After(db):
			return 1
		}
		return cmp.Compare(a, b)
	})
	if method == LIFO {
		slices.Reverse(candidates)
	}

	remaining := units.Abs()
	var matched []Lot
	for _, i := range candidates {
		if remaining.IsZero() {
			break
		}
		l := &inv.lots[i]
		take := decimal.Min(remaining, l.Units.Abs())
		portion := take
		if units.IsNegative() {
			portion = take.Neg()
		}
		matched = append(matched, Lot{Units: portion, Currency: currency, Cost: l.Cost})
		l.Units = l.Units.Add(portion)
		remaining = remaining.Sub(take)
	}
	inv.lots = slices.DeleteFunc(inv.lots, func(l Lot) bool { return l.Units.IsZero() })
	return matched, nil
}

// Inventories are the inventories by account.
type Inventories map[string]*Inventory

// get returns the inventory of an account, creating it if needed.
func (invs Inventories) get(account string) *Inventory {
	inv, ok := invs[account]
	if !ok {
		inv = &Inventory{}
		invs[account] = inv
	}
	return inv
}

// Accounts returns the accounts with an inventory, sorted.
func (invs Inventories) Accounts() []string {
	return slices.Sorted(maps.Keys(invs))
}
