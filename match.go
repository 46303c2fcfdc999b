package tdledger

import (
	"strings"

	"github.com/google/uuid"
)

// NewTradeID returns a random trade pairing id.
func NewTradeID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return hex[len(hex)-12:]
}

type positionKey struct {
	account, currency string
}

// MatchTrades pairs the transactions reducing a position with the last
// transaction that opened or augmented it, by adding a shared "trade-<id>"
// link to both. It replays booked entries, postings with an unresolved cost
// are skipped. The entries are copied, and the final inventories returned.
//
// newID generates the pairing ids, nil means NewTradeID.
func MatchTrades(entries []Entry, newID func() string) ([]Entry, Inventories) {
	if newID == nil {
		newID = NewTradeID
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if t, ok := e.(*Transaction); ok {
			e = t.Clone()
		}
		out[i] = e
	}

	invs := make(Inventories)
	openings := make(map[positionKey]*Transaction)
	for t := range Transactions(out) {
		for _, p := range t.Postings {
			if p.Units == nil || !p.Cost.Resolved() {
				continue
			}
			lot := Lot{Units: p.Units.Number, Currency: p.Units.Currency, Cost: lotCost(p.Cost)}
			key := positionKey{p.Account, p.Units.Currency}
			switch invs.get(p.Account).Add(lot) {
			case Created, Augmented:
				openings[key] = t
			case Reduced:
				opening, ok := openings[key]
				if !ok {
					continue
				}
				link := "trade-" + newID()
				opening.AddLink(link)
				t.AddLink(link)
			}
		}
	}
	return out, invs
}
