package tdledger

import (
	"iter"
	"slices"

	"github.com/etnz/tdledger/date"
	"github.com/shopspring/decimal"
)

// EntryType is a typed string identifying the kind of a ledger entry.
type EntryType string

// Entry types, also used as the "type" discriminator in JSONL.
const (
	TypeTransaction EntryType = "transaction"
	TypeNote        EntryType = "note"
	TypeCommodity   EntryType = "commodity"
	TypeBalance     EntryType = "balance"
	TypePrice       EntryType = "price"
)

// Entry is the common interface of every directive produced by a conversion.
type Entry interface {
	What() EntryType // What returns the kind of entry.
	When() date.Date // When returns the date of the entry.
}

type baseEntry struct {
	Type EntryType
	Date date.Date
}

func (e baseEntry) What() EntryType { return e.Type }
func (e baseEntry) When() date.Date { return e.Date }

// CostSpec is the cost annotation of a posting. An opening lot carries a known
// Number, a reduction leaves Number nil to be resolved by booking.
type CostSpec struct {
	Number   *decimal.Decimal
	Currency string
	Date     date.Date
}

// Resolved reports whether the per-unit cost is known.
func (c *CostSpec) Resolved() bool { return c != nil && c.Number != nil }

func (c *CostSpec) clone() *CostSpec {
	if c == nil {
		return nil
	}
	d := *c
	return &d
}

// UnresolvedCost returns an empty cost spec to be matched against held lots.
func UnresolvedCost() *CostSpec { return &CostSpec{} }

// Cost returns a resolved cost spec.
func Cost(number decimal.Decimal, currency string, on date.Date) *CostSpec {
	return &CostSpec{Number: &number, Currency: currency, Date: on}
}

// Posting is a single leg of a Transaction. A posting without Units is elided:
// its amount is inferred by booking from the rest of the transaction.
type Posting struct {
	Account string
	Units   *Amount
	Cost    *CostSpec
	Price   *Amount
}

// Elided reports whether the posting amount is to be inferred.
func (p Posting) Elided() bool { return p.Units == nil }

// Weight returns the amount the posting contributes to the balance of its
// transaction, and false if it cannot be known yet.
func (p Posting) Weight() (Amount, bool) {
	switch {
	case p.Units == nil:
		return Amount{}, false
	case p.Cost != nil:
		if !p.Cost.Resolved() {
			return Amount{}, false
		}
		return Amount{Number: p.Units.Number.Mul(*p.Cost.Number), Currency: p.Cost.Currency}, true
	case p.Price != nil:
		return Amount{Number: p.Units.Number.Mul(p.Price.Number), Currency: p.Price.Currency}, true
	}
	return *p.Units, true
}

func (p Posting) clone() Posting {
	q := p
	if p.Units != nil {
		u := *p.Units
		q.Units = &u
	}
	if p.Price != nil {
		pr := *p.Price
		q.Price = &pr
	}
	q.Cost = p.Cost.clone()
	return q
}

// Transaction is a dated, balanced set of postings.
type Transaction struct {
	baseEntry
	Narration string
	Links     []string // sorted, without duplicates
	Tags      []string
	Postings  []Posting
}

// NewTransaction returns an empty transaction.
func NewTransaction(on date.Date, narration string, links ...string) *Transaction {
	t := &Transaction{baseEntry: baseEntry{Type: TypeTransaction, Date: on}, Narration: narration}
	for _, l := range links {
		t.AddLink(l)
	}
	return t
}

// AddLink adds a link if not already present.
func (t *Transaction) AddLink(link string) {
	if i, found := slices.BinarySearch(t.Links, link); !found {
		t.Links = slices.Insert(t.Links, i, link)
	}
}

// HasLink reports whether the transaction carries the link.
func (t *Transaction) HasLink(link string) bool {
	_, found := slices.BinarySearch(t.Links, link)
	return found
}

// Add appends postings to the transaction.
func (t *Transaction) Add(postings ...Posting) { t.Postings = append(t.Postings, postings...) }

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Links = slices.Clone(t.Links)
	c.Tags = slices.Clone(t.Tags)
	c.Postings = make([]Posting, len(t.Postings))
	for i, p := range t.Postings {
		c.Postings[i] = p.clone()
	}
	return &c
}

// Residual returns the sum of the known posting weights per currency.
func (t *Transaction) Residual() map[string]decimal.Decimal {
	res := make(map[string]decimal.Decimal)
	for _, p := range t.Postings {
		if w, ok := p.Weight(); ok {
			res[w.Currency] = res[w.Currency].Add(w.Number)
		}
	}
	return res
}

// Note is a dated comment attached to an account.
type Note struct {
	baseEntry
	Account string
	Comment string
}

// NewNote returns a Note.
func NewNote(on date.Date, account, comment string) *Note {
	return &Note{baseEntry: baseEntry{Type: TypeNote, Date: on}, Account: account, Comment: comment}
}

// Commodity declares an instrument.
type Commodity struct {
	baseEntry
	Currency string
	Name     string
}

// NewCommodity returns a Commodity declaration.
func NewCommodity(on date.Date, currency, name string) *Commodity {
	return &Commodity{baseEntry: baseEntry{Type: TypeCommodity, Date: on}, Currency: currency, Name: name}
}

// Balance asserts the amount held on an account at the beginning of a day.
type Balance struct {
	baseEntry
	Account string
	Amount  Amount
}

// NewBalanceEntry returns a Balance assertion.
func NewBalanceEntry(on date.Date, account string, amount Amount) *Balance {
	return &Balance{baseEntry: baseEntry{Type: TypeBalance, Date: on}, Account: account, Amount: amount}
}

// Price records the price of an instrument on a day.
type Price struct {
	baseEntry
	Currency string
	Amount   Amount
}

// NewPrice returns a Price directive.
func NewPrice(on date.Date, currency string, amount Amount) *Price {
	return &Price{baseEntry: baseEntry{Type: TypePrice, Date: on}, Currency: currency, Amount: amount}
}

// Transactions iterates over the transactions of a list of entries.
func Transactions(entries []Entry) iter.Seq[*Transaction] {
	return func(yield func(*Transaction) bool) {
		for _, e := range entries {
			if t, ok := e.(*Transaction); ok {
				if !yield(t) {
					return
				}
			}
		}
	}
}
