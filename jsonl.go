package tdledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/tdledger/date"
	"github.com/shopspring/decimal"
)

func init() {
	// Numbers are written as JSON numbers, they keep their exact decimal value.
	decimal.MarshalJSONWithoutQuotes = true
}

type jsonCost struct {
	Number   *decimal.Decimal `json:"number,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Date     *date.Date       `json:"date,omitempty"`
}

type jsonPosting struct {
	Account string    `json:"account"`
	Units   *Amount   `json:"units,omitempty"`
	Cost    *jsonCost `json:"cost,omitempty"`
	Price   *Amount   `json:"price,omitempty"`
}

func toJSONPosting(p Posting) jsonPosting {
	jp := jsonPosting{Account: p.Account, Units: p.Units, Price: p.Price}
	if c := p.Cost; c != nil {
		jp.Cost = &jsonCost{Number: c.Number, Currency: c.Currency}
		if !c.Date.IsZero() {
			on := c.Date
			jp.Cost.Date = &on
		}
	}
	return jp
}

func (jp jsonPosting) posting() Posting {
	p := Posting{Account: jp.Account, Units: jp.Units, Price: jp.Price}
	if c := jp.Cost; c != nil {
		p.Cost = &CostSpec{Number: c.Number, Currency: c.Currency}
		if c.Date != nil {
			p.Cost.Date = *c.Date
		}
	}
	return p
}

// marshalEntry returns the JSON object of an entry, its type and date first.
func marshalEntry(e Entry) ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", e.What()).Append("date", e.When())
	switch e := e.(type) {
	case *Transaction:
		postings := make([]jsonPosting, 0, len(e.Postings))
		for _, p := range e.Postings {
			postings = append(postings, toJSONPosting(p))
		}
		w.Append("narration", e.Narration).
			Optional("links", e.Links).
			Optional("tags", e.Tags).
			Append("postings", postings)
	case *Note:
		w.Append("account", e.Account).Append("comment", e.Comment)
	case *Commodity:
		w.Append("currency", e.Currency).Optional("name", e.Name)
	case *Balance:
		w.Append("account", e.Account).Append("amount", e.Amount)
	case *Price:
		w.Append("currency", e.Currency).Append("amount", e.Amount)
	default:
		return nil, fmt.Errorf("unsupported entry %T", e)
	}
	return w.MarshalJSON()
}

// jsonEntry is the union of every entry field.
type jsonEntry struct {
	Type      EntryType     `json:"type"`
	Date      date.Date     `json:"date"`
	Narration string        `json:"narration"`
	Links     []string      `json:"links"`
	Tags      []string      `json:"tags"`
	Postings  []jsonPosting `json:"postings"`
	Account   string        `json:"account"`
	Comment   string        `json:"comment"`
	Currency  string        `json:"currency"`
	Name      string        `json:"name"`
	Amount    Amount        `json:"amount"`
}

func (je jsonEntry) entry() (Entry, error) {
	switch je.Type {
	case TypeTransaction:
		t := NewTransaction(je.Date, je.Narration, je.Links...)
		t.Tags = je.Tags
		for _, jp := range je.Postings {
			t.Add(jp.posting())
		}
		return t, nil
	case TypeNote:
		return NewNote(je.Date, je.Account, je.Comment), nil
	case TypeCommodity:
		return NewCommodity(je.Date, je.Currency, je.Name), nil
	case TypeBalance:
		return NewBalanceEntry(je.Date, je.Account, je.Amount), nil
	case TypePrice:
		return NewPrice(je.Date, je.Currency, je.Amount), nil
	}
	return nil, fmt.Errorf("unknown entry type %q", je.Type)
}

// EncodeEntries writes the entries as JSON lines.
func EncodeEntries(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		line, err := marshalEntry(e)
		if err != nil {
			return err
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// DecodeEntries reads entries written by EncodeEntries. Blank lines are
// skipped.
func DecodeEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var je jsonEntry
		if err := json.Unmarshal(line, &je); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		e, err := je.entry()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read entries: %w", err)
	}
	return entries, nil
}
