package tdledger

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Printer writes entries in the plain-text ledger syntax.
type Printer struct {
	// Currency is the cash currency, its amounts are printed to the minor
	// unit.
	Currency string
}

// Print writes the entries, each followed by a blank line.
func (p Printer) Print(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if err := p.printEntry(bw, e); err != nil {
			return err
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// PrintGroups writes each group under a "** <header>" line.
func (p Printer) PrintGroups(w io.Writer, groups []Group) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "** %s\n\n", g.Header()); err != nil {
			return err
		}
		if err := p.Print(w, g.Entries); err != nil {
			return err
		}
	}
	return nil
}

func (p Printer) printEntry(w *bufio.Writer, e Entry) error {
	switch e := e.(type) {
	case *Transaction:
		fmt.Fprintf(w, "%s * %s", e.Date, quote(e.Narration))
		for _, t := range e.Tags {
			fmt.Fprintf(w, " #%s", t)
		}
		for _, l := range e.Links {
			fmt.Fprintf(w, " ^%s", l)
		}
		w.WriteString("\n")
		for _, posting := range e.Postings {
			w.WriteString(p.posting(posting))
			w.WriteString("\n")
		}
	case *Note:
		fmt.Fprintf(w, "%s note %s %s\n", e.Date, e.Account, quote(e.Comment))
	case *Commodity:
		fmt.Fprintf(w, "%s commodity %s\n", e.Date, e.Currency)
		if e.Name != "" {
			fmt.Fprintf(w, "  name: %s\n", quote(e.Name))
		}
	case *Balance:
		fmt.Fprintf(w, "%s balance %s  %s\n", e.Date, e.Account, p.amount(e.Amount))
	case *Price:
		fmt.Fprintf(w, "%s price %s  %s %s\n", e.Date, e.Currency, formatPrice(e.Amount.Number), e.Amount.Currency)
	default:
		return fmt.Errorf("unsupported entry %T", e)
	}
	return nil
}

func (p Printer) posting(posting Posting) string {
	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(posting.Account)
	if posting.Units == nil {
		return sb.String()
	}
	sb.WriteString("  ")
	sb.WriteString(p.amount(*posting.Units))
	if c := posting.Cost; c != nil {
		var parts []string
		if c.Number != nil {
			parts = append(parts, formatPrice(*c.Number)+" "+c.Currency)
		}
		if !c.Date.IsZero() {
			parts = append(parts, c.Date.String())
		}
		fmt.Fprintf(&sb, " {%s}", strings.Join(parts, ", "))
	}
	if pr := posting.Price; pr != nil {
		fmt.Fprintf(&sb, " @ %s %s", formatPrice(pr.Number), pr.Currency)
	}
	return sb.String()
}

// amount prints cash to its minor unit, and anything else as is.
func (p Printer) amount(a Amount) string {
	if a.Currency == p.Currency {
		return a.Number.StringFixed(cashPlaces(a.Currency)) + " " + a.Currency
	}
	return a.Number.String() + " " + a.Currency
}

// formatPrice prints at least 4 decimal places.
// formatPrice prints 4 places, or every digit of a more precise price.
func formatPrice(d decimal.Decimal) string {
	if d.Equal(d.Round(pricePlaces)) {
		return d.StringFixed(pricePlaces)
	}
	return d.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
