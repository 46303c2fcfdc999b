package tdledger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/etnz/tdledger/date"
)

func narrations(entries []Entry) string {
	var names []string
	for _, e := range entries {
		switch e := e.(type) {
		case *Transaction:
			names = append(names, e.Narration)
		case *Commodity:
			names = append(names, "commodity "+e.Currency)
		default:
			names = append(names, string(e.What()))
		}
	}
	return strings.Join(names, ", ")
}

func TestSortEntries(t *testing.T) {
	entries := []Entry{
		NewTransaction(day2, "trade"),
		NewNote(day1, cashAc, "note"),
		NewCommodity(day2, "SPY180817P250", ""),
		NewTransaction(day2, "(RAD) REMOVAL OF OPTION DUE TO EXPIRATION"),
		NewTransaction(day1, "first"),
		NewTransaction(day2, "other trade"),
		NewPrice(day2, "SPY180817P250", *usd("0")),
	}
	got := narrations(SortEntries(entries))
	want := "first, note, (RAD) REMOVAL OF OPTION DUE TO EXPIRATION, commodity SPY180817P250, trade, other trade, price"
	if got != want {
		t.Errorf("SortEntries() = %s\nwant %s", got, want)
	}
	if entries[0].(*Transaction).Narration != "trade" {
		t.Error("SortEntries() modified its input")
	}
}

func holding(on date.Date, narration string, currencies ...string) *Transaction {
	t := NewTransaction(on, narration)
	for _, c := range currencies {
		t.Add(Posting{Account: optAc, Units: A(D("1"), c), Cost: UnresolvedCost()})
	}
	t.Add(Posting{Account: cashAc, Units: usd("-1")})
	return t
}

func TestGroupByUnderlying(t *testing.T) {
	entries := []Entry{
		holding(day2, "spy put", "SPY180817P250"),
		holding(day1, "spy stock", "SPY"),
		holding(day1, "spy call", "SPY180817C290"),
		holding(day1, "spread", "SPY180817C290", "XSP180907P290"),
		NewNote(day1, cashAc, "note"),
		NewBalanceEntry(day3, cashAc, *usd("10")),
		NewPrice(day3, "XSP180907P290", *usd("0")),
		NewTransaction(day1, "transfer"),
	}
	var logs bytes.Buffer
	groups := GroupByUnderlying(entries, slog.New(slog.NewTextHandler(&logs, nil)))

	var got []string
	for _, g := range groups {
		got = append(got, g.Header()+": "+narrations(g.Entries))
	}
	want := []string{
		"General: note, transfer",
		"SPY: spy stock",
		"Options: SPY: spy call, spy put",
		"Options: XSP: price",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("GroupByUnderlying() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if !strings.Contains(logs.String(), "spread") {
		t.Errorf("the multi-underlying transaction should be logged, got %q", logs.String())
	}
}
