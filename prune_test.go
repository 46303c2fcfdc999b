package tdledger

import "testing"

func TestCollectSeen(t *testing.T) {
	existing := []Entry{
		NewTransaction(day1, "a", "td-123456789", "order-T1"),
		NewTransaction(day2, "b", "td-12345", "trade-abc"),
		NewTransaction(day3, "c"),
		NewNote(day3, cashAc, "not a transaction"),
	}
	seen := CollectSeen(existing)
	if len(seen.Links) != 1 || !seen.Links["td-123456789"] {
		t.Errorf("CollectSeen() links = %v, want only td-123456789", seen.Links)
	}
	if seen.Last != day1 {
		t.Errorf("CollectSeen() last = %s, want %s", seen.Last, day1)
	}
}

func TestPruneImported(t *testing.T) {
	var seen Seen
	seen.Add("td-100000001", day1)
	seen.Add("td-100000002", day2)

	entries := []Entry{
		NewTransaction(day1, "old", "td-100000001"),
		NewTransaction(day2, "old with trade link", "td-100000002", "trade-x"),
		NewTransaction(day1, "new but early", "td-100000003"),
		NewTransaction(day3, "new", "td-100000004"),
		NewNote(day1, cashAc, "early note"),
		NewCommodity(day2, "SPY180817P250", ""),
		NewPrice(day3, "SPY180817P250", *usd("0")),
	}
	got := narrations(PruneImported(entries, seen))
	want := "new but early, new, commodity SPY180817P250, price"
	if got != want {
		t.Errorf("PruneImported() = %s, want %s", got, want)
	}
}

func TestPruneNothingSeen(t *testing.T) {
	entries := []Entry{NewNote(day1, cashAc, "note")}
	if got := PruneImported(entries, Seen{}); len(got) != 1 {
		t.Errorf("PruneImported() = %v, want the entries unchanged", got)
	}
}

func TestSeenMerge(t *testing.T) {
	var a, b Seen
	a.Add("td-100000001", day1)
	b.Add("td-100000002", day3)

	a.Merge(b)
	if len(a.Links) != 2 || !a.Links["td-100000002"] {
		t.Errorf("Merge() links = %v, want both", a.Links)
	}
	if a.Last != day3 {
		t.Errorf("Merge() last = %s, want %s", a.Last, day3)
	}

	var empty Seen
	empty.Merge(Seen{})
	if !empty.Empty() {
		t.Errorf("Merge() of nothing = %v, want empty", empty)
	}
}
