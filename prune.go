package tdledger

import (
	"regexp"

	"github.com/etnz/tdledger/date"
)

// importLinkRe matches the links of imported broker transactions.
var importLinkRe = regexp.MustCompile(`^td-\d{9,}`)

// Seen is what an existing ledger already contains: the imported transaction
// links and the date of the last of them.
type Seen struct {
	Links map[string]bool
	Last  date.Date
}

// Empty reports whether nothing was seen.
func (s Seen) Empty() bool { return len(s.Links) == 0 }

// Add records an imported link dated on.
func (s *Seen) Add(link string, on date.Date) {
	if s.Links == nil {
		s.Links = make(map[string]bool)
	}
	s.Links[link] = true
	if on.After(s.Last) {
		s.Last = on
	}
}

// Merge adds the links of o.
func (s *Seen) Merge(o Seen) {
	for l := range o.Links {
		s.Add(l, o.Last)
	}
	if o.Last.After(s.Last) {
		s.Last = o.Last
	}
}

// CollectSeen returns the imported links of existing entries.
func CollectSeen(entries []Entry) Seen {
	var s Seen
	for t := range Transactions(entries) {
		for _, l := range t.Links {
			if importLinkRe.MatchString(l) {
				s.Add(l, t.Date)
			}
		}
	}
	return s
}

// PruneImported removes the entries already present in a ledger: transactions
// sharing a link with it, and other entries dated before its last import.
func PruneImported(entries []Entry, seen Seen) []Entry {
	if seen.Empty() {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if t, ok := e.(*Transaction); ok {
			if !sharesLink(t, seen) {
				out = append(out, e)
			}
			continue
		}
		if !e.When().Before(seen.Last) {
			out = append(out, e)
		}
	}
	return out
}

func sharesLink(t *Transaction, seen Seen) bool {
	for _, l := range t.Links {
		if seen.Links[l] {
			return true
		}
	}
	return false
}
