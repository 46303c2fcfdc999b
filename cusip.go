package tdledger

import "slices"

// CusipMap maps instrument cusips to their symbol, from the first transaction
// naming both.
func CusipMap(txns []RawTransaction) map[string]string {
	m := make(map[string]string)
	for _, txn := range txns {
		cusip, symbol := txn.Str(pathCusip), txn.Str(pathSymbol)
		if cusip == "" || symbol == "" {
			continue
		}
		if _, ok := m[cusip]; !ok {
			m[cusip] = symbol
		}
	}
	return m
}

// SortOldestFirst returns the transactions in chronological order. txns are
// expected in broker order, newest first: they are reversed before sorting, so
// that transactions sharing a timestamp come out oldest first too.
// Transactions with an unreadable date come first.
func SortOldestFirst(txns []RawTransaction) []RawTransaction {
	sorted := slices.Clone(txns)
	slices.Reverse(sorted)
	slices.SortStableFunc(sorted, func(a, b RawTransaction) int {
		ta, _ := a.Time()
		tb, _ := b.Time()
		return ta.Compare(tb)
	})
	return sorted
}
