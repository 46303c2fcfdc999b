package tdledger

import (
	"strings"
	"testing"

	"github.com/etnz/tdledger/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// rawTxn parses a broker transaction literal.
func rawTxn(t *testing.T, s string) RawTransaction {
	t.Helper()
	txn, err := ParseRawTransaction([]byte(s))
	require.NoError(t, err)
	return txn
}

// printEntries returns the ledger text of entries.
func printEntries(t *testing.T, entries []Entry) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, Printer{Currency: "USD"}.Print(&sb, entries))
	return sb.String()
}

// dispatchOne converts a single transaction on an empty state.
func dispatchOne(t *testing.T, s string) []Entry {
	t.Helper()
	entries, err := NewDispatcher(DefaultConfig(), true, nil).Dispatch(rawTxn(t, s), NewState())
	require.NoError(t, err)
	return entries
}

// D parses a decimal, for tests only.
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// entryCmpOpts compare entries structurally.
var entryCmpOpts = cmp.Options{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmp.AllowUnexported(Transaction{}, Note{}, Commodity{}, Balance{}, Price{}, date.Date{}),
	cmpopts.EquateEmpty(),
}
