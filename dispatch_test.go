package tdledger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTableRejectsDuplicates(t *testing.T) {
	regs := []registration{
		{keys(TxnJournal, DescMarkToTheMarket), handler{fn: ignore}},
		{keys(TxnJournal, DescNameChange, DescMarkToTheMarket), handler{fn: ignore}},
	}
	_, err := buildTable(regs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(JOURNAL, MARK TO THE MARKET)")
}

func TestRegistrationsAreUnique(t *testing.T) {
	table, err := buildTable(registrations)
	require.NoError(t, err)
	assert.Len(t, table, 32)
}

func TestHandled(t *testing.T) {
	assert.True(t, Handled(Key{TxnTrade, DescBuyTrade}))
	assert.True(t, Handled(Key{TxnJournal, DescNameChange}))
	assert.False(t, Handled(Key{TxnWireOut, "WIRE OUTGOING"}))
}

const unhandled = `{
	"type": "MARGIN_CALL",
	"transactionId": 18000000100,
	"description": "MARGIN CALL",
	"transactionDate": "2018-04-14T05:00:00+0000",
	"netAmount": 0
}`

func TestDispatchUnhandled(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		_, err := NewDispatcher(DefaultConfig(), true, nil).Dispatch(rawTxn(t, unhandled), NewState())
		var uerr *UnhandledTransactionError
		require.True(t, errors.As(err, &uerr), "got %v", err)
		assert.Equal(t, Key{TxnMarginCall, "MARGIN CALL"}, uerr.Key)
		assert.Equal(t, "18000000100", uerr.ID)
	})

	t.Run("lenient", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		entries, err := NewDispatcher(DefaultConfig(), false, logger).Dispatch(rawTxn(t, unhandled), NewState())
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Contains(t, logs.String(), "ignoring unhandled transaction")
		assert.Contains(t, logs.String(), "id=18000000100")
	})
}

func TestDispatchUpdatesBalances(t *testing.T) {
	st := NewState()
	d := NewDispatcher(DefaultConfig(), true, nil)
	_, err := d.Dispatch(rawTxn(t, buyOption), st)
	require.NoError(t, err)

	units, ok := st.Balances.Units("Assets:US:Ameritrade:Main:Options", "XSP180907P290")
	require.True(t, ok)
	assert.True(t, units.Equal(D("600")), "got %s", units)
	cash, _ := st.Balances.Units("Assets:US:Ameritrade:Main:Cash", "USD")
	assert.True(t, cash.Equal(D("-584.03")), "got %s", cash)
}

func TestDispatchMissingDate(t *testing.T) {
	_, err := NewDispatcher(DefaultConfig(), true, nil).Dispatch(rawTxn(t, `{
		"type": "WIRE_IN",
		"transactionId": 18000000101,
		"description": "WIRE INCOMING",
		"netAmount": 100
	}`), NewState())
	var integrity *DataIntegrityError
	assert.True(t, errors.As(err, &integrity), "got %v", err)
}
