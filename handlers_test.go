package tdledger

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zeroFees = `"fees": {"rFee": 0, "additionalFee": 0, "cdscFee": 0, "regFee": 0, "otherCharges": 0, "commission": 0, "optRegFee": 0, "secFee": 0}`

func TestWireIn(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "WIRE_IN",
		"transactionId": 99988877766,
		"description": "THIRD PARTY",
		`+zeroFees+`,
		"transactionDate": "2017-08-31T16:25:02+0000",
		"netAmount": 21085.7,
		"transactionItem": {"accountId": 123456789, "cost": 0, "instrument": {"symbol": "NO DESCRIPTION"}}
	}`)
	want := `2017-08-31 * "(WIN) THIRD PARTY" ^td-99988877766
  Assets:US:MSSB:Cash  -21085.70 USD
  Assets:US:Ameritrade:Main:Cash  21085.70 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestBuyEquity(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "TRADE",
		"transactionId": 17296785500,
		"description": "BUY TRADE",
		"orderId": "T1646318287",
		"fees": {"rFee": 0, "additionalFee": 0, "cdscFee": 0, "regFee": 0, "otherCharges": 0, "commission": 6.95, "optRegFee": 0, "secFee": 0},
		"transactionDate": "2017-12-08T14:30:05+0000",
		"netAmount": -5585.45,
		"transactionItem": {
			"amount": 100, "price": 55.785, "cost": -5578.5, "instruction": "BUY",
			"instrument": {"symbol": "NYF", "cusip": "464288323", "assetType": "EQUITY"}
		}
	}`)
	want := `2017-12-08 * "(TRD) BUY TRADE" ^order-T1646318287 ^td-17296785500
  Assets:US:Ameritrade:Main:NYF  100 NYF {55.7850 USD, 2017-12-08}
  Expenses:Financial:Commissions  6.95 USD
  Assets:US:Ameritrade:Main:Cash  -5585.45 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

const buyOption = `{
	"type": "TRADE",
	"transactionId": 19863224541,
	"description": "BUY TRADE",
	"orderId": "T2032476733.1",
	"fees": {"rFee": 0, "additionalFee": 0, "cdscFee": 0, "regFee": 0, "otherCharges": 0.08, "commission": 7.95, "optRegFee": 0, "secFee": 0},
	"transactionDate": "2018-08-30T15:44:10+0000",
	"netAmount": -584.03,
	"transactionItem": {
		"amount": 6, "price": 0.96, "cost": -576, "instruction": "BUY", "positionEffect": "OPENING",
		"instrument": {"symbol": "XSP_090718P290", "cusip": "0XSP..UI80290000", "assetType": "OPTION",
			"description": "XSP Sep 7 2018 290.0 Put", "underlyingSymbol": "XSP", "putCall": "PUT"}
	}
}`

func TestBuyOpeningOption(t *testing.T) {
	entries := dispatchOne(t, buyOption)
	require.Len(t, entries, 2)
	want := `2018-08-30 commodity XSP180907P290
  name: "XSP Sep 7 2018 290.0 Put"

2018-08-30 * "(TRD) BUY TRADE" ^order-T2032476733 ^td-19863224541
  Assets:US:Ameritrade:Main:Options  600 XSP180907P290 {0.9600 USD, 2018-08-30}
  Expenses:Financial:Commissions  7.95 USD
  Expenses:Financial:Fees  0.08 USD
  Assets:US:Ameritrade:Main:Cash  -584.03 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestCommodityDeclaredOnce(t *testing.T) {
	d := NewDispatcher(DefaultConfig(), true, nil)
	st := NewState()
	first, err := d.Dispatch(rawTxn(t, buyOption), st)
	require.NoError(t, err)
	second, err := d.Dispatch(rawTxn(t, buyOption), st)
	require.NoError(t, err)

	assert.Len(t, first, 2)
	require.Len(t, second, 1)
	assert.Equal(t, TypeTransaction, second[0].What())
	assert.Contains(t, st.Commodities, "XSP180907P290")
}

const sellClosingOption = `{
	"type": "TRADE",
	"transactionId": 20163853370,
	"description": "SELL TRADE",
	"orderId": "T2074834010.2",
	"fees": {"rFee": 0, "additionalFee": 0, "cdscFee": 0, "regFee": 0.95, "otherCharges": 0, "commission": 44.45, "optRegFee": 0.83, "secFee": 0},
	"transactionDate": "2018-08-16T15:30:00+0000",
	"netAmount": 1154.6,
	"transactionItem": {
		"amount": 50, "price": 0.24, "cost": 1200, "instruction": "SELL", "positionEffect": "CLOSING",
		"instrument": {"symbol": "SPY_081718P250", "assetType": "OPTION", "description": "SPY Aug 17 2018 250.0 Put"}
	}
}`

func TestSellClosingOption(t *testing.T) {
	entries := dispatchOne(t, sellClosingOption)
	want := `2018-08-16 * "(TRD) SELL TRADE" ^order-T2074834010 ^td-20163853370
  Assets:US:Ameritrade:Main:Options  -5000 SPY180817P250 {} @ 0.2400 USD
  Expenses:Financial:Commissions  44.45 USD
  Expenses:Financial:Fees  0.95 USD
  Assets:US:Ameritrade:Main:Cash  1154.60 USD
  Income:US:Ameritrade:Main:PnL

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestOptionFromCusip(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "TRADE",
		"transactionId": 20163853371,
		"description": "SELL TRADE",
		"fees": {"commission": 0},
		"transactionDate": "2019-01-04T15:30:00+0000",
		"netAmount": 120,
		"transactionItem": {
			"amount": 1, "price": 1.2, "instruction": "SELL", "positionEffect": "OPENING",
			"instrument": {"cusip": "0SPY..HH80290000", "assetType": "OPTION"}
		}
	}`)
	require.Len(t, entries, 2)
	c := entries[0].(*Commodity)
	assert.Equal(t, "SPY180817C290", c.Currency)
}

func TestSellEquity(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "TRADE",
		"transactionId": 17000000001,
		"description": "SELL TRADE",
		"orderId": "T1500000000.1",
		"fees": {"rFee": 0, "additionalFee": 0, "cdscFee": 0, "regFee": 0.73, "otherCharges": 0, "commission": 6.95, "optRegFee": 0, "secFee": 0.73},
		"transactionDate": "2017-11-20T15:00:00+0000",
		"netAmount": 31696.17,
		"transactionItem": {
			"amount": 94, "price": 337.275, "cost": 31703.85, "instruction": "SELL", "positionEffect": "OPENING",
			"instrument": {"symbol": "TSLA", "cusip": "88160R101", "assetType": "EQUITY"}
		}
	}`)
	want := `2017-11-20 * "(TRD) SELL TRADE" ^order-T1500000000 ^td-17000000001
  Assets:US:Ameritrade:Main:TSLA  -94 TSLA {} @ 337.2750 USD
  Expenses:Financial:Commissions  6.95 USD
  Expenses:Financial:Fees  0.73 USD
  Assets:US:Ameritrade:Main:Cash  31696.17 USD
  Income:US:Ameritrade:Main:PnL

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestMoneyMarketInterest(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "RECEIVE_AND_DELIVER",
		"transactionId": 18000000001,
		"description": "CASH ALTERNATIVES INTEREST",
		`+zeroFees+`,
		"transactionDate": "2018-03-01T05:00:00+0000",
		"netAmount": 0,
		"transactionItem": {"amount": 1.24, "cost": 0, "instrument": {"symbol": "MMDA1", "assetType": "CASH_EQUIVALENT"}}
	}`)
	want := `2018-03-01 * "(RAD) CASH ALTERNATIVES INTEREST" ^td-18000000001
  Income:US:Ameritrade:Main:Interest  -1.24 USD
  Assets:US:Ameritrade:Main:Cash  1.24 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestElectronicFundingDisbursement(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "ELECTRONIC_FUND",
		"transactionId": 18000000002,
		"description": "CLIENT REQUESTED ELECTRONIC FUNDING DISBURSEMENT (FUNDS NOW)",
		`+zeroFees+`,
		"transactionDate": "2018-05-02T12:00:00+0000",
		"netAmount": -4700
	}`)
	want := `2018-05-02 * "(EFN) CLIENT REQUESTED ELECTRONIC FUNDING DISBURSEMENT (FUNDS NOW)" ^td-18000000002
  Assets:US:Ameritrade:Main:Cash  -4700.00 USD
  Assets:US:TD:Checking  4700.00 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestElectronicFundingReceipt(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "ELECTRONIC_FUND",
		"transactionId": 18000000003,
		"description": "CLIENT REQUESTED ELECTRONIC FUNDING RECEIPT (FUNDS NOW)",
		"transactionDate": "2018-05-03T12:00:00+0000",
		"netAmount": 1000
	}`)
	want := `2018-05-03 * "(EFN) CLIENT REQUESTED ELECTRONIC FUNDING RECEIPT (FUNDS NOW)" ^td-18000000003
  Assets:US:TD:Checking  -1000.00 USD
  Assets:US:Ameritrade:Main:Cash  1000.00 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestDividend(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "DIVIDEND_OR_INTEREST",
		"transactionId": 18000000004,
		"description": "ORDINARY DIVIDEND",
		`+zeroFees+`,
		"transactionDate": "2018-06-28T05:00:00+0000",
		"netAmount": 30.45,
		"transactionItem": {"instrument": {"symbol": "HDV", "cusip": "46429B663", "assetType": "EQUITY"}}
	}`)
	want := `2018-06-28 * "(DOI) ORDINARY DIVIDEND" ^td-18000000004
  Income:US:Ameritrade:Main:HDV:Dividend  -30.45 USD
  Assets:US:Ameritrade:Main:Cash  30.45 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestDividendFromCusip(t *testing.T) {
	const dividend = `{
		"type": "DIVIDEND_OR_INTEREST",
		"transactionId": 18000000014,
		"description": "ORDINARY DIVIDEND",
		` + zeroFees + `,
		"transactionDate": "2018-09-27T05:00:00+0000",
		"netAmount": 31.2,
		"transactionItem": {"instrument": {"cusip": "46429B663", "assetType": "EQUITY"}}
	}`
	_, err := NewDispatcher(DefaultConfig(), true, nil).Dispatch(rawTxn(t, dividend), NewState())
	var ierr *DataIntegrityError
	require.True(t, errors.As(err, &ierr), "got %v", err)

	d := NewDispatcher(DefaultConfig(), true, nil)
	d.UseCusips(map[string]string{"46429B663": "HDV"})
	entries, err := d.Dispatch(rawTxn(t, dividend), NewState())
	require.NoError(t, err)
	want := `2018-09-27 * "(DOI) ORDINARY DIVIDEND" ^td-18000000014
  Income:US:Ameritrade:Main:HDV:Dividend  -31.20 USD
  Assets:US:Ameritrade:Main:Cash  31.20 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestShortTermCapitalGains(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "DIVIDEND_OR_INTEREST",
		"transactionId": 18000000005,
		"description": "SHORT TERM CAPITAL GAINS",
		"transactionDate": "2018-12-20T05:00:00+0000",
		"netAmount": 12.5,
		"transactionItem": {"instrument": {"symbol": "PFF", "assetType": "EQUITY"}}
	}`)
	want := `2018-12-20 * "(DOI) SHORT TERM CAPITAL GAINS - PFF" ^td-18000000005
  Assets:US:Ameritrade:Main:Cash  12.50 USD
  Income:US:Ameritrade:Main:PnL  -12.50 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestHardToBorrowFee(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "JOURNAL",
		"transactionId": 18000000006,
		"description": "HARD TO BORROW FEE",
		"transactionDate": "2018-07-02T05:00:00+0000",
		"netAmount": -0.32
	}`)
	want := `2018-07-02 * "(JRN) HARD TO BORROW FEE" ^td-18000000006
  Expenses:Financial:Fees:HardToBorrow  -0.32 USD
  Assets:US:Ameritrade:Main:Cash  0.32 USD

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestStockSplit(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "RECEIVE_AND_DELIVER",
		"transactionId": 18000000007,
		"description": "STOCK SPLIT",
		"transactionDate": "2018-04-10T05:00:00+0000",
		"netAmount": 0,
		"transactionItem": {"amount": 30, "instrument": {"symbol": "ZROZ", "assetType": "EQUITY"}}
	}`)
	want := `2018-04-10 * "(RAD) STOCK SPLIT" ^td-18000000007
  Assets:US:Ameritrade:Main:ZROZ  -30 ZROZ {}
  Assets:US:Ameritrade:Main:ZROZ  60 ZROZ {}

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestIgnoredTransactions(t *testing.T) {
	for _, desc := range []string{"CASH ALTERNATIVES PURCHASE", "CASH ALTERNATIVES REDEMPTION"} {
		t.Run(desc, func(t *testing.T) {
			entries := dispatchOne(t, `{
				"type": "JOURNAL",
				"transactionId": 18000000008,
				"description": "`+desc+`",
				"transactionDate": "2018-04-10T05:00:00+0000",
				"netAmount": -1500
			}`)
			assert.Empty(t, entries)
		})
	}
}

func TestNotes(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "JOURNAL",
		"transactionId": 18000000009,
		"description": "INTRA-ACCOUNT TRANSFER",
		"subAccount": "2",
		"transactionDate": "2018-04-11T05:00:00+0000",
		"netAmount": 25.5
	}`)
	want := `2018-04-11 note Assets:US:Ameritrade:Main:Cash "Intra-Account Transfer (subAccount: 2; link: ^td-18000000009; netAmount: 25.5)"

`
	assert.Equal(t, want, printEntries(t, entries))

	entries = dispatchOne(t, `{
		"type": "JOURNAL",
		"transactionId": 18000000010,
		"description": "MISCELLANEOUS JOURNAL ENTRY",
		"transactionDate": "2018-04-12T05:00:00+0000",
		"netAmount": -3
	}`)
	want = `2018-04-12 note Assets:US:Ameritrade:Main:Cash "Miscellaneous Journal Entry (transactionId: ^td-18000000010; netAmount: -3)"

`
	assert.Equal(t, want, printEntries(t, entries))
}

func TestNameChange(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "RECEIVE_AND_DELIVER",
		"transactionId": 18000000011,
		"description": "MANDATORY - NAME CHANGE",
		"transactionDate": "2018-04-13T05:00:00+0000",
		"netAmount": 0
	}`)
	require.Len(t, entries, 1)
	txn := entries[0].(*Transaction)
	assert.Empty(t, txn.Postings)
	assert.Equal(t, "(RAD) MANDATORY - NAME CHANGE", txn.Narration)
}

func TestInternalTransfer(t *testing.T) {
	entries := dispatchOne(t, `{
		"type": "RECEIVE_AND_DELIVER",
		"transactionId": 18000000012,
		"description": "INTERNAL TRANSFER BETWEEN ACCOUNTS OR ACCOUNT TYPES",
		"transactionDate": "2018-04-14T05:00:00+0000",
		"netAmount": 0
	}`)
	assert.Empty(t, entries)

	_, err := NewDispatcher(DefaultConfig(), true, nil).Dispatch(rawTxn(t, `{
		"type": "RECEIVE_AND_DELIVER",
		"transactionId": 18000000012,
		"description": "INTERNAL TRANSFER BETWEEN ACCOUNTS OR ACCOUNT TYPES",
		"transactionDate": "2018-04-14T05:00:00+0000",
		"netAmount": 10
	}`), NewState())
	var integrity *DataIntegrityError
	require.True(t, errors.As(err, &integrity), "got %v", err)
	assert.Equal(t, "18000000012", integrity.ID)
}

func removal(id, amount string) string {
	return `{
		"type": "RECEIVE_AND_DELIVER",
		"transactionId": ` + id + `,
		"description": "REMOVAL OF OPTION DUE TO EXPIRATION",
		"transactionDate": "2018-08-20T05:00:00+0000",
		"netAmount": 0,
		"transactionItem": {"amount": ` + amount + `, "instrument": {"symbol": "SPY_081718P250", "assetType": "OPTION"}}
	}`
}

func TestOptionRemovalSign(t *testing.T) {
	const account = "Assets:US:Ameritrade:Main:Options"
	tests := []struct {
		name string
		held string // units held before the removal, empty for none
		want string
	}{
		{"absent", "", "-300"},
		{"long", "300", "-300"},
		{"short", "-300", "300"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			st := NewState()
			if test.held != "" {
				st.Balances.Add(account, Amount{Number: D(test.held), Currency: "SPY180817P250"})
			}
			entries, err := NewDispatcher(DefaultConfig(), true, nil).Dispatch(rawTxn(t, removal("18000000013", "3")), st)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			p := entries[0].(*Transaction).Postings[0]
			assert.True(t, p.Units.Number.Equal(D(test.want)), "got %s, want %s", p.Units.Number, test.want)
			assert.False(t, p.Cost.Resolved())
			assert.True(t, p.Price.Number.IsZero())

			_, stillHeld := st.Balances.Units(account, "SPY180817P250")
			assert.False(t, stillHeld && test.held != "", "the removal should close the position")
		})
	}
}

func TestFeeOnFeeFreeType(t *testing.T) {
	_, err := NewDispatcher(DefaultConfig(), true, nil).Dispatch(rawTxn(t, `{
		"type": "WIRE_IN",
		"transactionId": 18000000014,
		"description": "WIRE INCOMING",
		"fees": {"commission": 0, "otherCharges": 15},
		"transactionDate": "2018-04-15T05:00:00+0000",
		"netAmount": 100
	}`), NewState())
	var integrity *DataIntegrityError
	assert.True(t, errors.As(err, &integrity), "got %v", err)
}

func TestDispatchIdempotent(t *testing.T) {
	for _, raw := range []string{buyOption, sellClosingOption} {
		first := dispatchOne(t, raw)
		second := dispatchOne(t, raw)
		if diff := cmp.Diff(first, second, entryCmpOpts); diff != "" {
			t.Errorf("dispatching twice differs (-first +second):\n%s", diff)
		}
	}
}
