package tdledger

import (
	"fmt"
	"log/slog"
)

// Needs declares the run state a handler reads.
type Needs uint8

const (
	NeedsBalances Needs = 1 << iota
	NeedsCommodities
)

// deps holds the parts of the run state a handler declared it needs, the others
// are nil.
type deps struct {
	balances    Balances
	commodities Commodities
}

// handlerFunc converts a raw transaction into zero or more entries.
type handlerFunc func(b *builder, txn RawTransaction, d deps) ([]Entry, error)

// handler is a dispatch table entry.
type handler struct {
	fn    handlerFunc
	needs Needs
	// feeFree handlers reject transactions carrying a nonzero fee.
	feeFree bool
}

type registration struct {
	keys []Key
	handler
}

func keys(t TxnType, descriptions ...Description) []Key {
	ks := make([]Key, 0, len(descriptions))
	for _, d := range descriptions {
		ks = append(ks, Key{Type: t, Description: d})
	}
	return ks
}

// registrations is the closed list of handled transactions.
var registrations = []registration{
	{keys(TxnJournal, DescCashAlternativesRedemption, DescCashAlternativesPurchase), handler{fn: ignore}},
	{keys(TxnReceiveAndDeliver, DescCashAlternativesRedemption, DescCashAlternativesPurchase), handler{fn: ignore}},
	{keys(TxnReceiveAndDeliver, DescCashAlternativesInterest), handler{fn: (*builder).moneyMarketInterest, feeFree: true}},
	{keys(TxnWireIn, DescThirdParty, DescWireIncoming), handler{fn: (*builder).thirdParty, feeFree: true}},
	{keys(TxnDividendOrInterest, DescInterestAdjustment), handler{fn: (*builder).interestAdjustment, feeFree: true}},
	{keys(TxnDividendOrInterest, DescOrdinaryDividend, DescNonTaxableDividends, DescLongTermGain), handler{fn: (*builder).dividend, feeFree: true}},
	{keys(TxnDividendOrInterest, DescShortTermCapitalGains), handler{fn: (*builder).capitalGains, feeFree: true}},
	{keys(TxnElectronicFund, DescFundingReceipt, DescFundingDisbursement), handler{fn: (*builder).electronicFunding, feeFree: true}},
	{
		keys(TxnTrade, DescBuyTrade, DescSellTrade, DescShortSale, DescCloseShortPosition, DescTradeCorrection, DescOptionAssignment, DescOptionExercise),
		handler{fn: (*builder).trade, needs: NeedsCommodities},
	},
	{keys(TxnReceiveAndDeliver, DescStockSplit), handler{fn: (*builder).stockSplit}},
	{
		keys(TxnReceiveAndDeliver, DescRemovalDueToAssignment, DescRemovalDueToExercise, DescRemovalDueToExpiration),
		handler{fn: (*builder).optionRemoval, needs: NeedsBalances},
	},
	{keys(TxnReceiveAndDeliver, DescInternalTransfer), handler{fn: (*builder).internalTransfer}},
	{keys(TxnReceiveAndDeliver, DescNameChange), handler{fn: (*builder).nameChange}},
	{keys(TxnJournal, DescNameChange), handler{fn: (*builder).nameChange}},
	{keys(TxnJournal, DescMarkToTheMarket), handler{fn: ignore}},
	{keys(TxnJournal, DescIntraAccountTransfer), handler{fn: (*builder).intraAccountTransfer}},
	{keys(TxnJournal, DescMiscellaneousJournal), handler{fn: (*builder).miscellaneousJournal}},
	{keys(TxnJournal, DescHardToBorrowFee), handler{fn: (*builder).hardToBorrow, feeFree: true}},
}

// buildTable indexes registrations by key, a key can only be registered once.
func buildTable(regs []registration) (map[Key]handler, error) {
	table := make(map[Key]handler)
	for _, r := range regs {
		for _, k := range r.keys {
			if _, exists := table[k]; exists {
				return nil, fmt.Errorf("duplicate handler for %s", k)
			}
			table[k] = r.handler
		}
	}
	return table, nil
}

var dispatchTable = mustBuildTable(registrations)

func mustBuildTable(regs []registration) map[Key]handler {
	table, err := buildTable(regs)
	if err != nil {
		panic(err)
	}
	return table
}

// Handled reports whether a key has a handler.
func Handled(k Key) bool {
	_, ok := dispatchTable[k]
	return ok
}

// Dispatcher converts raw transactions one at a time.
type Dispatcher struct {
	builder builder
	strict  bool
	logger  *slog.Logger
}

// NewDispatcher returns a Dispatcher. In strict mode, an unhandled transaction
// is an error, otherwise it is logged and skipped. A nil logger uses
// slog.Default().
func NewDispatcher(cfg Config, strict bool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{builder: builder{cfg: cfg}, strict: strict, logger: logger}
}

// UseCusips sets the symbols used for instruments identified by their cusip
// only, as returned by CusipMap.
func (d *Dispatcher) UseCusips(m map[string]string) { d.builder.cusips = m }

// Dispatch converts a transaction and records the units of the resulting
// postings into the state balances. Transactions must be dispatched oldest
// first. It returns no entries for ignored and skipped transactions.
func (d *Dispatcher) Dispatch(txn RawTransaction, st *State) ([]Entry, error) {
	key := txn.Key()
	h, ok := dispatchTable[key]
	if !ok {
		if d.strict {
			return nil, &UnhandledTransactionError{Key: key, ID: txn.ID()}
		}
		d.logger.Warn("ignoring unhandled transaction", "id", txn.ID(), "type", key.Type, "description", key.Description)
		return nil, nil
	}

	if h.feeFree {
		if err := checkNoFees(txn); err != nil {
			return nil, err
		}
	}

	var dp deps
	if h.needs&NeedsBalances != 0 {
		dp.balances = st.Balances
	}
	if h.needs&NeedsCommodities != 0 {
		dp.commodities = st.Commodities
	}

	entries, err := h.fn(&d.builder, txn, dp)
	if err != nil {
		return nil, err
	}
	st.apply(entries)
	d.logger.Debug("dispatched transaction", "id", txn.ID(), "key", key.String(), "entries", len(entries))
	return entries, nil
}

// checkNoFees fails on any nonzero fee.
func checkNoFees(txn RawTransaction) error {
	fees, err := txn.Fees()
	if err != nil {
		return err
	}
	for _, f := range fees {
		if !f.Amount.IsZero() {
			return txn.integrity("unexpected fee %s=%s on a fee-free transaction type", f.Name, f.Amount)
		}
	}
	return nil
}
