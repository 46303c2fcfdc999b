package tdledger

import (
	"fmt"
	"regexp"

	"github.com/etnz/tdledger/options"
	"github.com/shopspring/decimal"
)

// builder holds the posting builders, one method per transaction category.
type builder struct {
	cfg    Config
	cusips map[string]string // symbols by cusip, for instruments without symbol
}

// symbol returns the instrument symbol, or the symbol known for its cusip.
func (b *builder) symbol(txn RawTransaction) string {
	if s := txn.Str(pathSymbol); s != "" {
		return s
	}
	return b.cusips[txn.Str(pathCusip)]
}

// Asset types of the transaction instrument.
const (
	assetEquity = "EQUITY"
	assetOption = "OPTION"
)

// splitRatio is the post-split quantity per pre-split unit. The payload does
// not carry the ratio.
var splitRatio = decimal.NewFromInt(2)

var (
	contractSize = decimal.NewFromInt(ContractSize)
	orderIDRe    = regexp.MustCompile(`^([A-Z0-9]+)\.\d+`)
)

// closingEquityTrades are the equity trades reducing a position. The
// positionEffect field is not reliable for equities.
var closingEquityTrades = map[Description]bool{
	DescCloseShortPosition: true,
	DescSellTrade:          true,
}

func ignore(*builder, RawTransaction, deps) ([]Entry, error) { return nil, nil }

// newTransaction returns an empty transaction with the narration and source
// link of a raw transaction.
func (b *builder) newTransaction(txn RawTransaction) (*Transaction, error) {
	on, err := txn.Date()
	if err != nil {
		return nil, err
	}
	key := txn.Key()
	narration := fmt.Sprintf("(%s) %s", key.Type.Code(), key.Description)
	return NewTransaction(on, narration, txn.Link()), nil
}

// cash returns a cash amount, quantized.
func (b *builder) cash(d decimal.Decimal) *Amount {
	return A(quantizeCash(d, b.cfg.CashCurrency), b.cfg.CashCurrency)
}

func (b *builder) netAmount(txn RawTransaction) (*Amount, error) {
	n, err := txn.NetAmount()
	if err != nil {
		return nil, err
	}
	return b.cash(n), nil
}

// twoLegs builds the common shape: counterpart -units, cash +units.
func (b *builder) twoLegs(txn RawTransaction, counterpart string) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	units, err := b.netAmount(txn)
	if err != nil {
		return nil, err
	}
	neg := units.Neg()
	t.Add(
		Posting{Account: counterpart, Units: &neg},
		Posting{Account: b.cfg.Cash, Units: units},
	)
	return []Entry{t}, nil
}

// moneyMarketInterest reads the amount from the transaction item, the net
// amount is zero.
func (b *builder) moneyMarketInterest(txn RawTransaction, _ deps) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	amount, err := txn.Decimal(pathItemAmount)
	if err != nil {
		return nil, err
	}
	units := b.cash(amount)
	neg := units.Neg()
	t.Add(
		Posting{Account: b.cfg.Interest, Units: &neg},
		Posting{Account: b.cfg.Cash, Units: units},
	)
	return []Entry{t}, nil
}

func (b *builder) thirdParty(txn RawTransaction, _ deps) ([]Entry, error) {
	return b.twoLegs(txn, b.cfg.ThirdParty)
}

func (b *builder) interestAdjustment(txn RawTransaction, _ deps) ([]Entry, error) {
	return b.twoLegs(txn, b.cfg.Adjustment)
}

func (b *builder) dividend(txn RawTransaction, _ deps) ([]Entry, error) {
	symbol := b.symbol(txn)
	if symbol == "" {
		return nil, txn.integrity("dividend without instrument symbol")
	}
	return b.twoLegs(txn, b.cfg.DividendAccount(txn.Key().Description, symbol))
}

func (b *builder) capitalGains(txn RawTransaction, _ deps) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	t.Narration = fmt.Sprintf("%s - %s", t.Narration, b.symbol(txn))
	units, err := b.netAmount(txn)
	if err != nil {
		return nil, err
	}
	neg := units.Neg()
	t.Add(
		Posting{Account: b.cfg.Cash, Units: units},
		Posting{Account: b.cfg.PnL, Units: &neg},
	)
	return []Entry{t}, nil
}

// electronicFunding lists the negative leg first.
func (b *builder) electronicFunding(txn RawTransaction, _ deps) ([]Entry, error) {
	entries, err := b.twoLegs(txn, b.cfg.Transfer)
	if err != nil {
		return nil, err
	}
	t := entries[0].(*Transaction)
	if t.Postings[0].Units.Number.IsPositive() {
		t.Postings[0], t.Postings[1] = t.Postings[1], t.Postings[0]
	}
	return entries, nil
}

func (b *builder) hardToBorrow(txn RawTransaction, _ deps) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	units, err := b.netAmount(txn)
	if err != nil {
		return nil, err
	}
	neg := units.Neg()
	t.Add(
		Posting{Account: b.cfg.HardToBorrow, Units: units},
		Posting{Account: b.cfg.Cash, Units: &neg},
	)
	return []Entry{t}, nil
}

// feePostings splits the commission from the other fees. optRegFee and secFee
// are already included in other fee lines.
func (b *builder) feePostings(txn RawTransaction) ([]Posting, error) {
	fees, err := txn.Fees()
	if err != nil {
		return nil, err
	}
	var postings []Posting
	for _, f := range fees {
		if f.Name == "commission" && !f.Amount.IsZero() {
			postings = append(postings, Posting{Account: b.cfg.Commission, Units: b.cash(f.Amount)})
		}
	}
	for _, f := range fees {
		switch {
		case f.Name == "commission", f.Name == "optRegFee", f.Name == "secFee":
		case f.Amount.IsZero():
		default:
			postings = append(postings, Posting{Account: b.cfg.Fees, Units: b.cash(f.Amount)})
		}
	}
	return postings, nil
}

// optionName returns the ledger ticker of the transaction option, from its
// broker symbol or from its cusip when the symbol is missing.
func (b *builder) optionName(txn RawTransaction, year int) (string, error) {
	var (
		opt options.Option
		err error
	)
	if symbol := txn.Str(pathSymbol); symbol != "" {
		opt, err = options.ParseSymbol(symbol)
	} else {
		opt, err = options.ParseCompactCode(txn.Str(pathCusip), year)
	}
	if err != nil {
		return "", fmt.Errorf("transaction %s: %w", txn.ID(), err)
	}
	return options.MakeTicker(opt), nil
}

// trade handles buys, sells, short sales, assignments and exercises.
func (b *builder) trade(txn RawTransaction, d deps) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	entries := []Entry{t}

	// Multi-leg fills of an order share the order id.
	if orderID := txn.Str("orderId"); orderID != "" {
		if m := orderIDRe.FindStringSubmatch(orderID); m != nil {
			orderID = m[1]
		}
		t.AddLink("order-" + orderID)
	}

	isSale := txn.Str(pathInstruction) == "SELL"
	amount, err := txn.Decimal(pathItemAmount)
	if err != nil {
		return nil, err
	}
	amount = quantizeUnits(amount)

	var (
		isClosing bool
		symbol    string
		account   string
	)
	switch assetType := txn.Str(pathAssetType); assetType {
	case assetEquity, "":
		isClosing = closingEquityTrades[txn.Key().Description]
		symbol = b.symbol(txn)
		if symbol == "" {
			return nil, txn.integrity("trade without instrument symbol")
		}
		account = b.cfg.PositionAccount(symbol)

	case assetOption:
		isClosing = txn.Str(pathPositionEffect) == "CLOSING"
		symbol, err = b.optionName(txn, t.Date.Year())
		if err != nil {
			return nil, err
		}
		account = b.cfg.Options
		amount = amount.Mul(contractSize)

		if !isClosing {
			if _, declared := d.commodities[symbol]; !declared {
				c := NewCommodity(t.Date, symbol, txn.Str(pathInstDesc))
				d.commodities[symbol] = c
				entries = []Entry{c, t}
			}
		}

	default:
		return nil, txn.integrity("invalid asset type %q", assetType)
	}

	units := A(amount, symbol)
	if isSale {
		*units = units.Neg()
	}
	var price *decimal.Decimal
	if txn.Has(pathItemPrice) {
		p, err := txn.Decimal(pathItemPrice)
		if err != nil {
			return nil, err
		}
		p = quantizePrice(p)
		price = &p
	}

	if isClosing {
		// The price is the sale price, the cost is booked against held lots.
		p := Posting{Account: account, Units: units, Cost: UnresolvedCost()}
		if price != nil {
			p.Price = A(*price, b.cfg.CashCurrency)
		}
		t.Add(p)
	} else {
		cost := &CostSpec{Number: price, Currency: b.cfg.CashCurrency, Date: t.Date}
		t.Add(Posting{Account: account, Units: units, Cost: cost})
	}

	fees, err := b.feePostings(txn)
	if err != nil {
		return nil, err
	}
	t.Add(fees...)

	net, err := b.netAmount(txn)
	if err != nil {
		return nil, err
	}
	t.Add(Posting{Account: b.cfg.Cash, Units: net})

	if isClosing {
		t.Add(Posting{Account: b.cfg.PnL})
	}
	return entries, nil
}

// stockSplit removes the old quantity and adds the post-split quantity, both
// at a cost resolved by booking.
func (b *builder) stockSplit(txn RawTransaction, _ deps) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	if at := txn.Str(pathAssetType); at != assetEquity {
		return nil, txn.integrity("stock split on asset type %q", at)
	}
	symbol := b.symbol(txn)
	amount, err := txn.Decimal(pathItemAmount)
	if err != nil {
		return nil, err
	}
	amount = quantizeUnits(amount)
	account := b.cfg.PositionAccount(symbol)
	t.Add(
		Posting{Account: account, Units: A(amount.Neg(), symbol), Cost: UnresolvedCost()},
		Posting{Account: account, Units: A(amount.Mul(splitRatio), symbol), Cost: UnresolvedCost()},
	)
	return []Entry{t}, nil
}

// removalSign returns the sign of an option removal. The payload does not
// tell the side of the position: the removal goes against the current
// position, and short when nothing is held.
func removalSign(balances Balances, account, symbol string) decimal.Decimal {
	if units, ok := balances.Units(account, symbol); ok && units.IsNegative() {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// optionRemoval handles expirations, assignments and exercises of options.
func (b *builder) optionRemoval(txn RawTransaction, d deps) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	if at := txn.Str(pathAssetType); at != assetOption {
		return nil, txn.integrity("option removal on asset type %q", at)
	}
	symbol, err := b.optionName(txn, t.Date.Year())
	if err != nil {
		return nil, err
	}
	account := b.cfg.Options
	amount, err := txn.Decimal(pathItemAmount)
	if err != nil {
		return nil, err
	}
	amount = quantizeUnits(amount).Mul(contractSize)
	amount = amount.Mul(removalSign(d.balances, account, symbol))

	t.Add(
		Posting{Account: account, Units: A(amount, symbol), Cost: UnresolvedCost(), Price: A(decimal.Zero, b.cfg.CashCurrency)},
		Posting{Account: b.cfg.PnL},
	)
	return []Entry{t}, nil
}

// internalTransfer moves nothing, a nonzero amount breaks that assumption.
func (b *builder) internalTransfer(txn RawTransaction, _ deps) ([]Entry, error) {
	n, err := txn.NetAmount()
	if err != nil {
		return nil, err
	}
	if !n.IsZero() {
		return nil, txn.integrity("internal transfer with nonzero net amount %s", n)
	}
	return nil, nil
}

// nameChange records the event with no postings.
func (b *builder) nameChange(txn RawTransaction, _ deps) ([]Entry, error) {
	t, err := b.newTransaction(txn)
	if err != nil {
		return nil, err
	}
	return []Entry{t}, nil
}

func (b *builder) note(txn RawTransaction, comment string) ([]Entry, error) {
	on, err := txn.Date()
	if err != nil {
		return nil, err
	}
	return []Entry{NewNote(on, b.cfg.Cash, comment)}, nil
}

func (b *builder) intraAccountTransfer(txn RawTransaction, _ deps) ([]Entry, error) {
	comment := fmt.Sprintf("Intra-Account Transfer (subAccount: %s; link: ^%s; netAmount: %s)",
		txn.Str("subAccount"), txn.Link(), txn.Str("netAmount"))
	return b.note(txn, comment)
}

func (b *builder) miscellaneousJournal(txn RawTransaction, _ deps) ([]Entry, error) {
	comment := fmt.Sprintf("Miscellaneous Journal Entry (transactionId: ^%s; netAmount: %s)",
		txn.Link(), txn.Str("netAmount"))
	return b.note(txn, comment)
}
