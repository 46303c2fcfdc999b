package tdledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/tdledger/date"
	"github.com/etnz/tdledger/options"
	"github.com/shopspring/decimal"
)

// Paths in an account document.
const (
	pathMoneyMarketFund = "securitiesAccount.currentBalances.moneyMarketFund"
	pathShortBalance    = "securitiesAccount.currentBalances.shortBalance"
	pathPositions       = "securitiesAccount.positions"
)

func docDecimal(doc any, path string) (decimal.Decimal, error) {
	v, ok := lookup(doc, path)
	if !ok {
		return decimal.Zero, fmt.Errorf("account document: missing field %q", path)
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account document: field %q: %w", path, err)
	}
	return d, nil
}

// NewBalance returns the assertion of the cash held on the account: the money
// market fund plus the short balance of an account document.
func NewBalance(doc any, cfg Config, on date.Date) (*Balance, error) {
	mm, err := docDecimal(doc, pathMoneyMarketFund)
	if err != nil {
		return nil, err
	}
	short, err := docDecimal(doc, pathShortBalance)
	if err != nil {
		return nil, err
	}
	amount := Amount{Number: quantizeCash(mm.Add(short), cfg.CashCurrency), Currency: cfg.CashCurrency}
	return NewBalanceEntry(on, cfg.Cash, amount), nil
}

// Position is a currently held instrument, as reported by the broker.
type Position struct {
	Symbol        string
	AssetType     string
	LongQuantity  decimal.Decimal
	ShortQuantity decimal.Decimal
	MarketValue   decimal.Decimal
}

// Positions reads the positions of an account document. The document is either
// an account or directly the list of its positions.
func Positions(doc any) ([]Position, error) {
	list, ok := doc.([]any)
	if !ok {
		v, found := lookup(doc, pathPositions)
		if !found {
			return nil, nil
		}
		if list, ok = v.([]any); !ok {
			return nil, fmt.Errorf("account document: %q is not a list", pathPositions)
		}
	}
	positions := make([]Position, 0, len(list))
	for i, item := range list {
		var (
			p   Position
			err error
		)
		p.Symbol, _ = lookupString(item, "instrument.symbol")
		p.AssetType, _ = lookupString(item, "instrument.assetType")
		if p.LongQuantity, err = optionalDecimal(item, "longQuantity"); err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		if p.ShortQuantity, err = optionalDecimal(item, "shortQuantity"); err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		if p.MarketValue, err = optionalDecimal(item, "marketValue"); err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func lookupString(doc any, path string) (string, bool) {
	v, ok := lookup(doc, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func optionalDecimal(doc any, path string) (decimal.Decimal, error) {
	v, ok := lookup(doc, path)
	if !ok {
		return decimal.Zero, nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ExpiredOptionPrices returns a price on each option still held in the
// inventories: its current market price per unit when the broker still
// reports it, unrounded, zero otherwise, as it expired. Prices are dated on.
func ExpiredOptionPrices(positions []Position, invs Inventories, on date.Date, cfg Config) []Entry {
	held := make(map[string]Position)
	for _, p := range positions {
		if p.AssetType != assetOption {
			continue
		}
		o, err := options.ParseSymbol(p.Symbol)
		if err != nil {
			continue
		}
		held[options.MakeTicker(o)] = p
	}

	var (
		prices []Entry
		done   = make(map[string]bool)
	)
	for _, account := range invs.Accounts() {
		for _, currency := range invs[account].Currencies() {
			if done[currency] || !options.IsOptionTicker(currency) {
				continue
			}
			done[currency] = true
			price := decimal.Zero
			if p, ok := held[currency]; ok {
				quantity := p.LongQuantity.Sub(p.ShortQuantity)
				if !quantity.IsZero() {
					price = p.MarketValue.Div(quantity.Mul(contractSize))
				}
			}
			prices = append(prices, NewPrice(on, currency, Amount{Number: price, Currency: cfg.CashCurrency}))
		}
	}
	slices.SortStableFunc(prices, func(a, b Entry) int {
		return strings.Compare(a.(*Price).Currency, b.(*Price).Currency)
	})
	return prices
}
