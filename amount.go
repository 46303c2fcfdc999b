package tdledger

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a signed quantity of a currency or of an instrument.
type Amount struct {
	Number   decimal.Decimal `json:"number"`
	Currency string          `json:"currency"`
}

// A returns a new *Amount, this is the short form used by posting builders.
func A(number decimal.Decimal, currency string) *Amount {
	return &Amount{Number: number, Currency: currency}
}

// Neg returns the opposite amount.
func (a Amount) Neg() Amount { return Amount{Number: a.Number.Neg(), Currency: a.Currency} }

// Equal reports whether a and b have the same currency and value.
func (a Amount) Equal(b Amount) bool { return a.Currency == b.Currency && a.Number.Equal(b.Number) }

func (a Amount) String() string { return fmt.Sprintf("%s %s", a.Number, a.Currency) }

// Quantization levels of the emitted numbers.
const (
	unitsPlaces = 0
	pricePlaces = 4
)

// cashPlaces returns the number of decimal places of the minor unit of a
// currency, 2 for codes unknown to go-money.
func cashPlaces(currency string) int32 {
	if c := money.GetCurrency(currency); c != nil {
		return int32(c.Fraction)
	}
	return 2
}

// quantizeCash rounds a cash amount to the minor unit of its currency.
func quantizeCash(d decimal.Decimal, currency string) decimal.Decimal {
	return d.RoundBank(cashPlaces(currency))
}

// quantizeUnits rounds an instrument quantity to whole units.
func quantizeUnits(d decimal.Decimal) decimal.Decimal { return d.RoundBank(unitsPlaces) }

// quantizePrice rounds a per-unit price or cost.
func quantizePrice(d decimal.Decimal) decimal.Decimal { return d.RoundBank(pricePlaces) }
