// Package options converts between the option symbologies found in broker
// payloads and a structured Option.
//
// Three forms are supported:
//   - the broker symbol, like "SPY_081718C290";
//   - the 16 characters CUSIP-like compact code, like "0SPY..HH80290000";
//   - the ledger ticker, like "SPY180817C290", used as an instrument name in
//     postings.
package options

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/etnz/tdledger/date"
	"github.com/shopspring/decimal"
)

// Side is the option side, 'C' for a call and 'P' for a put.
type Side byte

const (
	Call Side = 'C'
	Put  Side = 'P'
)

func (s Side) String() string { return string(rune(s)) }

// Option identifies an option contract.
type Option struct {
	Symbol     string // underlying
	Expiration date.Date
	Strike     decimal.Decimal
	Side       Side
}

// Equal reports whether o and p identify the same contract.
func (o Option) Equal(p Option) bool {
	return o.Symbol == p.Symbol && o.Expiration == p.Expiration && o.Strike.Equal(p.Strike) && o.Side == p.Side
}

func (o Option) String() string { return MakeSymbol(o) }

// FormatError reports a malformed option code.
type FormatError struct {
	Code   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid option code %q: %s", e.Code, e.Reason)
}

func formatErr(code, format string, args ...any) error {
	return &FormatError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

var (
	digits      = regexp.MustCompile(`^\d+$`)
	strikeChars = regexp.MustCompile(`^[0-9.]+$`)
	tickerRe    = regexp.MustCompile(`^([A-Z][A-Z0-9./]*?)(\d{6})([CP])([0-9.]+)$`)
)

// parseSide validates a side character.
func parseSide(code string, c byte) (Side, error) {
	switch Side(c) {
	case Call, Put:
		return Side(c), nil
	}
	return 0, formatErr(code, "side %q is neither 'C' nor 'P'", c)
}

// parseStrike reads a plain decimal strike.
func parseStrike(code, s string) (decimal.Decimal, error) {
	if !strikeChars.MatchString(s) {
		return decimal.Zero, formatErr(code, "strike %q is not numeric", s)
	}
	strike, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, formatErr(code, "strike %q: %v", s, err)
	}
	return strike, nil
}

// parseDigitsDate reads a 6 digits date with the given field order.
func parseDigitsDate(code, s, layout string) (date.Date, error) {
	if len(s) != 6 || !digits.MatchString(s) {
		return date.Date{}, formatErr(code, "date segment %q is not 6 digits", s)
	}
	on, err := time.Parse(layout, s)
	if err != nil {
		return date.Date{}, formatErr(code, "date segment %q: %v", s, err)
	}
	return date.New(on.Date()), nil
}

// ParseSymbol parses a broker option symbol like "SPY_081718C290" or "HDV_021618C88".
func ParseSymbol(code string) (Option, error) {
	symbol, rest, found := strings.Cut(code, "_")
	if !found {
		return Option{}, formatErr(code, "missing '_' separator")
	}
	if len(rest) < 8 {
		return Option{}, formatErr(code, "too short")
	}
	expiration, err := parseDigitsDate(code, rest[0:6], "010206")
	if err != nil {
		return Option{}, err
	}
	side, err := parseSide(code, rest[6])
	if err != nil {
		return Option{}, err
	}
	strike, err := parseStrike(code, rest[7:])
	if err != nil {
		return Option{}, err
	}
	return Option{Symbol: symbol, Expiration: expiration, Strike: strike, Side: side}, nil
}

// MakeSymbol builds the broker symbol of an option.
func MakeSymbol(o Option) string {
	return fmt.Sprintf("%s_%s%c%s", o.Symbol, o.Expiration.Format("010206"), o.Side, o.Strike.String())
}

// ParseTicker parses a ledger ticker like "SPY180817C290".
func ParseTicker(code string) (Option, error) {
	m := tickerRe.FindStringSubmatch(code)
	if m == nil {
		return Option{}, formatErr(code, "not an option ticker")
	}
	expiration, err := parseDigitsDate(code, m[2], "060102")
	if err != nil {
		return Option{}, err
	}
	strike, err := parseStrike(code, m[4])
	if err != nil {
		return Option{}, err
	}
	return Option{Symbol: m[1], Expiration: expiration, Strike: strike, Side: Side(m[3][0])}, nil
}

// MakeTicker builds the ledger ticker of an option.
func MakeTicker(o Option) string {
	return fmt.Sprintf("%s%s%c%s", o.Symbol, o.Expiration.Format("060102"), o.Side, o.Strike.String())
}

// IsOptionTicker reports whether a ledger instrument name is an option ticker.
func IsOptionTicker(s string) bool {
	_, err := ParseTicker(s)
	return err == nil
}

// Underlying returns the underlying symbol of a ledger instrument name. For
// anything that is not an option ticker, the name itself is returned.
func Underlying(s string) (symbol string, isOption bool) {
	o, err := ParseTicker(s)
	if err != nil {
		return s, false
	}
	return o.Symbol, true
}
