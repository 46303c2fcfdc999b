package options

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/tdledger/date"
	"github.com/shopspring/decimal"
)

// compactLen is the fixed size of a compact code.
const compactLen = 16

// dayAlphabet encodes the day of month by its index. Index 0 is reserved.
const dayAlphabet = "_123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
	tenK     = decimal.NewFromInt(10000)
	hundredK = decimal.NewFromInt(100000)
)

// monthSide decodes the month-and-side letter: 'A'..'L' are calls from
// January to December, 'M'..'X' are puts.
func monthSide(c byte) (Side, time.Month, bool) {
	switch {
	case c >= 'A' && c <= 'L':
		return Call, time.Month(c-'A') + 1, true
	case c >= 'M' && c <= 'X':
		return Put, time.Month(c-'M') + 1, true
	}
	return 0, 0, false
}

// monthSideLetter is the inverse of monthSide.
func monthSideLetter(s Side, m time.Month) (byte, bool) {
	if m < time.January || m > time.December {
		return 0, false
	}
	switch s {
	case Call:
		return 'A' + byte(m-1), true
	case Put:
		return 'M' + byte(m-1), true
	}
	return 0, false
}

// decadeYear resolves a single year digit against a reference year. The
// digit belongs to the reference decade unless it is more than 5 years
// behind, in which case it belongs to the next decade.
func decadeYear(digit, reference int) int {
	base := reference / 10 * 10
	if digit-reference%10 < -5 {
		base += 10
	}
	return base + digit
}

// ParseCompactCode parses a 16 characters compact code like "0SPY..HH80290000".
//
// Only the last digit of the expiration year is encoded, referenceYear (the
// year of the transaction, or the current year if zero) is used to resolve the
// decade.
func ParseCompactCode(code string, referenceYear int) (Option, error) {
	if len(code) != compactLen {
		return Option{}, formatErr(code, "length is %d, want %d", len(code), compactLen)
	}
	if code[0] != '0' {
		return Option{}, formatErr(code, "must start with '0'")
	}
	symbol := strings.Trim(code[1:6], ".")
	if symbol == "" {
		return Option{}, formatErr(code, "missing underlying symbol")
	}

	side, month, ok := monthSide(code[6])
	if !ok {
		return Option{}, formatErr(code, "invalid month/side letter %q", code[6])
	}
	day := strings.IndexByte(dayAlphabet, code[7])
	if day <= 0 {
		return Option{}, formatErr(code, "invalid day letter %q", code[7])
	}
	if code[8] < '0' || code[8] > '9' {
		return Option{}, formatErr(code, "invalid year digit %q", code[8])
	}
	if referenceYear == 0 {
		referenceYear = date.Today().Year()
	}
	year := decadeYear(int(code[8]-'0'), referenceYear)

	expiration := date.New(year, month, day)
	if expiration.Month() != month || expiration.Day() != day {
		return Option{}, formatErr(code, "invalid expiration %d-%02d-%02d", year, month, day)
	}

	strike, err := parseCompactStrike(code)
	if err != nil {
		return Option{}, err
	}
	return Option{Symbol: symbol, Expiration: expiration, Strike: strike, Side: side}, nil
}

// parseCompactStrike decodes bytes 9-15. Seven digits are the strike times
// 1000. A trailing letter is a multiple of 10000 added to the six preceding
// digits read as the strike times 100.
func parseCompactStrike(code string) (decimal.Decimal, error) {
	field := code[9:compactLen]
	last := field[len(field)-1]
	if last >= 'A' && last <= 'I' {
		n, err := strconv.ParseInt(field[:len(field)-1], 10, 64)
		if err != nil || !digits.MatchString(field[:len(field)-1]) {
			return decimal.Zero, formatErr(code, "strike %q is not numeric", field)
		}
		high := decimal.NewFromInt(int64(last-'A') + 1).Mul(tenK)
		return high.Add(decimal.NewFromInt(n).Div(hundred)), nil
	}
	if !digits.MatchString(field) {
		return decimal.Zero, formatErr(code, "strike %q is not numeric", field)
	}
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return decimal.Zero, formatErr(code, "strike %q: %v", field, err)
	}
	return decimal.NewFromInt(n).Div(thousand), nil
}

// MakeCompactCode builds the compact code of an option. Strikes must be lower
// than 100000 and the underlying at most 5 characters long.
func MakeCompactCode(o Option) (string, error) {
	name := MakeSymbol(o)
	if len(o.Symbol) == 0 || len(o.Symbol) > 5 {
		return "", formatErr(name, "underlying %q does not fit in 5 characters", o.Symbol)
	}
	letter, ok := monthSideLetter(o.Side, o.Expiration.Month())
	if !ok {
		return "", formatErr(name, "invalid side %q", o.Side)
	}
	if o.Strike.IsNegative() || o.Strike.GreaterThanOrEqual(hundredK) {
		return "", formatErr(name, "strike %s out of range", o.Strike)
	}

	var strike string
	if o.Strike.GreaterThanOrEqual(tenK) {
		high := o.Strike.Div(tenK).Floor()
		rest := o.Strike.Sub(high.Mul(tenK)).Mul(hundred)
		strike = fmt.Sprintf("%06d%c", rest.IntPart(), 'A'+byte(high.IntPart()-1))
	} else {
		strike = fmt.Sprintf("%07d", o.Strike.Mul(thousand).IntPart())
	}

	padded := o.Symbol + strings.Repeat(".", 5-len(o.Symbol))
	return fmt.Sprintf("0%s%c%c%d%s", padded, letter, dayAlphabet[o.Expiration.Day()], o.Expiration.Year()%10, strike), nil
}
