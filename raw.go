package tdledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tdledger/date"
	"github.com/shopspring/decimal"
)

// RawTransaction is a broker transaction record, a loosely-typed JSON object.
// It is never mutated.
type RawTransaction struct {
	tree map[string]any
}

// NewRawTransaction wraps a decoded JSON object. Numbers should be decoded as
// json.Number to keep their exact decimal value.
func NewRawTransaction(tree map[string]any) RawTransaction {
	return RawTransaction{tree: tree}
}

// ParseRawTransaction decodes a single JSON object.
func ParseRawTransaction(data []byte) (RawTransaction, error) {
	var tree map[string]any
	if err := decodeJSON(bytes.NewReader(data), &tree); err != nil {
		return RawTransaction{}, err
	}
	return NewRawTransaction(tree), nil
}

// DecodeTransactions reads a JSON array of broker transactions.
func DecodeTransactions(r io.Reader) ([]RawTransaction, error) {
	var trees []map[string]any
	if err := decodeJSON(r, &trees); err != nil {
		return nil, fmt.Errorf("cannot decode transactions: %w", err)
	}
	txns := make([]RawTransaction, 0, len(trees))
	for _, t := range trees {
		txns = append(txns, NewRawTransaction(t))
	}
	return txns, nil
}

// DecodeDocument reads any JSON document, keeping numbers as json.Number.
func DecodeDocument(r io.Reader) (any, error) {
	var doc any
	if err := decodeJSON(r, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

// MarshalJSON returns the original JSON object.
func (t RawTransaction) MarshalJSON() ([]byte, error) { return json.Marshal(t.tree) }

// lookup reads a value by path, like "transactionItem.instrument.symbol".
func lookup(tree any, path string) (any, bool) {
	v, err := jsonpath.Get("$."+path, tree)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func (t RawTransaction) get(path string) (any, bool) { return lookup(t.tree, path) }

// Has reports whether a field is present.
func (t RawTransaction) Has(path string) bool {
	_, ok := t.get(path)
	return ok
}

// Str returns a string field, or "" if absent. Numbers are formatted.
func (t RawTransaction) Str(path string) string {
	v, ok := t.get(path)
	if !ok {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return fmt.Sprint(v)
}

// Decimal returns a numeric field.
func (t RawTransaction) Decimal(path string) (decimal.Decimal, error) {
	v, ok := t.get(path)
	if !ok {
		return decimal.Zero, t.integrity("missing field %q", path)
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, t.integrity("field %q: %v", path, err)
	}
	return d, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(v)
	}
	return decimal.Zero, fmt.Errorf("%v is not a number", v)
}

func (t RawTransaction) integrity(format string, args ...any) error {
	return &DataIntegrityError{ID: t.ID(), Reason: fmt.Sprintf(format, args...)}
}

// Key returns the dispatch key.
func (t RawTransaction) Key() Key {
	return Key{Type: TxnType(t.Str("type")), Description: Description(t.Str("description"))}
}

// ID returns the transaction id.
func (t RawTransaction) ID() string { return t.Str("transactionId") }

// Link returns the link identifying the transaction in the ledger.
func (t RawTransaction) Link() string { return "td-" + t.ID() }

// Time returns the transaction timestamp.
func (t RawTransaction) Time() (time.Time, error) {
	ts, err := date.ParseTime(t.Str("transactionDate"))
	if err != nil {
		return time.Time{}, t.integrity("transactionDate: %v", err)
	}
	return ts, nil
}

// Date returns the transaction day.
func (t RawTransaction) Date() (date.Date, error) {
	ts, err := t.Time()
	if err != nil {
		return date.Date{}, err
	}
	return date.New(ts.Date()), nil
}

// NetAmount returns the signed cash amount of the transaction.
func (t RawTransaction) NetAmount() (decimal.Decimal, error) { return t.Decimal("netAmount") }

// Fees returns the fees by name, in name order. Absent fees are empty.
func (t RawTransaction) Fees() ([]Fee, error) {
	v, ok := t.get("fees")
	if !ok {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, t.integrity("fees is not an object")
	}
	fees := make([]Fee, 0, len(m))
	for name, jv := range m {
		d, err := toDecimal(jv)
		if err != nil {
			return nil, t.integrity("fee %q: %v", name, err)
		}
		fees = append(fees, Fee{Name: name, Amount: d})
	}
	slices.SortFunc(fees, func(a, b Fee) int { return strings.Compare(a.Name, b.Name) })
	return fees, nil
}

// Fee is a named fee of a transaction.
type Fee struct {
	Name   string
	Amount decimal.Decimal
}

// Paths of the transaction item fields.
const (
	pathItemAmount     = "transactionItem.amount"
	pathItemPrice      = "transactionItem.price"
	pathInstruction    = "transactionItem.instruction"
	pathPositionEffect = "transactionItem.positionEffect"
	pathAssetType      = "transactionItem.instrument.assetType"
	pathSymbol         = "transactionItem.instrument.symbol"
	pathCusip          = "transactionItem.instrument.cusip"
	pathInstDesc       = "transactionItem.instrument.description"
)
