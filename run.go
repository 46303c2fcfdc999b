package tdledger

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/etnz/tdledger/date"
)

// Options configures a conversion run.
type Options struct {
	Config Config
	// Strict fails on transactions without handler instead of skipping them.
	Strict bool
	// Booking resolves the costs of reductions and pairs trades.
	Booking bool
	Method  BookingMethod
	// OnlyID restricts the run to a single transaction id.
	OnlyID string
	// Account is an account document, used to assert the final cash balance.
	Account any
	// Positions are the broker positions used to price the options still
	// held after booking. Nil skips the prices.
	Positions []Position
	// Seen are the transactions already in the ledger, they are pruned.
	Seen Seen
	// Group partitions the output by underlying.
	Group bool
	// Today dates the final balance and, on the next day, the option prices.
	// Zero means date.Today().
	Today  date.Date
	Logger *slog.Logger
	// NewID generates trade pairing ids, nil means NewTradeID.
	NewID func() string
}

// Result is the outcome of a conversion run.
type Result struct {
	Entries       []Entry // sorted, pruned entries
	Groups        []Group // set when grouping was requested
	Inventories   Inventories
	BookingErrors []*BookingError

	Handled   int   // transactions converted into entries
	Ignored   int   // handled transactions producing no entry
	Unhandled []Key // keys of skipped transactions, in order, without duplicates
	Skipped   int   // number of skipped transactions
}

// Convert turns raw broker transactions into ledger entries.
//
// A DataIntegrityError, or in strict mode an UnhandledTransactionError, stops
// the run. Booking errors are collected in the result.
func Convert(txns []RawTransaction, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	today := opts.Today
	if today.IsZero() {
		today = date.Today()
	}

	txns = SortOldestFirst(txns)
	cusips := CusipMap(txns)
	if opts.OnlyID != "" {
		txns = slices.DeleteFunc(txns, func(t RawTransaction) bool { return t.ID() != opts.OnlyID })
		if len(txns) == 0 {
			return nil, fmt.Errorf("no transaction with id %q", opts.OnlyID)
		}
	}

	res := &Result{}
	st := NewState()
	d := NewDispatcher(opts.Config, opts.Strict, logger)
	d.UseCusips(cusips)
	var entries []Entry
	for _, txn := range txns {
		key := txn.Key()
		produced, err := d.Dispatch(txn, st)
		if err != nil {
			return nil, err
		}
		switch {
		case !Handled(key):
			res.Skipped++
			if !slices.Contains(res.Unhandled, key) {
				res.Unhandled = append(res.Unhandled, key)
			}
		case len(produced) == 0:
			res.Ignored++
		default:
			res.Handled++
		}
		entries = append(entries, produced...)
	}

	if opts.Account != nil {
		b, err := NewBalance(opts.Account, opts.Config, today)
		if err != nil {
			return nil, err
		}
		entries = append(entries, b)
	}

	if opts.Booking {
		entries, res.BookingErrors = Book(entries, opts.Method)
		for _, e := range res.BookingErrors {
			logger.Info("booking error", "error", e)
		}
		entries = StripReductionDates(entries)
		entries, res.Inventories = MatchTrades(entries, opts.NewID)
		if opts.Positions != nil {
			entries = append(entries, ExpiredOptionPrices(opts.Positions, res.Inventories, today.Add(1), opts.Config)...)
		}
	}

	entries = PruneImported(entries, opts.Seen)

	if opts.Group {
		res.Groups = GroupByUnderlying(entries, logger)
	}
	res.Entries = SortEntries(entries)
	logger.Debug("conversion done", "transactions", len(txns), "entries", len(res.Entries), "booking_errors", len(res.BookingErrors))
	return res, nil
}
