package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tdledger"
	"github.com/etnz/tdledger/history"
	"github.com/etnz/tdledger/renderer"
	"github.com/google/subcommands"
)

const (
	formatBeancount = "beancount"
	formatJSONL     = "jsonl"
)

// convertCmd holds the flags for the 'convert' subcommand.
type convertCmd struct {
	input        string
	account      string
	positions    string
	ledger       string
	history      string
	ignoreErrors bool
	noBooking    bool
	group        bool
	onlyID       string
	method       string
	format       string
	report       bool
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "convert broker transactions into ledger entries" }
func (*convertCmd) Usage() string {
	return `tdl convert -i <transactions.json> [-account <account.json>] [-positions <positions.json>]
            [-ledger <existing.jsonl>] [-history <imports.db>] [-format beancount|jsonl]

  Converts a JSON array of broker transactions into ledger entries, written
  to the standard output.

  Reductions are booked against the lots held (-method fifo or lifo) unless
  -no-booking is set. Transactions already present in an existing JSONL
  ledger or in the import history are left out.

Usage Examples:
# Convert and assert the final cash balance.
$ tdl convert -i transactions.json -account account.json > new.beancount

# Convert only what is not already in the ledger, and remember it.
$ tdl convert -i transactions.json -history imports.db -format jsonl >> ledger.jsonl

`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "", "JSON file of broker transactions.")
	f.StringVar(&c.account, "account", "", "JSON account document, used for the final cash balance.")
	f.StringVar(&c.positions, "positions", "", "JSON account positions, used to price the options still held.")
	f.StringVar(&c.ledger, "ledger", "", "Existing JSONL ledger. Entries it already contains are pruned.")
	f.StringVar(&c.history, "history", "", "Import history database. Entries it already contains are pruned, new ones are recorded.")
	f.BoolVar(&c.ignoreErrors, "ignore-errors", false, "Skip transactions without handler instead of failing.")
	f.BoolVar(&c.noBooking, "no-booking", false, "Leave reduction costs unresolved.")
	f.BoolVar(&c.group, "group-by-underlying", false, "Group the output by underlying instrument.")
	f.StringVar(&c.onlyID, "j", "", "Convert only the transaction with this id.")
	f.StringVar(&c.method, "method", "fifo", "Booking method: fifo or lifo.")
	f.StringVar(&c.format, "format", formatBeancount, "Output format: beancount or jsonl.")
	f.BoolVar(&c.report, "report", false, "Print a run report on the standard error.")
}

func (c *convertCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input == "" {
		fmt.Fprintln(stderr, "Error: -i is required")
		return subcommands.ExitUsageError
	}
	if c.format != formatBeancount && c.format != formatJSONL {
		fmt.Fprintf(stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	method, err := tdledger.ParseBookingMethod(c.method)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	txns, err := readTransactions(c.input)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading transactions %q: %v\n", c.input, err)
		return subcommands.ExitFailure
	}

	opts := tdledger.Options{
		Config:  cfg,
		Strict:  !c.ignoreErrors,
		Booking: !c.noBooking,
		Method:  method,
		OnlyID:  c.onlyID,
		Group:   c.group,
		Logger:  logger,
	}
	if err := c.loadAccount(&opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.loadSeen(&opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var store *history.Store
	if c.history != "" {
		store, err = history.Open(ctx, c.history, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer store.Close()
		seen, err := store.Seen(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		opts.Seen.Merge(seen)
	}

	res, err := tdledger.Convert(txns, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error converting %q: %v\n", c.input, err)
		return subcommands.ExitFailure
	}

	if err := c.write(res, cfg); err != nil {
		fmt.Fprintf(stderr, "Error writing entries: %v\n", err)
		return subcommands.ExitFailure
	}

	if store != nil {
		if _, err := store.Record(ctx, res.Entries); err != nil {
			fmt.Fprintf(stderr, "Error recording history: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	if c.report {
		md := renderer.RenderReport(renderer.NewReport(c.input, len(txns), res), renderer.ReportRenderOptions{SkipGroups: !c.group})
		printMarkdown(stderr, md)
	}

	if len(res.BookingErrors) > 0 {
		errs := make([]error, len(res.BookingErrors))
		for i, e := range res.BookingErrors {
			errs[i] = e
		}
		fmt.Fprintf(stderr, "Booking errors:\n%v\n", errors.Join(errs...))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// loadAccount reads the account and positions documents.
func (c *convertCmd) loadAccount(opts *tdledger.Options) error {
	if c.account != "" {
		doc, err := readDocument(c.account)
		if err != nil {
			return err
		}
		opts.Account = doc
	}
	if c.positions != "" {
		doc, err := readDocument(c.positions)
		if err != nil {
			return err
		}
		positions, err := tdledger.Positions(doc)
		if err != nil {
			return fmt.Errorf("invalid positions %q: %w", c.positions, err)
		}
		// An empty list still asks for the option prices.
		if positions == nil {
			positions = []tdledger.Position{}
		}
		opts.Positions = positions
	}
	return nil
}

// loadSeen collects the imports of the existing ledger.
func (c *convertCmd) loadSeen(opts *tdledger.Options) error {
	if c.ledger == "" {
		return nil
	}
	f, err := os.Open(c.ledger)
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := tdledger.DecodeEntries(f)
	if err != nil {
		return fmt.Errorf("cannot read ledger %q: %w", c.ledger, err)
	}
	opts.Seen.Merge(tdledger.CollectSeen(entries))
	return nil
}

func (c *convertCmd) write(res *tdledger.Result, cfg tdledger.Config) error {
	if c.format == formatJSONL {
		return tdledger.EncodeEntries(stdout, res.Entries)
	}
	p := tdledger.Printer{Currency: cfg.CashCurrency}
	if c.group {
		return p.PrintGroups(stdout, res.Groups)
	}
	return p.Print(stdout, res.Entries)
}
