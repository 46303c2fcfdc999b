package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/tdledger"
	"github.com/etnz/tdledger/renderer"
	"github.com/google/subcommands"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	input  string
	method string
	group  bool
	raw    bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display a conversion report" }
func (*reportCmd) Usage() string {
	return `tdl report -i <transactions.json> [-method fifo|lifo] [-group-by-underlying]

  Runs a lenient conversion and displays what was handled, what was not, and
  the booking errors. Nothing is written.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "", "JSON file of broker transactions.")
	f.StringVar(&c.method, "method", "fifo", "Booking method: fifo or lifo.")
	f.BoolVar(&c.group, "group-by-underlying", false, "Also report the groups by underlying.")
	f.BoolVar(&c.raw, "raw", false, "Print the markdown without terminal rendering.")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input == "" {
		fmt.Fprintln(stderr, "Error: -i is required")
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

	res, err := tdledger.Convert(txns, tdledger.Options{
		Config:  cfg,
		Booking: true,
		Method:  method,
		Group:   c.group,
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error converting %q: %v\n", c.input, err)
		return subcommands.ExitFailure
	}

	md := renderer.RenderReport(renderer.NewReport(c.input, len(txns), res), renderer.ReportRenderOptions{SkipGroups: !c.group})
	if c.raw {
		fmt.Fprint(stdout, md)
	} else {
		printMarkdown(stdout, md)
	}
	return subcommands.ExitSuccess
}
