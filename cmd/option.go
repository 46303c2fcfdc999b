package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/tdledger/options"
	"github.com/google/subcommands"
)

type optionCmd struct {
	year int
}

func (*optionCmd) Name() string     { return "option" }
func (*optionCmd) Synopsis() string { return "decode option codes" }
func (*optionCmd) Usage() string {
	return `tdl option [-year <year>] <code>...

  Decodes option codes given as a broker symbol (SPY_081718C290), a compact
  code (0SPY..HH80290000) or a ledger ticker (SPY180817C290), and prints the
  three forms.

  Compact codes only carry the last digit of the expiration year, -year is
  the reference year used to resolve it (the current year by default).
`
}

func (c *optionCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Reference year for compact codes.")
}

func (c *optionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(stderr, "Error: at least one option code is required")
		return subcommands.ExitUsageError
	}
	status := subcommands.ExitSuccess
	for _, code := range f.Args() {
		o, err := c.decode(code)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			status = subcommands.ExitFailure
			continue
		}
		compact, err := options.MakeCompactCode(o)
		if err != nil {
			compact = "-"
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", options.MakeSymbol(o), compact, options.MakeTicker(o))
	}
	return status
}

// decode tries every symbology in turn.
func (c *optionCmd) decode(code string) (options.Option, error) {
	if o, err := options.ParseSymbol(code); err == nil {
		return o, nil
	}
	if o, err := options.ParseTicker(code); err == nil {
		return o, nil
	}
	o, err := options.ParseCompactCode(code, c.year)
	if err != nil {
		return options.Option{}, fmt.Errorf("%q is not an option code", code)
	}
	return o, nil
}
