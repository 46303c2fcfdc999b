// Package cmd implements the tdl command line application.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/tdledger"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

const (
	EnvConfig   = "TDLEDGER_CONFIG"
	EnvLogLevel = "TDLEDGER_LOG_LEVEL"
)

// Commands are the subcommands registered by the main package.
var Commands = []subcommands.Command{
	&convertCmd{},
	&optionCmd{},
	&reportCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the JSON account configuration. Defaults to $"+EnvConfig+".")
var logLevel = flag.String("v", "", "Log level: debug, info, warn or error. Defaults to $"+EnvLogLevel+".")

// stdout and stderr are replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// LoadEnv loads a .env file from the working directory, if any.
func LoadEnv() {
	// A missing file is fine, the environment is used as is.
	_ = godotenv.Load()
}

// newLogger returns a text logger on stderr.
func newLogger() (*slog.Logger, error) {
	level := *logLevel
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	var l slog.Level // info
	if level != "" {
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: l})), nil
}

// loadConfig reads the account configuration, or returns the default one.
func loadConfig() (tdledger.Config, error) {
	path := *configFile
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		return tdledger.DefaultConfig(), nil
	}
	return tdledger.LoadConfig(path)
}

// readTransactions decodes the broker transactions stored in file.
func readTransactions(file string) ([]tdledger.RawTransaction, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tdledger.DecodeTransactions(f)
}

// readDocument decodes any JSON document stored in file.
func readDocument(file string) (any, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := tdledger.DecodeDocument(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %q: %w", file, err)
	}
	return doc, nil
}

// printMarkdown renders md for the terminal. The raw markdown is printed if
// rendering fails.
func printMarkdown(w io.Writer, md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			md = out
		}
	}
	fmt.Fprint(w, strings.TrimLeft(md, "\n"))
}
