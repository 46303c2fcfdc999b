package tdledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
)

// symbolVar is replaced by an instrument symbol in account templates.
const symbolVar = "{symbol}"

// ContractSize is the number of units per option contract. It is not part of
// the broker payload, adjusted contracts are not supported.
const ContractSize = 100

// Config holds the ledger accounts the handlers post to.
type Config struct {
	CashCurrency   string `json:"cash_currency"`
	Cash           string `json:"asset_cash"`
	Position       string `json:"asset_position"` // template with {symbol}
	Options        string `json:"option_position"`
	Fees           string `json:"fees"`
	Commission     string `json:"commission"`
	HardToBorrow   string `json:"htb_fees"`
	Interest       string `json:"interest"`
	Dividend       string `json:"dividend"`        // template with {symbol}
	DividendNonTax string `json:"dividend_nontax"` // template with {symbol}
	Adjustment     string `json:"adjustment"`
	PnL            string `json:"pnl"`
	Transfer       string `json:"transfer"`
	ThirdParty     string `json:"third_party"`
}

// DefaultConfig returns the default account layout.
func DefaultConfig() Config {
	return Config{
		CashCurrency:   "USD",
		Cash:           "Assets:US:Ameritrade:Main:Cash",
		Position:       "Assets:US:Ameritrade:Main:{symbol}",
		Options:        "Assets:US:Ameritrade:Main:Options",
		Fees:           "Expenses:Financial:Fees",
		Commission:     "Expenses:Financial:Commissions",
		HardToBorrow:   "Expenses:Financial:Fees:HardToBorrow",
		Interest:       "Income:US:Ameritrade:Main:Interest",
		Dividend:       "Income:US:Ameritrade:Main:{symbol}:Dividend",
		DividendNonTax: "Income:US:Ameritrade:Main:{symbol}:Dividend",
		Adjustment:     "Income:US:Ameritrade:Main:Misc",
		PnL:            "Income:US:Ameritrade:Main:PnL",
		Transfer:       "Assets:US:TD:Checking",
		ThirdParty:     "Assets:US:MSSB:Cash",
	}
}

// LoadConfig reads a JSON configuration file. Missing keys keep their default
// value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read config %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every account and the cash currency.
func (c Config) Validate() error {
	var errs []error
	if money.GetCurrency(c.CashCurrency) == nil {
		errs = append(errs, fmt.Errorf("unknown cash currency %q", c.CashCurrency))
	}
	accounts := []struct {
		name, value string
		template    bool
	}{
		{"asset_cash", c.Cash, false},
		{"asset_position", c.Position, true},
		{"option_position", c.Options, false},
		{"fees", c.Fees, false},
		{"commission", c.Commission, false},
		{"htb_fees", c.HardToBorrow, false},
		{"interest", c.Interest, false},
		{"dividend", c.Dividend, true},
		{"dividend_nontax", c.DividendNonTax, true},
		{"adjustment", c.Adjustment, false},
		{"pnl", c.PnL, false},
		{"transfer", c.Transfer, false},
		{"third_party", c.ThirdParty, false},
	}
	for _, a := range accounts {
		switch {
		case a.value == "":
			errs = append(errs, fmt.Errorf("account %s is empty", a.name))
		case strings.ContainsAny(a.value, " \t\""):
			errs = append(errs, fmt.Errorf("account %s %q contains spaces or quotes", a.name, a.value))
		case a.template && !strings.Contains(a.value, symbolVar):
			errs = append(errs, fmt.Errorf("account %s %q must contain %s", a.name, a.value, symbolVar))
		}
	}
	return errors.Join(errs...)
}

// PositionAccount returns the account holding a symbol.
func (c Config) PositionAccount(symbol string) string {
	return strings.ReplaceAll(c.Position, symbolVar, symbol)
}

// DividendAccount returns the income account of a dividend.
func (c Config) DividendAccount(d Description, symbol string) string {
	tmpl := c.Dividend
	if d == DescNonTaxableDividends {
		tmpl = c.DividendNonTax
	}
	return strings.ReplaceAll(tmpl, symbolVar, symbol)
}
