package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

// ChartWriter is the slice of the accounts service the seeder needs.
type ChartWriter interface {
	Create(ctx context.Context, code, name string, accountType accounts.AccountType, opening decimal.Decimal) (accounts.Account, error)
}

// SeedCLI provisions the standard petrol-station chart of accounts.
type SeedCLI struct {
	chart ChartWriter
}

// NewSeedCLI constructs the seeder.
func NewSeedCLI(chart ChartWriter) *SeedCLI {
	return &SeedCLI{chart: chart}
}

// SeedMode enumerates supported execution strategies.
type SeedMode string

const (
	// SeedModeDry previews the accounts without creating them.
	SeedModeDry SeedMode = "dry"
	// SeedModeApply creates missing accounts.
	SeedModeApply SeedMode = "apply"
)

// SeedOptions configures the seed command execution.
type SeedOptions struct {
	Mode       SeedMode
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// SeedSummary captures the structured outcome.
type SeedSummary struct {
	Mode    SeedMode  `json:"mode"`
	Planned []SeedRow `json:"planned"`
	Created []string  `json:"created,omitempty"`
	Skipped []string  `json:"skipped,omitempty"`
}

// SeedRow is one chart entry.
type SeedRow struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

var standardChart = []SeedRow{
	{Code: "10101", Name: "Cash", Type: "ASSET"},
	{Code: "10201", Name: "Bank", Type: "ASSET"},
	{Code: "10301", Name: "Accounts Receivable", Type: "ASSET"},
	{Code: "10401", Name: "Fuel Inventory", Type: "ASSET"},
	{Code: "20101", Name: "Accounts Payable", Type: "LIABILITY"},
	{Code: "30101", Name: "Owner Equity", Type: "EQUITY"},
	{Code: "40101", Name: "Fuel Sales", Type: "INCOME"},
	{Code: "40201", Name: "Stock Gain", Type: "INCOME"},
	{Code: "50101", Name: "General Expenses", Type: "EXPENSE"},
	{Code: "50201", Name: "Cost of Goods Sold", Type: "EXPENSE"},
	{Code: "50301", Name: "Stock Loss", Type: "EXPENSE"},
}

// SeedCommand provisions the standard chart. Existing codes are skipped, so
// the command is safe to re-run.
func (c *SeedCLI) SeedCommand(ctx context.Context, opts SeedOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Mode == "" {
		opts.Mode = SeedModeDry
	}
	mode := SeedMode(strings.ToLower(string(opts.Mode)))
	switch mode {
	case SeedModeDry, SeedModeApply:
	default:
		fmt.Fprintf(opts.Stderr, "seed: invalid mode %q (expected dry or apply)\n", opts.Mode)
		return 1
	}

	summary := SeedSummary{Mode: mode, Planned: standardChart}
	if mode == SeedModeApply {
		for _, row := range standardChart {
			_, err := c.chart.Create(ctx, row.Code, row.Name, accounts.AccountType(row.Type), decimal.Zero)
			switch {
			case err == nil:
				summary.Created = append(summary.Created, row.Code)
			case errors.Is(err, shared.ErrDuplicateCode):
				summary.Skipped = append(summary.Skipped, row.Code)
			default:
				fmt.Fprintf(opts.Stderr, "seed: create %s: %v\n", row.Code, err)
				return 1
			}
		}
	}
	if err := writeSeedOutput(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "seed: %v\n", err)
		return 1
	}
	return 0
}

func writeSeedOutput(opts SeedOptions, summary SeedSummary) error {
	if opts.JSONOutput {
		return json.NewEncoder(opts.Stdout).Encode(summary)
	}
	fmt.Fprintf(opts.Stdout, "Chart seed (%s): %d account(s)\n", summary.Mode, len(summary.Planned))
	for _, row := range summary.Planned {
		fmt.Fprintf(opts.Stdout, " - %s %s (%s)\n", row.Code, row.Name, row.Type)
	}
	if len(summary.Created) > 0 {
		fmt.Fprintf(opts.Stdout, "Created: %s\n", strings.Join(summary.Created, ", "))
	}
	if len(summary.Skipped) > 0 {
		fmt.Fprintf(opts.Stdout, "Skipped (already present): %s\n", strings.Join(summary.Skipped, ", "))
	}
	return nil
}
