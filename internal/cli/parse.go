package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/ammo/internal/ingest"
	"github.com/spf13/cobra"
)

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	File      string       `json:"file"`
	Header    []string     `json:"header"`
	Rows      []ingest.Row `json:"rows"`
	Count     int          `json:"count"`
	Defaulted int          `json:"defaulted"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	var numeric []string
	cmd := &cobra.Command{
		Use:   "parse <csv-file>",
		Short: "Parse a CSV file into rows without storing it",
		Long: `Parse a CSV file into rows without storing it.

Every column is kept under its header name. The numeric columns must all
appear in the header, matched exactly, and are converted to integers
under the coercion policy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.config()
			if err != nil {
				return err
			}
			opts := ingest.DefaultOptions(cfg.CoercionPolicy())
			if cmd.Flags().Changed("numeric") {
				opts.NumericColumns = numeric
			}
			rootOpts.formatter(cmd).VerboseLog("numeric columns: %q, policy %s", opts.NumericColumns, opts.Policy)

			table, err := ingest.ParseFile(args[0], opts)
			if err != nil {
				return fail(err)
			}

			result := ParseResult{
				File:      args[0],
				Header:    table.Header,
				Rows:      table.Rows,
				Count:     len(table.Rows),
				Defaulted: table.Defaulted,
			}
			return rootOpts.formatter(cmd).Success(result, formatTable(table))
		},
	}
	cmd.Flags().StringSliceVar(&numeric, "numeric", nil,
		fmt.Sprintf("columns converted to integers (default %q)", ingest.DefaultNumericColumns))
	return cmd
}

// formatTable prints parsed rows under their header, then a summary line.
func formatTable(table *ingest.Table) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
	for _, row := range table.Rows {
		cells := make([]string, len(table.Header))
		for i, name := range table.Header {
			cells[i] = fmt.Sprint(row[name])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(&b, "%d rows", len(table.Rows))
	if table.Defaulted > 0 {
		fmt.Fprintf(&b, ", %d numeric cells defaulted to 0", table.Defaulted)
	}
	return b.String()
}
