package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/ammo/internal/config"
	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the inventory table if it does not exist",
		Long: `Create the inventory table if it does not exist.

Existing items are kept. Use reset to start over.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.Initialize(cmd.Context()); err != nil {
				return fail(err)
			}
			location := storeLocation(cfg.Store)
			return rootOpts.formatter(cmd).Success(
				map[string]string{"driver": cfg.Store.Driver, "location": location},
				"Inventory ready ("+cfg.Store.Driver+": "+location+").",
			)
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every item and recreate the inventory table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageError("reset deletes every item; pass --yes to confirm")
			}
			svc, _, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.Reset(cmd.Context()); err != nil {
				return fail(err)
			}
			return rootOpts.formatter(cmd).Success(map[string]string{"status": "reset"}, "Inventory reset.")
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every item")
	return cmd
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <csv-file>",
		Short: "Bulk load items from a CSV file",
		Long: `Bulk load items from a CSV file.

The first row must be a header naming the columns. The whole file is read
and checked before anything is stored; if any row is rejected nothing is
inserted. Blank or invalid quantities become 0 under the lenient policy
and reject the file under the strict one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			result, err := svc.BulkLoad(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}

			text := fmt.Sprintf("Loaded %d items from %s.", result.Inserted, result.FileName)
			if result.Defaulted > 0 {
				text += fmt.Sprintf(" %d quantities were blank or invalid and stored as 0.", result.Defaulted)
			}
			rootOpts.formatter(cmd).VerboseLog("load %s: %d rows, %d bytes in %s", result.LoadID, result.Rows, result.Bytes, result.Duration)
			return rootOpts.formatter(cmd).Success(result, text)
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			records, err := svc.FetchAll(cmd.Context())
			if err != nil {
				return fail(err)
			}
			if records == nil {
				records = []core.Record{}
			}
			text := "No items in inventory."
			if len(records) > 0 {
				text = formatRecords(records)
			}
			return rootOpts.formatter(cmd).Success(records, text)
		},
	}
}

// NewAddCommand creates the add command. Each data field has a flag named
// after its column, e.g. --quantity-box for Quantity_Box.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	values := make(map[string]*string, len(core.FieldSpecs))
	cmd := &cobra.Command{
		Use:   "add --field=value...",
		Short: "Add one item",
		Long: `Add one item.

Quantities must be whole, non-negative numbers; all three are required.
Other fields may be left out.`,
		Example: `  ammo add --ammo-type Shotgun --gauge-or-ammo-size 12 --brand Federal \
    --quantity-box 2 --quantity-loose 0 --quantity-in-magazine 0 --type Buckshot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make(map[string]string, len(values))
			for _, spec := range core.FieldSpecs {
				if cmd.Flags().Changed(flagName(spec)) {
					fields[spec.Name] = *values[spec.Name]
				}
			}

			svc, _, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			rec, err := svc.AddFromForm(cmd.Context(), fields)
			if err != nil {
				return fail(err)
			}
			return rootOpts.formatter(cmd).Success(rec, fmt.Sprintf("Added item %d.", rec.ID))
		},
	}
	for _, spec := range core.FieldSpecs {
		values[spec.Name] = cmd.Flags().String(flagName(spec), "", spec.Label)
	}
	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <type>",
		Short: "Find items whose Type contains a term, ignoring case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			results, err := svc.SearchByType(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			text := core.NoResultsMessage
			if len(results) > 0 {
				text = formatRecords(results)
			}
			return rootOpts.formatter(cmd).Success(results, text)
		},
	}
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write every item to a CSV file, or stdout with -",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			if args[0] == "-" {
				_, err := svc.ExportTo(cmd.Context(), cmd.OutOrStdout())
				return fail(err)
			}
			n, err := svc.ExportToFile(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			return rootOpts.formatter(cmd).Success(
				map[string]any{"path": args[0], "records": n},
				fmt.Sprintf("Exported %d items to %s.", n, args[0]),
			)
		},
	}
}

// flagName turns a column name into a flag, e.g. Quantity_in_Magazine
// becomes quantity-in-magazine.
func flagName(spec core.FieldSpec) string {
	return strings.ToLower(strings.ReplaceAll(spec.Name, "_", "-"))
}

// formatRecords lays records out as an aligned table under the column
// header.
func formatRecords(records []core.Record) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(core.Columns, "\t"))
	for _, rec := range records {
		fmt.Fprintln(tw, strings.Join(rec.Values(), "\t"))
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// storeLocation describes where the store keeps its data without
// revealing connection credentials.
func storeLocation(cfg config.StoreConfig) string {
	switch cfg.Driver {
	case config.DriverPostgres:
		return "DATABASE_URL"
	case config.DriverMemory:
		return "memory"
	default:
		return cfg.Path
	}
}
