package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/railwatch/railwatch/internal/config"
	"github.com/railwatch/railwatch/internal/refdata"
	"github.com/railwatch/railwatch/internal/store"
)

// NewImportCommand creates the import command group.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load reference data into the store",
	}

	cmd.AddCommand(newImportSubcommand(rootOpts, "berths", "Import berth coordinates from a locations JSON dataset", refdata.ImportBerths))
	cmd.AddCommand(newImportSubcommand(rootOpts, "borders", "Import inter-area border links from a YAML mapping", refdata.ImportBorders))
	cmd.AddCommand(newImportSubcommand(rootOpts, "operators", "Import operator codes from a JSON dataset", refdata.ImportOperators))

	return cmd
}

func newImportSubcommand(rootOpts *RootOptions, name, short string,
	load func(context.Context, *store.Store, io.Reader) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:           name + " <file>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			st, err := store.Open(cfg.Store.Path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer st.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open dataset", err)
			}
			defer f.Close()

			n, err := load(cmd.Context(), st, f)
			if err != nil {
				return WrapExitError(ExitCommandError, "import failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s records\n", n, name)
			return nil
		},
	}
}
