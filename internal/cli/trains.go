package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railwatch/railwatch/internal/config"
	"github.com/railwatch/railwatch/internal/store"
)

// NewTrainsCommand creates the trains command: print the current
// projection without going through the HTTP server.
func NewTrainsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "trains",
		Short:         "Print the current train positions",
		Args:          cobra.NoArgs,
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

			positions, err := st.ActivePositions(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "projection query failed", err)
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(positions)
			}
			for _, p := range positions {
				fmt.Fprintf(out, "%-6s %9.5f %9.5f  last seen %d\n",
					p.Code, p.Latitude, p.Longitude, p.LastSeen/1000)
			}
			fmt.Fprintf(out, "%d trains\n", len(positions))
			return nil
		},
	}
}
