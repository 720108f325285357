package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/remotehive/boardreg/internal/printer"
)

var (
	sweepEnvName string
	sweepNames   []string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete obsolete seed boards from an environment",
	Long: `Delete registry records left behind by the retired seed scripts.

Only records whose origin is "seed" are deleted. A board an operator has
since re-created (origin csv-import or manual) under the same name is
retained. Safe to re-run; already-absent names are reported as not found.

Requires a token with registry:admin.

Examples:
  # Sweep the built-in obsolete seed list from production
  boardreg sweep --env production

  # Sweep specific names
  boardreg sweep --env staging --name "Indeed Jobs" --name "Monster"`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVarP(&sweepEnvName, "env", "e", "", "Target environment name")
	sweepCmd.Flags().StringArrayVar(&sweepNames, "name", nil, "Board name to sweep (repeatable; defaults to the built-in obsolete list)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if sweepEnvName == "" {
		return printer.Error("--env is required", "Pick one of the environments defined in the config file.")
	}

	svc, cfg, err := buildService()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, sweepEnvName)
	if err != nil {
		return err
	}
	defer store.Close()

	names := sweepNames
	if len(names) == 0 {
		names = cfg.ObsoleteBoards
	}

	result, err := svc.Sweep(context.Background(), store, names, resolveToken())
	if err != nil {
		return err
	}

	printer.Success("Sweep of %q complete: deleted %d board(s)\n", sweepEnvName, result.DeletedCount)
	for _, name := range result.Deleted {
		printer.Info("  deleted:  %s\n", name)
	}
	for _, name := range result.Retained {
		printer.Info("  retained: %s (not seed origin)\n", name)
	}
	for _, name := range result.NotFound {
		printer.Info("  absent:   %s\n", name)
	}
	if len(result.Failed) > 0 {
		printer.Warning("%d name(s) failed:\n", len(result.Failed))
		for _, failure := range result.Failed {
			printer.Info("  %s: %s\n", failure.Name, failure.Message)
		}
	}
	return nil
}
