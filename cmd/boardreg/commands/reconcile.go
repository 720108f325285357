package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/remotehive/boardreg/internal/csvio"
	"github.com/remotehive/boardreg/internal/printer"
	"github.com/remotehive/boardreg/internal/reconcile"
)

var (
	reconcileEnvName  string
	reconcileDryRun   bool
	reconcileTemplate bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [CSV_FILE]",
	Short: "Reconcile a CSV upload against an environment's registry",
	Long: `Reconcile a CSV of job board definitions against the persisted registry.

Each row is mapped to the canonical schema, validated, and diffed against
the current registry state by natural key. Missing boards are created,
changed boards are updated, identical boards are left alone. Row-level
failures (bad URLs, unknown board types, in-batch duplicates) are collected
and reported; they never abort the rest of the batch.

Requires a token with registry:write (registry:read for --dry-run).

Examples:
  # Apply a CSV upload to staging
  boardreg reconcile boards.csv --env staging

  # Show the plan without writing anything
  boardreg reconcile boards.csv --env staging --dry-run

  # Print the expected CSV header
  boardreg reconcile --template`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVarP(&reconcileEnvName, "env", "e", "", "Target environment name")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Compute the plan without applying it")
	reconcileCmd.Flags().BoolVar(&reconcileTemplate, "template", false, "Print the expected CSV header and exit")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if reconcileTemplate {
		fmt.Println(csvio.Template)
		return nil
	}

	if len(args) != 1 {
		return printer.Error("CSV file is required", "Usage: boardreg reconcile FILE.csv --env NAME")
	}
	if reconcileEnvName == "" {
		return printer.Error("--env is required", "Pick one of the environments defined in the config file.")
	}

	svc, cfg, err := buildService()
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csvio.Read(file)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, reconcileEnvName)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if reconcileDryRun {
		plan, rowFailures, err := svc.Plan(ctx, store, rows, resolveToken())
		if err != nil {
			return err
		}
		printPlan(plan, rowFailures)
		return nil
	}

	summary, _, err := svc.Reconcile(ctx, store, rows, resolveToken())
	if err != nil {
		return err
	}

	printer.Success("Reconciled %d row(s) against %q\n", len(rows), reconcileEnvName)
	printer.Info("  created:   %d\n", summary.Created)
	printer.Info("  updated:   %d\n", summary.Updated)
	printer.Info("  unchanged: %d\n", summary.Unchanged)
	printFailures(summary.Failed)
	return nil
}

func printPlan(plan *reconcile.Plan, rowFailures []reconcile.Failure) {
	creates, updates, noops := plan.Counts()
	printer.Header("Plan (dry run)\n")
	printer.Info("  create:     %d\n", creates)
	printer.Info("  update:     %d\n", updates)
	printer.Info("  no-op:      %d\n", noops)
	printer.Info("  superseded: %d\n", len(plan.Superseded))

	for _, entry := range plan.Entries {
		if entry.Action == reconcile.ActionNoOp {
			continue
		}
		printer.Info("  %-6s %s\n", entry.Action, entry.NaturalKey)
		fields := make([]string, 0, len(entry.Diff))
		for field := range entry.Diff {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			change := entry.Diff[field]
			printer.Info("         %s: %q -> %q\n", field, change.Old, change.New)
		}
	}

	printFailures(rowFailures)
}

func printFailures(failures []reconcile.Failure) {
	if len(failures) == 0 {
		return
	}
	printer.Warning("%d row(s) failed:\n", len(failures))
	for _, failure := range failures {
		printer.Info("  row %d (%s): %s\n", failure.RowIndex, failure.Kind, failure.Message)
	}
}
