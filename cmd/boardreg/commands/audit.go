package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/remotehive/boardreg/internal/audit"
	"github.com/remotehive/boardreg/internal/printer"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check that all environments agree on the registry contents",
	Long: `Audit every configured environment and report discrepancies.

For each environment the audit reports total and active record counts,
boards present elsewhere but missing here, and boards whose is_active or
base_url differ from another environment. Unreachable environments are
reported as such without aborting the rest of the audit. The audit never
writes; it is safe against production stores.

Requires a token with registry:read.

Examples:
  # Human-readable audit of all configured environments
  boardreg audit

  # JSON for scripting
  boardreg audit --json | jq '.environments'`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	svc, cfg, err := buildService()
	if err != nil {
		return err
	}

	envs, closeEnvs, err := openAllEnvironments(cfg)
	if err != nil {
		return err
	}
	defer closeEnvs()

	report, err := svc.Audit(context.Background(), envs, resolveToken())
	if err != nil {
		return err
	}

	if auditJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printReport(report)
	return nil
}

func printReport(report *audit.Report) {
	names := make([]string, 0, len(report.Environments))
	for name := range report.Environments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		envReport := report.Environments[name]
		printer.Header("%s\n", name)

		if envReport.Unreachable {
			printer.Warning("unreachable: %s\n", envReport.Error)
			continue
		}

		printer.Info("  records: %d total, %d active\n", envReport.RecordCount, envReport.ActiveCount)
		for _, key := range envReport.MissingKeys {
			printer.Info("  missing:    %s\n", key)
		}
		for _, key := range envReport.MismatchedKeys {
			printer.Info("  mismatched: %s\n", key)
		}
	}

	if report.InSync {
		printer.Success("All environments in sync\n")
	} else {
		printer.Warning("Environments have drifted\n")
	}
}
