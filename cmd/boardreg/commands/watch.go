package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/remotehive/boardreg/internal/printer"
	"github.com/remotehive/boardreg/internal/scheduler"
)

var watchEvery string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run consistency audits on a schedule",
	Long: `Run the cross-environment consistency audit on a recurring schedule
and print drift as it appears. Runs until interrupted.

Requires a token with registry:read.

Examples:
  # Audit every six hours
  boardreg watch --every 6h

  # Tighter loop while chasing a drift issue
  boardreg watch --every 5m`,
	RunE: runWatchAudit,
}

func init() {
	watchCmd.Flags().StringVar(&watchEvery, "every", "6h", "Audit interval (Go duration)")
	rootCmd.AddCommand(watchCmd)
}

func runWatchAudit(cmd *cobra.Command, args []string) error {
	svc, cfg, err := buildService()
	if err != nil {
		return err
	}

	// Verify the token up front so a bad credential fails fast instead of
	// on the first tick.
	envs, closeEnvs, err := openAllEnvironments(cfg)
	if err != nil {
		return err
	}
	defer closeEnvs()

	ctx := context.Background()
	if _, err := svc.Audit(ctx, nil, resolveToken()); err != nil {
		return err
	}

	checker := newCheckerFromConfig(cfg)
	sched := scheduler.New(checker, envs, fmt.Sprintf("@every %s", watchEvery), printReport)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	printer.Info("Auditing %d environment(s) every %s (Ctrl-C to stop)\n", len(envs), watchEvery)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	printer.Info("\nStopping\n")
	return nil
}
