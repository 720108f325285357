// Package scheduler wires up the cron job that periodically re-runs the
// cross-environment consistency audit and logs drift as it appears.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/remotehive/boardreg/internal/audit"
)

// Scheduler wraps robfig/cron and manages the recurring audit loop.
type Scheduler struct {
	cron    *cron.Cron
	checker *audit.Checker
	envs    []audit.Environment
	spec    string // cron spec, e.g. "@every 6h"
	report  func(*audit.Report)
}

// New creates a Scheduler that audits the given environments on the interval
// expressed as a cron duration spec ("@every 6h", "@hourly", ...). The
// report callback receives each completed audit.
func New(checker *audit.Checker, envs []audit.Environment, spec string, report func(*audit.Report)) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		checker: checker,
		envs:    envs,
		spec:    spec,
		report:  report,
	}
}

// Start registers the job and starts the scheduler. Also runs one audit
// immediately so drift is visible without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runAudit(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[Scheduler] Audit cron started: spec=%s environments=%d", s.spec, len(s.envs))

	// Run immediately on startup (non-blocking)
	go s.runAudit(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Scheduler] Audit cron stopped")
}

func (s *Scheduler) runAudit(ctx context.Context) {
	log.Println("[Scheduler] Audit cycle started")

	report := s.checker.Audit(ctx, s.envs)
	if report.InSync {
		log.Println("[Scheduler] All environments in sync")
	} else {
		log.Println("[Scheduler] Drift detected between environments")
	}

	if s.report != nil {
		s.report(report)
	}
}
