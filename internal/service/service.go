// Package service is the programmatic contract the CLI (and any future HTTP
// layer) calls into. It verifies service tokens, enforces the permission
// policy per operation, and serializes mutating operations per environment
// so a dedup sweep cannot race a concurrent reconciliation.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/remotehive/boardreg/internal/audit"
	"github.com/remotehive/boardreg/internal/mapper"
	"github.com/remotehive/boardreg/internal/reconcile"
	"github.com/remotehive/boardreg/internal/sweep"
	"github.com/remotehive/boardreg/internal/token"
	"github.com/remotehive/boardreg/pkg/registry"
)

// PermissionDeniedError reports a verified token that lacks the permission
// an operation requires.
type PermissionDeniedError struct {
	Subject    string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("subject %q lacks permission %q", e.Subject, e.Permission)
}

// Service exposes the registry operations behind token checks.
type Service struct {
	tokens  *token.Service
	aliases mapper.AliasTable
	checker *audit.Checker

	mu       sync.Mutex
	envLocks map[string]*sync.Mutex
}

// New wires a service from its dependencies. A nil alias table falls back to
// the default header aliases; a nil checker gets production defaults.
func New(tokens *token.Service, aliases mapper.AliasTable, checker *audit.Checker) *Service {
	if aliases == nil {
		aliases = mapper.DefaultAliases()
	}
	if checker == nil {
		checker = audit.NewChecker()
	}

	return &Service{
		tokens:   tokens,
		aliases:  aliases,
		checker:  checker,
		envLocks: make(map[string]*sync.Mutex),
	}
}

// envLock serializes mutating operations (reconcile, sweep) per environment.
// Without it a sweep could delete a record a concurrent reconciliation is
// about to update.
func (s *Service) envLock(envName string) func() {
	s.mu.Lock()
	l, ok := s.envLocks[envName]
	if !ok {
		l = &sync.Mutex{}
		s.envLocks[envName] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// authorize verifies the token and checks it carries the permission.
func (s *Service) authorize(authToken, permission string) (*token.Claims, error) {
	claims, err := s.tokens.Verify(authToken)
	if err != nil {
		return nil, err
	}
	if !claims.HasPermission(permission) {
		return nil, &PermissionDeniedError{Subject: claims.Subject, Permission: permission}
	}
	return claims, nil
}

// Reconcile maps, validates, and reconciles a batch of raw CSV rows against
// one environment's registry. Requires registry:write. Row-level mapping and
// validation failures are folded into the summary's failed list; only auth
// and snapshot errors are returned as errors.
func (s *Service) Reconcile(ctx context.Context, store *registry.Store, rawRows []map[string]string, authToken string) (*reconcile.Summary, *reconcile.Plan, error) {
	if _, err := s.authorize(authToken, token.PermissionWrite); err != nil {
		return nil, nil, err
	}

	unlock := s.envLock(store.EnvName())
	defer unlock()

	batch, rowFailures := s.mapRows(rawRows)

	engine := reconcile.NewEngine(store)
	summary, plan, err := engine.Reconcile(ctx, batch)
	if err != nil {
		return nil, nil, err
	}

	summary.Failed = append(rowFailures, summary.Failed...)
	return summary, plan, nil
}

// Plan computes the reconciliation plan without applying it (dry run).
// Requires registry:read since it only inspects state.
func (s *Service) Plan(ctx context.Context, store *registry.Store, rawRows []map[string]string, authToken string) (*reconcile.Plan, []reconcile.Failure, error) {
	if _, err := s.authorize(authToken, token.PermissionRead); err != nil {
		return nil, nil, err
	}

	batch, rowFailures := s.mapRows(rawRows)

	engine := reconcile.NewEngine(store)
	current, err := engine.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	return reconcile.BuildPlan(batch, current), rowFailures, nil
}

// mapRows runs the field mapper and schema validator over raw rows,
// collecting per-row failures without aborting the batch.
func (s *Service) mapRows(rawRows []map[string]string) ([]reconcile.InputRow, []reconcile.Failure) {
	var batch []reconcile.InputRow
	var failures []reconcile.Failure

	for i, raw := range rawRows {
		mapped, err := mapper.Map(raw, s.aliases)
		if err != nil {
			failures = append(failures, reconcile.Failure{
				RowIndex: i,
				Kind:     reconcile.FailureValidation,
				Message:  err.Error(),
			})
			continue
		}

		record, err := registry.FromRow(mapped)
		if err != nil {
			failures = append(failures, reconcile.Failure{
				RowIndex: i,
				Kind:     reconcile.FailureValidation,
				Message:  err.Error(),
			})
			continue
		}

		batch = append(batch, reconcile.InputRow{Index: i, Record: record})
	}

	return batch, failures
}

// Sweep deletes known-obsolete seed records from one environment. Requires
// registry:admin. An empty name list sweeps the built-in obsolete set.
func (s *Service) Sweep(ctx context.Context, store *registry.Store, names []string, authToken string) (*sweep.Result, error) {
	if _, err := s.authorize(authToken, token.PermissionAdmin); err != nil {
		return nil, err
	}

	unlock := s.envLock(store.EnvName())
	defer unlock()

	if len(names) == 0 {
		names = sweep.DefaultObsoleteNames
	}

	return sweep.NewSweeper(store).Sweep(ctx, names), nil
}

// Audit runs the cross-environment consistency check. Requires
// registry:read. Read-only; no environment lock is taken.
func (s *Service) Audit(ctx context.Context, envs []audit.Environment, authToken string) (*audit.Report, error) {
	if _, err := s.authorize(authToken, token.PermissionRead); err != nil {
		return nil, err
	}

	return s.checker.Audit(ctx, envs), nil
}

// IssueToken signs a new service token. Restricted to trusted bootstrap
// callers (the CLI reading the signing secret from local config); there is
// no permission check because possession of the secret is the check.
func (s *Service) IssueToken(subject, role string, permissions []string, ttl time.Duration) (string, error) {
	return s.tokens.Issue(subject, role, permissions, ttl)
}
