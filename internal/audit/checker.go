// Package audit implements the cross-environment consistency checker. The
// registry is replicated into several independently configured environments
// (staging, production, migration targets) and they drift: boards imported
// into one but not another, or toggled active in only one place. The checker
// reports per-environment counts and per-key discrepancies without ever
// writing, so it is safe to run against production stores at any time.
package audit

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/remotehive/boardreg/pkg/registry"
)

// Environment is one auditable registry environment.
type Environment struct {
	Name  string
	Store *registry.Store
}

// EnvReport is the audit result for a single environment.
type EnvReport struct {
	RecordCount    int      `json:"record_count"`
	ActiveCount    int      `json:"active_count"`
	MissingKeys    []string `json:"missing_keys,omitempty"`    // present in another environment, absent here
	MismatchedKeys []string `json:"mismatched_keys,omitempty"` // present here and elsewhere with differing is_active or base_url
	Unreachable    bool     `json:"unreachable,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Report is the full cross-environment audit result. Ephemeral: computed per
// audit call, never persisted.
type Report struct {
	Environments map[string]*EnvReport `json:"environments"`
	InSync       bool                  `json:"in_sync"` // true when all reachable environments agree
}

// Checker runs consistency audits with bounded parallelism. Environment
// fetches are independent, so they run concurrently; a slow or unreachable
// environment must not block the others.
type Checker struct {
	MaxConcurrent int           // concurrent environment fetches
	EnvTimeout    time.Duration // per-environment fetch budget
	GlobalTimeout time.Duration // whole-audit budget
}

// NewChecker returns a checker with production defaults.
func NewChecker() *Checker {
	return &Checker{
		MaxConcurrent: 4,
		EnvTimeout:    10 * time.Second,
		GlobalTimeout: 60 * time.Second,
	}
}

// fetchResult carries one environment's records (or error) out of the pool.
type fetchResult struct {
	name    string
	records []*registry.JobBoardRecord
	err     error
}

// Audit fetches every environment concurrently and computes the consistency
// report. An unreachable environment is marked as such with its underlying
// error and excluded from the cross-environment diff; the audit still
// completes for the rest. Completion is gated by all fetches finishing or
// the global timeout, whichever comes first.
func (c *Checker) Audit(ctx context.Context, envs []Environment) *Report {
	ctx, cancel := context.WithTimeout(ctx, c.GlobalTimeout)
	defer cancel()

	results := make(chan fetchResult, len(envs))
	sem := make(chan struct{}, c.MaxConcurrent)

	var wg sync.WaitGroup
	for _, env := range envs {
		wg.Add(1)
		go func(env Environment) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- fetchResult{name: env.Name, err: ctx.Err()}
				return
			}

			results <- c.fetchEnv(ctx, env)
		}(env)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect whatever arrives before the global deadline. Environments that
	// never report are marked unreachable below.
	fetched := make(map[string]fetchResult, len(envs))
collect:
	for {
		select {
		case result, ok := <-results:
			if !ok {
				break collect
			}
			fetched[result.name] = result
		case <-ctx.Done():
			break collect
		}
	}

	return buildReport(envs, fetched)
}

// fetchEnv reads one environment's full record set under its own timeout.
func (c *Checker) fetchEnv(ctx context.Context, env Environment) fetchResult {
	ctx, cancel := context.WithTimeout(ctx, c.EnvTimeout)
	defer cancel()

	if err := env.Store.Ping(ctx); err != nil {
		log.Printf("[Audit] Environment %s unreachable: %v", env.Name, err)
		return fetchResult{name: env.Name, err: err}
	}

	records, err := env.Store.GetAll(ctx)
	if err != nil {
		log.Printf("[Audit] Failed to read environment %s: %v", env.Name, err)
		return fetchResult{name: env.Name, err: err}
	}

	return fetchResult{name: env.Name, records: records}
}

// buildReport computes per-environment counts and the cross-environment diff
// from the fetched record sets.
func buildReport(envs []Environment, fetched map[string]fetchResult) *Report {
	report := &Report{
		Environments: make(map[string]*EnvReport, len(envs)),
		InSync:       true,
	}

	// Index reachable environments by name -> naturalKey -> record
	reachable := make(map[string]map[string]*registry.JobBoardRecord)
	for _, env := range envs {
		result, ok := fetched[env.Name]
		if !ok || result.err != nil {
			envReport := &EnvReport{Unreachable: true, Error: "audit timed out"}
			if ok && result.err != nil {
				envReport.Error = result.err.Error()
			}
			report.Environments[env.Name] = envReport
			continue
		}

		byKey := make(map[string]*registry.JobBoardRecord, len(result.records))
		envReport := &EnvReport{RecordCount: len(result.records)}
		for _, record := range result.records {
			byKey[record.NaturalKey] = record
			if record.IsActive {
				envReport.ActiveCount++
			}
		}
		reachable[env.Name] = byKey
		report.Environments[env.Name] = envReport
	}

	// Union of natural keys across all reachable environments
	union := make(map[string]struct{})
	for _, byKey := range reachable {
		for key := range byKey {
			union[key] = struct{}{}
		}
	}

	for envName, byKey := range reachable {
		envReport := report.Environments[envName]

		for key := range union {
			record, present := byKey[key]
			if !present {
				envReport.MissingKeys = append(envReport.MissingKeys, key)
				continue
			}

			if mismatchesElsewhere(record, envName, reachable) {
				envReport.MismatchedKeys = append(envReport.MismatchedKeys, key)
			}
		}

		sort.Strings(envReport.MissingKeys)
		sort.Strings(envReport.MismatchedKeys)

		if len(envReport.MissingKeys) > 0 || len(envReport.MismatchedKeys) > 0 {
			report.InSync = false
		}
	}

	// Unreachable environments also mean we cannot claim sync
	for _, envReport := range report.Environments {
		if envReport.Unreachable {
			report.InSync = false
		}
	}

	return report
}

// mismatchesElsewhere reports whether any other reachable environment holds
// the same natural key with a differing is_active or base_url.
func mismatchesElsewhere(record *registry.JobBoardRecord, envName string, reachable map[string]map[string]*registry.JobBoardRecord) bool {
	for otherName, otherByKey := range reachable {
		if otherName == envName {
			continue
		}
		other, present := otherByKey[record.NaturalKey]
		if !present {
			continue
		}
		if other.IsActive != record.IsActive || other.BaseURL != record.BaseURL {
			return true
		}
	}
	return false
}
