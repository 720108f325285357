// Package registry provides type-safe Go definitions and Redis schema patterns
// for the job board registry. The registry is the persisted set of job board
// source definitions that drives the scraping pipeline; every component
// (reconciliation engine, dedup sweep, consistency checker, CLI) reads and
// writes registry records through the Store defined here.
//
// All Redis keys are namespaced by environment name so that several logical
// registries (staging, production, migration targets) can coexist on a single
// Redis server or be spread across independently configured ones.
package registry
