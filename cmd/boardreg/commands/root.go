package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/remotehive/boardreg/internal/audit"
	"github.com/remotehive/boardreg/internal/config"
	"github.com/remotehive/boardreg/internal/service"
	"github.com/remotehive/boardreg/internal/token"
	"github.com/remotehive/boardreg/pkg/registry"
)

// EnvAuthToken is the environment variable carrying the caller's service
// token, as an alternative to the --token flag.
const EnvAuthToken = "BOARDREG_TOKEN"

var (
	version string
	commit  string
	date    string

	configPath string
	authToken  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boardreg",
	Short: "Boardreg - Job board registry reconciliation and consistency tooling",
	Long: `Boardreg maintains the registry of job board source definitions that
drives the scraping pipeline.

Operators bulk-upload CSV definitions which are reconciled against the
persisted registry, sweep out obsolete seed data, and audit that all
deployment environments agree on the registry's contents. Access is
gated by signed service tokens.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "boardreg.yml", "Path to the boardreg config file")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Service token (defaults to $BOARDREG_TOKEN)")
}

// resolveToken returns the caller's service token from the flag or env var.
func resolveToken() string {
	if authToken != "" {
		return authToken
	}
	return os.Getenv(EnvAuthToken)
}

// buildService loads the config and wires the service facade plus the
// configured checker. Startup-level failures (unreadable config, missing
// signing secret) abort here.
func buildService() (*service.Service, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := token.NewService([]byte(cfg.Token.Secret), cfg.Token.DefaultTTL.Std())
	if err != nil {
		return nil, nil, err
	}

	return service.New(tokens, cfg.Aliases, newCheckerFromConfig(cfg)), cfg, nil
}

// newCheckerFromConfig applies the config's audit tuning over the checker
// defaults.
func newCheckerFromConfig(cfg *config.Config) *audit.Checker {
	checker := audit.NewChecker()
	if cfg.Audit.MaxConcurrent > 0 {
		checker.MaxConcurrent = cfg.Audit.MaxConcurrent
	}
	if cfg.Audit.EnvTimeout > 0 {
		checker.EnvTimeout = cfg.Audit.EnvTimeout.Std()
	}
	if cfg.Audit.GlobalTimeout > 0 {
		checker.GlobalTimeout = cfg.Audit.GlobalTimeout.Std()
	}
	return checker
}

// openStore constructs the store handle for a named environment.
func openStore(cfg *config.Config, envName string) (*registry.Store, error) {
	env, err := cfg.FindEnvironment(envName)
	if err != nil {
		return nil, err
	}
	return registry.NewStore(env.RedisOptions(), env.Name)
}

// openAllEnvironments constructs audit handles for every configured
// environment. Callers own closing the returned stores.
func openAllEnvironments(cfg *config.Config) ([]audit.Environment, func(), error) {
	envs := make([]audit.Environment, 0, len(cfg.Environments))
	closer := func() {
		for _, env := range envs {
			env.Store.Close()
		}
	}

	for _, envCfg := range cfg.Environments {
		store, err := registry.NewStore(envCfg.RedisOptions(), envCfg.Name)
		if err != nil {
			closer()
			return nil, nil, err
		}
		envs = append(envs, audit.Environment{Name: envCfg.Name, Store: store})
	}

	return envs, closer, nil
}

// parseTTL parses a --ttl flag value, tolerating an empty string.
func parseTTL(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q: %w", s, err)
	}
	return d, nil
}
