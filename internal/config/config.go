// Package config loads and validates the boardreg.yml configuration.
// Fail-fast: a config that cannot produce working store handles or a signing
// key aborts process startup; nothing else in the system is allowed to be
// fatal.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// EnvTokenSecret is the environment variable overriding the signing secret,
// so the secret never has to live in a checked-in config file.
const EnvTokenSecret = "BOARDREG_TOKEN_SECRET"

// envNamePattern restricts environment names to DNS-style labels: lowercase
// alphanumeric with hyphens, not at start or end.
var envNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// Config is the top-level boardreg.yml configuration.
type Config struct {
	Environments   []Environment       `yaml:"environments"`
	Token          TokenConfig         `yaml:"token"`
	Aliases        map[string][]string `yaml:"aliases,omitempty"`
	ObsoleteBoards []string            `yaml:"obsolete_boards,omitempty"`
	Audit          AuditConfig         `yaml:"audit,omitempty"`
}

// Environment is one connection descriptor for a logical registry datastore.
type Environment struct {
	Name     string `yaml:"name"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// RedisOptions converts the descriptor into go-redis connection options.
func (e *Environment) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     e.Addr,
		Password: e.Password,
		DB:       e.DB,
	}
}

// Duration wraps time.Duration so YAML values can be written as Go duration
// strings ("1h", "30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TokenConfig configures the token service.
type TokenConfig struct {
	Secret     string   `yaml:"secret,omitempty"` // overridden by BOARDREG_TOKEN_SECRET
	DefaultTTL Duration `yaml:"default_ttl,omitempty"`
}

// AuditConfig tunes the consistency checker's worker pool.
type AuditConfig struct {
	MaxConcurrent int      `yaml:"max_concurrent,omitempty"`
	EnvTimeout    Duration `yaml:"env_timeout,omitempty"`
	GlobalTimeout Duration `yaml:"global_timeout,omitempty"`
}

// Load reads, parses, and validates a config file. The token secret may come
// from the file or from BOARDREG_TOKEN_SECRET (the env var wins).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if secret := os.Getenv(EnvTokenSecret); secret != "" {
		cfg.Token.Secret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	if len(c.Environments) == 0 {
		return fmt.Errorf("no environments defined")
	}

	seen := make(map[string]bool, len(c.Environments))
	for _, env := range c.Environments {
		if err := env.Validate(); err != nil {
			return err
		}
		if seen[env.Name] {
			return fmt.Errorf("duplicate environment name %q", env.Name)
		}
		seen[env.Name] = true
	}

	if c.Token.Secret == "" {
		return fmt.Errorf("token secret is required (set token.secret or %s)", EnvTokenSecret)
	}

	if c.Token.DefaultTTL < 0 {
		return fmt.Errorf("token default_ttl cannot be negative")
	}

	if c.Audit.MaxConcurrent < 0 || c.Audit.EnvTimeout < 0 || c.Audit.GlobalTimeout < 0 {
		return fmt.Errorf("audit timeouts and concurrency cannot be negative")
	}

	return nil
}

// Validate checks a single environment descriptor.
func (e *Environment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}
	if !envNamePattern.MatchString(e.Name) {
		return fmt.Errorf("invalid environment name %q: must be lowercase alphanumeric with hyphens (not at start/end)", e.Name)
	}
	if e.Addr == "" {
		return fmt.Errorf("environment %q: addr is required", e.Name)
	}
	if e.DB < 0 {
		return fmt.Errorf("environment %q: db cannot be negative", e.Name)
	}
	return nil
}

// FindEnvironment returns the named environment descriptor.
func (c *Config) FindEnvironment(name string) (*Environment, error) {
	for i := range c.Environments {
		if c.Environments[i].Name == name {
			return &c.Environments[i], nil
		}
	}
	return nil, fmt.Errorf("environment %q is not defined in config", name)
}
