package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boardreg.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `environments:
  - name: staging
    addr: localhost:6379
    db: 1
  - name: production
    addr: redis.internal:6379
    password: hunter2
token:
  secret: test-secret
  default_ttl: 1h
aliases:
  base_url: [url, website]
obsolete_boards:
  - Indeed Jobs
audit:
  max_concurrent: 2
  env_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Environments, 2)
	assert.Equal(t, "staging", cfg.Environments[0].Name)
	assert.Equal(t, 1, cfg.Environments[0].DB)
	assert.Equal(t, "hunter2", cfg.Environments[1].Password)
	assert.Equal(t, time.Hour, cfg.Token.DefaultTTL.Std())
	assert.Equal(t, []string{"url", "website"}, cfg.Aliases["base_url"])
	assert.Equal(t, []string{"Indeed Jobs"}, cfg.ObsoleteBoards)
	assert.Equal(t, 2, cfg.Audit.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.Audit.EnvTimeout.Std())

	opts := cfg.Environments[1].RedisOptions()
	assert.Equal(t, "redis.internal:6379", opts.Addr)
	assert.Equal(t, "hunter2", opts.Password)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/boardreg.yml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "environments:\n  - this is invalid\n    yaml syntax\n")
	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_SecretFromEnvironment(t *testing.T) {
	t.Setenv(EnvTokenSecret, "env-secret")
	path := writeConfig(t, `environments:
  - name: staging
    addr: localhost:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Token.Secret)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environments: []Environment{{Name: "staging", Addr: "localhost:6379"}},
			Token:        TokenConfig{Secret: "s"},
		}
	}

	t.Run("accepts valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("requires at least one environment", func(t *testing.T) {
		cfg := valid()
		cfg.Environments = nil
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no environments")
	})

	t.Run("rejects duplicate environment names", func(t *testing.T) {
		cfg := valid()
		cfg.Environments = append(cfg.Environments, Environment{Name: "staging", Addr: "other:6379"})
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate environment name")
	})

	t.Run("rejects invalid environment name", func(t *testing.T) {
		cfg := valid()
		cfg.Environments[0].Name = "Staging_1"
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires addr", func(t *testing.T) {
		cfg := valid()
		cfg.Environments[0].Addr = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires a token secret", func(t *testing.T) {
		cfg := valid()
		cfg.Token.Secret = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "token secret is required")
	})
}

func TestFindEnvironment(t *testing.T) {
	cfg := &Config{
		Environments: []Environment{
			{Name: "staging", Addr: "a:1"},
			{Name: "production", Addr: "b:2"},
		},
	}

	env, err := cfg.FindEnvironment("production")
	require.NoError(t, err)
	assert.Equal(t, "b:2", env.Addr)

	_, err = cfg.FindEnvironment("qa")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")
}
