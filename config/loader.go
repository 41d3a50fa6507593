package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the TCONSOLE_ prefix.  Booleans accept
// anything strconv.ParseBool does; durations use time.ParseDuration.

type envConfig struct {
	Host     string        `env:"TCONSOLE_HOST"`
	Port     int           `env:"TCONSOLE_PORT"`
	Bind     string        `env:"TCONSOLE_BIND"`
	Listen   bool          `env:"TCONSOLE_LISTEN"`
	NoDNS    bool          `env:"TCONSOLE_NO_DNS"`
	Timeout  time.Duration `env:"TCONSOLE_TIMEOUT"`
	Prompt   string        `env:"TCONSOLE_PROMPT"`
	NoPrompt bool          `env:"TCONSOLE_NO_PROMPT"`
	Retries  int           `env:"TCONSOLE_RETRIES"`

	Tunnel         string `env:"TCONSOLE_TUNNEL"`
	SSHKey         string `env:"TCONSOLE_SSH_KEY"`
	SSHPassword    bool   `env:"TCONSOLE_SSH_PASSWORD"`
	SSHAgent       bool   `env:"TCONSOLE_SSH_AGENT"`
	StrictHostKey  bool   `env:"TCONSOLE_STRICT_HOSTKEY"`
	KnownHostsPath string `env:"TCONSOLE_KNOWN_HOSTS"`

	Verbose int    `env:"TCONSOLE_VERBOSE"`
	Trace   string `env:"TCONSOLE_TRACE"`
}

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) error {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("config: environment: %w", err)
	}

	if env.Host != "" {
		cfg.Host = env.Host
	}
	if env.Port > 0 {
		cfg.LocalPort = env.Port
	}
	if env.Bind != "" {
		cfg.BindAddress = env.Bind
	}
	if env.Listen {
		cfg.Listen = true
	}
	if env.NoDNS {
		cfg.NoDNS = true
	}
	if env.Timeout > 0 {
		cfg.Timeout = env.Timeout
	}
	if env.Prompt != "" {
		cfg.Prompt = env.Prompt
	}
	if env.NoPrompt {
		cfg.NoPrompt = true
	}
	if env.Retries > 0 {
		cfg.Retries = env.Retries
	}

	// SSH tunnel
	if env.Tunnel != "" {
		cfg.TunnelSpec = env.Tunnel
	}
	if env.SSHKey != "" {
		cfg.SSHKeyPath = env.SSHKey
	}
	if env.SSHPassword {
		cfg.SSHPassword = true
	}
	if env.SSHAgent {
		cfg.UseSSHAgent = true
	}
	if env.StrictHostKey {
		cfg.StrictHostKey = true
	}
	if env.KnownHostsPath != "" {
		cfg.KnownHostsPath = env.KnownHostsPath
	}

	// Output
	if env.Verbose > 0 {
		cfg.Verbose = env.Verbose
	}
	if env.Trace != "" {
		cfg.TraceFile = env.Trace
	}
	return nil
}
