package core

import (
	"fmt"
	"sort"
	"time"

	"tconsole/config"
	"tconsole/internal/capability"
	tcerr "tconsole/internal/errors"
	"tconsole/internal/executor"
	"tconsole/internal/metrics"
	"tconsole/internal/retry"
	"tconsole/internal/transport"
	"tconsole/internal/tunnel"
	"tconsole/util"
)

// sshKeepAlive is how often an attach client pings its jump host.
const sshKeepAlive = 15 * time.Second

// Build constructs the Mode selected by cfg.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.Listen {
		return buildServe(cfg, logger)
	}
	return buildAttach(cfg, logger)
}

// BuildRegistry returns the built-in commands plus cfg's aliases.
func BuildRegistry(aliases map[string]string) (*executor.Table, error) {
	reg := executor.NewBuiltins()

	names := make([]string, 0, len(aliases))
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Strings(names)

	for _, alias := range names {
		if err := reg.Alias(alias, aliases[alias]); err != nil {
			return nil, &tcerr.ConfigError{
				Field:   "alias",
				Value:   alias + "=" + aliases[alias],
				Message: err.Error(),
				Hint:    "run 'help' in a console to list command names",
			}
		}
	}
	return reg, nil
}

// MergeAliases adds the aliases reg does not know yet.  Names already
// bound, to the same or another executor, are left alone; one error is
// returned per alias that could not be added.
func MergeAliases(reg *executor.Table, aliases map[string]string) []error {
	names := make([]string, 0, len(aliases))
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Strings(names)

	var errs []error
	for _, alias := range names {
		if _, ok := reg.Resolve(alias); ok {
			continue
		}
		if err := reg.Alias(alias, aliases[alias]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ── mode builders ────────────────────────────────────────────────────

func buildServe(cfg *config.Config, logger *util.Logger) (Mode, error) {
	reg, err := BuildRegistry(cfg.Aliases)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	return &ServeMode{
		Address: util.JoinAddr(cfg.BindAddress, cfg.LocalPort),
		Capability: &capability.Console{
			Registry: reg,
			Prompt:   cfg.Prompt,
			Banner:   cfg.Banner,
			NoPrompt: cfg.NoPrompt,
			Idle:     cfg.Timeout,
			Metrics:  m,
		},
		Metrics:     m,
		GracePeriod: config.DefaultGracePeriod,
		Logger:      logger,
		ConfigFile:  cfg.ConfigFile,
		Registry:    reg,
	}, nil
}

func buildAttach(cfg *config.Config, logger *util.Logger) (Mode, error) {
	address, err := util.ResolveAddr(cfg.Host, cfg.Port, cfg.NoDNS)
	if err != nil {
		return nil, err
	}

	backoff := retry.Attempts(cfg.Retries, config.DefaultRetryDelay, config.DefaultMaxRetryDelay)
	backoff.Retryable = tcerr.IsRetryable
	backoff.OnRetry = logRetry(logger, address)

	return &AttachMode{
		Dialer:     buildDialer(cfg, logger),
		Capability: buildCapability(cfg),
		Network:    "tcp",
		Address:    address,
		Backoff:    backoff,
		Logger:     logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.Jump != nil {
		return transport.NewSSHDialer(tunnel.Config{
			User:          cfg.Jump.User,
			Host:          cfg.Jump.Host,
			Port:          cfg.Jump.Port,
			KeyFile:       cfg.SSHKeyPath,
			AskPassword:   cfg.SSHPassword,
			Agent:         cfg.UseSSHAgent,
			VerifyHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			Timeout:       config.DefaultConnTimeout,
			KeepAlive:     sshKeepAlive,
		}, logger)
	}
	return &transport.TCPDialer{Timeout: config.DefaultConnTimeout}
}

// buildCapability picks a script run for -c, an interactive relay
// otherwise.
func buildCapability(cfg *config.Config) capability.Capability {
	if cmds := cfg.Commands(); len(cmds) > 0 {
		return &capability.Script{Commands: cmds}
	}
	return &capability.Relay{}
}

// Describe summarises m for --dry-run.
func Describe(m Mode) string {
	switch m := m.(type) {
	case *ServeMode:
		return fmt.Sprintf("serve consoles on %s", m.Address)
	case *AttachMode:
		switch c := m.Capability.(type) {
		case *capability.Script:
			return fmt.Sprintf("attach to %s and run %d command(s)", m.Address, len(c.Commands))
		default:
			return fmt.Sprintf("attach to %s interactively", m.Address)
		}
	}
	return fmt.Sprintf("%T", m)
}
