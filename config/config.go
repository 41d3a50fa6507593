// Package config holds the settings of one tconsole run and the
// layers they are loaded from: defaults, a YAML file, TCONSOLE_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	tcerr "tconsole/internal/errors"
)

// Config holds every tuneable for a tconsole run.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host        string
	Port        int    // attach: destination port
	LocalPort   int    // -p: listen port
	BindAddress string // listen address, empty for all interfaces
	Listen      bool
	Timeout     time.Duration // idle timeout per connection
	NoDNS       bool

	// ── Console ──────────────────────────────────────────────────────
	Prompt   string
	Banner   string
	NoPrompt bool
	Aliases  map[string]string // alias → registered command

	// ConfigFile is the --config path; listen mode watches it for new
	// aliases.
	ConfigFile string

	// ── Attach ───────────────────────────────────────────────────────
	Script  string // -c: ';'-separated commands sent after connect
	Retries int    // extra dial attempts

	// ── SSH jump host (attach only) ──────────────────────────────────
	TunnelSpec     string    // raw -T value, [user@]host[:port]
	Jump           *JumpSpec // parsed TunnelSpec; nil attaches directly
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose   int
	TraceFile string // "-" for stderr
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LocalPort: DefaultPort,
		Prompt:    DefaultPrompt,
		Banner:    DefaultBanner,
	}
}

// ── Script helpers ───────────────────────────────────────────────────

// Commands splits Script on ';' and drops blank entries.
func (c *Config) Commands() []string {
	var out []string
	for _, part := range strings.Split(c.Script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ── Port and jump host parsing ───────────────────────────────────────

// ParsePort accepts a decimal port in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	switch {
	case err != nil:
		return 0, fmt.Errorf("invalid port %q", spec)
	case port < 1 || port > 65535:
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// JumpSpec names the SSH host an attach client tunnels through.
type JumpSpec struct {
	User string // empty uses the SSH library default
	Host string
	Port int
}

func (j JumpSpec) String() string {
	addr := net.JoinHostPort(j.Host, strconv.Itoa(j.Port))
	if j.User == "" {
		return addr
	}
	return j.User + "@" + addr
}

// ParseJumpSpec parses "[user@]host[:port]", defaulting the port to 22.
func ParseJumpSpec(spec string) (JumpSpec, error) {
	js := JumpSpec{Port: DefaultSSHPort}
	rest := spec
	if user, host, ok := strings.Cut(spec, "@"); ok {
		if user == "" {
			return JumpSpec{}, fmt.Errorf("jump host %q: empty user before '@'", spec)
		}
		js.User, rest = user, host
	}
	host, port, hasPort := strings.Cut(rest, ":")
	if host == "" || strings.Contains(host, "@") {
		return JumpSpec{}, fmt.Errorf("jump host %q: expected [user@]host[:port]", spec)
	}
	js.Host = host
	if hasPort {
		p, err := ParsePort(port)
		if err != nil {
			return JumpSpec{}, fmt.Errorf("jump host %q: %w", spec, err)
		}
		js.Port = p
	}
	return js, nil
}

// ResolveJump parses TunnelSpec into Jump.  An empty spec leaves Jump
// untouched.
func (c *Config) ResolveJump() error {
	if c.TunnelSpec == "" {
		return nil
	}
	js, err := ParseJumpSpec(c.TunnelSpec)
	if err != nil {
		return err
	}
	c.Jump = &js
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate reports the first inconsistency in c.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.checkMode,
		c.checkScript,
		c.checkJump,
		c.checkAliases,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) checkMode() error {
	if !c.Listen {
		if c.Host == "" {
			return fmt.Errorf("hostname is required (use --help for usage)")
		}
		if c.Port < 1 || c.Port > 65535 {
			return &tcerr.ConfigError{Field: "port", Value: c.Port,
				Message: "destination port is required", Hint: "tconsole <host> <port>"}
		}
		return nil
	}
	if c.LocalPort < 1 || c.LocalPort > 65535 {
		return &tcerr.ConfigError{Field: "port", Value: c.LocalPort,
			Message: "listen mode requires a port in 1-65535", Hint: "use -p <port>, e.g. -p 2180"}
	}
	if c.Script != "" {
		return fmt.Errorf("-l and -c are mutually exclusive")
	}
	return nil
}

func (c *Config) checkScript() error {
	if c.Script != "" && len(c.Commands()) == 0 {
		return &tcerr.ConfigError{Field: "command", Value: c.Script, Message: "no commands in script"}
	}
	if c.Retries < 0 {
		return &tcerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
	}
	return nil
}

func (c *Config) checkJump() error {
	switch {
	case c.Jump == nil:
		return nil
	case c.Listen:
		return fmt.Errorf("-T only applies to attach mode")
	case c.Jump.Host == "":
		return &tcerr.ConfigError{Field: "tunnel", Value: c.Jump.String(), Message: "jump host is required"}
	}
	return nil
}

func (c *Config) checkAliases() error {
	for alias, target := range c.Aliases {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(target) == "" {
			return &tcerr.ConfigError{Field: "alias", Value: alias + "=" + target,
				Message: "alias and target must be non-empty"}
		}
	}
	return nil
}
