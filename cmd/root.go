// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"tconsole/config"
	"tconsole/internal/core"
	"tconsole/internal/tracing"
	"tconsole/util"
)

// version is set at link time with -ldflags "-X tconsole/cmd.version=…".
var version = "0.3.0" //nolint:gochecknoglobals

// stdout is where --version, --dry-run and usage are printed.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// cliOptions are flags that steer the CLI rather than configure a mode.
type cliOptions struct {
	timeoutSec  int
	configFile  string
	aliases     map[string]string
	dryRun      bool
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs the selected tconsole mode.
//
// Settings are layered defaults < --config file < TCONSOLE_* env <
// flags: the flag set is parsed once to find --config and the
// informational flags, then again on top of the file and env values.
func Execute(ctx context.Context, args []string) error {
	pre, preOpts := newFlagSet(config.New())
	if err := pre.Parse(args); err != nil {
		return err
	}
	if preOpts.showHelp || len(args) == 0 {
		printUsage(pre)
		return nil
	}
	if preOpts.showVersion {
		fmt.Fprintf(stdout, "tconsole %s\n", version)
		return nil
	}

	cfg := config.New()
	if preOpts.configFile != "" {
		if err := config.LoadFile(cfg, preOpts.configFile); err != nil {
			return err
		}
		cfg.ConfigFile = preOpts.configFile
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}

	envVerbose := cfg.Verbose // CountVarP resets its target
	fs, opts := newFlagSet(cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}
	if fs.Changed("timeout") {
		cfg.Timeout = time.Duration(opts.timeoutSec) * time.Second
	}
	for alias, target := range opts.aliases {
		if cfg.Aliases == nil {
			cfg.Aliases = make(map[string]string)
		}
		cfg.Aliases[alias] = target
	}

	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}
	if err := cfg.ResolveJump(); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	logger.SetTimestamps(cfg.Listen)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	if opts.dryRun {
		fmt.Fprintf(stdout, "tconsole: would %s\n", core.Describe(mode))
		return nil
	}

	if cfg.TraceFile != "" {
		shutdown, err := startTracing(cfg.TraceFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("trace shutdown: %v", err)
			}
		}()
	}

	return mode.Run(ctx)
}

// newFlagSet binds every flag to cfg, using cfg's current values as
// the defaults.
func newFlagSet(cfg *config.Config) (*flag.FlagSet, *cliOptions) {
	opts := &cliOptions{timeoutSec: int(cfg.Timeout / time.Second)}
	fs := flag.NewFlagSet("tconsole", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// ── serve ────────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Serve consoles")
	fs.IntVarP(&cfg.LocalPort, "port", "p", cfg.LocalPort, "Listen port")
	fs.StringVarP(&cfg.BindAddress, "bind", "b", cfg.BindAddress, "Listen address (default all interfaces)")
	fs.IntVarP(&opts.timeoutSec, "timeout", "w", opts.timeoutSec, "Idle timeout per connection in seconds")
	fs.StringVar(&cfg.Prompt, "prompt", cfg.Prompt, "Prompt written after each handled line")
	fs.BoolVar(&cfg.NoPrompt, "no-prompt", cfg.NoPrompt, "Write neither banner nor prompt")
	fs.StringToStringVar(&opts.aliases, "alias", nil, "Extra command name, e.g. --alias bye=quit (repeatable)")

	// ── attach ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.Script, "command", "c", cfg.Script, "Run ';'-separated console commands, then quit")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Extra dial attempts while the console is unreachable")
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only, no DNS resolution")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Attach through SSH jump host [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.StringVar(&cfg.TraceFile, "trace", cfg.TraceFile, "Write command spans to FILE ('-' for stderr)")

	// ── CLI ──────────────────────────────────────────────────────
	fs.StringVar(&opts.configFile, "config", "", "YAML config file")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Validate configuration and print the plan")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show this help")

	return fs, opts
}

// parsePositional takes "[port]" in listen mode and "<host> <port>"
// when attaching.  An attach without arguments needs the host from the
// config file or environment and dials the configured port.
func parsePositional(cfg *config.Config, args []string) error {
	if cfg.Listen {
		switch len(args) {
		case 0:
			return nil
		case 1:
			return setPort(&cfg.LocalPort, args[0])
		}
		return fmt.Errorf("listen mode takes at most a port, got %q", args)
	}

	switch len(args) {
	case 0:
		if cfg.Host == "" {
			return fmt.Errorf("hostname required (use --help for usage)")
		}
		cfg.Port = cfg.LocalPort
		return nil
	case 1:
		return fmt.Errorf("port required after %q", args[0])
	case 2:
		cfg.Host = args[0]
		return setPort(&cfg.Port, args[1])
	}
	return fmt.Errorf("expected <host> <port>, got %d arguments", len(args))
}

func setPort(dst *int, arg string) error {
	port, err := config.ParsePort(arg)
	if err != nil {
		return fmt.Errorf("port: %w", err)
	}
	*dst = port
	return nil
}

func startTracing(path string) (tracing.ShutdownFunc, error) {
	if path == "-" {
		return tracing.Init("tconsole", version, os.Stderr)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	shutdown, err := tracing.Init("tconsole", version, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stdout, `tConsole – line-oriented maintenance console v%s

Serves a telnet-style command console, or attaches to one.

Usage:
  tconsole -l [-p <port>] [options]           Serve consoles
  tconsole [options] <host> <port>            Attach interactively
  tconsole -c "cmd1; cmd2" <host> <port>      Run commands, then quit
  tconsole -T user@gateway <host> <port>      Attach through SSH

Options:
`, version)
	fs.SetOutput(stdout)
	fs.PrintDefaults()
	fmt.Fprintf(stdout, `
Console commands:
  help [name]                                 List commands
  set k1=v1 k2=v2 / get [key...]              Session attributes
  session                                     Session id and counter
  quit | exit | close [-t N]                  Leave, optionally after N seconds

Examples:
  tconsole -l -p 2180 -w 300                  Serve with a 5 minute idle timeout
  tconsole localhost 2180                     Attach
  tconsole -c "set a=1; get a" localhost 2180 Scripted session
  TCONSOLE_PORT=9000 tconsole -l              Port from the environment
`)
}
