package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultPort is the console listen port.
	DefaultPort = 2180

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultPrompt is written after each handled line.
	DefaultPrompt = "tConsole>"

	// DefaultBanner greets a new connection.
	DefaultBanner = "Welcome to tConsole!\r\n - type 'help' to list commands, 'quit' to leave.\r\n"

	// DefaultReadBufferSize is the per-read chunk for client input.
	DefaultReadBufferSize = 4 * 1024

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRetryDelay is the first backoff delay for attach dials.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the attach dial backoff.
	DefaultMaxRetryDelay = 10 * time.Second

	// DefaultGracePeriod is how long shutdown waits for sessions.
	DefaultGracePeriod = 5 * time.Second
)
