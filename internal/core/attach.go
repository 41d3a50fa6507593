package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/term"

	"tconsole/internal/capability"
	"tconsole/internal/retry"
	"tconsole/internal/transport"
	"tconsole/util"
)

// AttachMode dials a remote console and runs a capability (an
// interactive relay or a command script) on the connection.
type AttachMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Network    string
	Address    string
	Backoff    *retry.Backoff // nil dials once
	Logger     *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *AttachMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *AttachMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the console, retrying per Backoff, and hands the
// connection to the capability.  The transport is closed when Run
// returns.
func (m *AttachMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("attach to %s: %w", m.Address, err)
	}
	defer conn.Close()

	m.Logger.Verbose("attached to %s", conn.RemoteAddr())
	if _, relay := m.Capability.(*capability.Relay); relay && m.Stdin == nil && term.IsTerminal(int(os.Stdin.Fd())) {
		m.Logger.Info("attached to %s – type 'help' to list commands, 'quit' to leave", m.Address)
	}

	ep := capability.NewEndpoint(conn, m.stdin(), m.stdout(), m.Logger)
	return m.Capability.Handle(ctx, ep)
}

func (m *AttachMode) dial(ctx context.Context) (net.Conn, error) {
	if m.Backoff == nil {
		return m.Dialer.Dial(ctx, m.Network, m.Address)
	}

	var conn net.Conn
	err := m.Backoff.Do(ctx, func(attempt int) error {
		m.Logger.Debug("dial %s attempt %d", m.Address, attempt)
		c, err := m.Dialer.Dial(ctx, m.Network, m.Address)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}

// logRetry is the Backoff.OnRetry hook used by Build.
func logRetry(logger *util.Logger, address string) func(int, error, time.Duration) {
	return func(attempt int, err error, wait time.Duration) {
		logger.Warn("attempt %d to reach %s failed: %v (retrying in %s)",
			attempt, address, err, wait.Round(time.Millisecond))
	}
}
