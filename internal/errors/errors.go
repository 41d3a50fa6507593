// Package errors holds the error values the console hands between
// layers: registry and session sentinels, structured dial, jump-host,
// configuration and command failures, and recovered executor panics.
package errors

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

var (
	ErrSessionClosed    = errors.New("session is closed")
	ErrNotConnected     = errors.New("not connected")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrDuplicateCommand = errors.New("command already registered")
	ErrUnknownCommand   = errors.New("unknown command")
)

// ── attach side ──────────────────────────────────────────────────────

// DialError is a failed attempt to reach a console or a jump host.
// Transient is set when another attempt may succeed.
type DialError struct {
	Addr      string
	Err       error
	Transient bool
}

func (e *DialError) Error() string {
	if e.Transient {
		return fmt.Sprintf("dial %s: %v (will retry)", e.Addr, e.Err)
	}
	return fmt.Sprintf("dial %s: %v", e.Addr, e.Err)
}

func (e *DialError) Unwrap() error { return e.Err }

// Dial wraps a dial failure and classifies it.
func Dial(addr string, err error) *DialError {
	return &DialError{Addr: addr, Err: err, Transient: transient(err)}
}

// JumpHostError is a failure while setting up or using an SSH jump
// host.  Stage is one of "auth", "hostkey" or "handshake".
type JumpHostError struct {
	Stage string
	Host  string
	Port  int
	Err   error
}

func (e *JumpHostError) Error() string {
	return fmt.Sprintf("jump host %s:%d: %s: %v", e.Host, e.Port, e.Stage, e.Err)
}

func (e *JumpHostError) Unwrap() error { return e.Err }

// JumpHost wraps err with the jump host and stage it came from.
func JumpHost(stage, host string, port int, err error) *JumpHostError {
	return &JumpHostError{Stage: stage, Host: host, Port: port, Err: err}
}

// IsRetryable reports whether an attach dial that failed with err is
// worth another attempt.  Authentication and host-key failures never
// are.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrAuthFailed) {
		return false
	}
	var de *DialError
	if errors.As(err, &de) {
		return de.Transient
	}
	return transient(err)
}

func transient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, os.ErrDeadlineExceeded):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	// Any other failure to open a connection: the console may still be
	// starting.
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// ── configuration ────────────────────────────────────────────────────

// ConfigError is a rejected setting.  Field is the flag name without
// dashes; Value is nil when the setting is missing.
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
	Hint    string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config: --" + e.Field)
	if e.Value != nil {
		fmt.Fprintf(&b, "=%v", e.Value)
	}
	b.WriteString(": " + e.Message)
	if e.Hint != "" {
		b.WriteString("\n  hint: " + e.Hint)
	}
	return b.String()
}

// ── console commands ─────────────────────────────────────────────────

// CommandError ties a failure to the console command that raised it.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string { return e.Command + ": " + e.Err.Error() }

func (e *CommandError) Unwrap() error { return e.Err }

// WrapCommand returns nil for a nil err.
func WrapCommand(name string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: name, Err: err}
}

// PanicError carries a value recovered from a panicking executor.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprint(e.Value) }

// FaultType names the fault in console output.
func (e *PanicError) FaultType() string { return "panic" }

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ── stdlib passthroughs ──────────────────────────────────────────────

func As(err error, target interface{}) bool { return errors.As(err, target) }
func Is(err, target error) bool             { return errors.Is(err, target) }
func New(text string) error                 { return errors.New(text) }
func Unwrap(err error) error                { return errors.Unwrap(err) }
func Join(errs ...error) error              { return errors.Join(errs...) }
