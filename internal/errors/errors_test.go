package errors

import (
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestDial_Classifies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, true},
		{"timeout", fmt.Errorf("read: %w", os.ErrDeadlineExceeded), true},
		{"temporary dns", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"unknown host", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"dial op", &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("no route")}, true},
		{"read op", &net.OpError{Op: "read", Net: "tcp", Err: io.ErrUnexpectedEOF}, false},
		{"plain", io.EOF, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := Dial("console.internal:2180", tt.err)
			if de.Transient != tt.want {
				t.Errorf("Transient = %v, want %v", de.Transient, tt.want)
			}
			if IsRetryable(de) != tt.want {
				t.Errorf("IsRetryable = %v, want %v", IsRetryable(de), tt.want)
			}
			if !Is(de, tt.err) {
				t.Error("DialError should unwrap to its cause")
			}
		})
	}
}

func TestDialError_Format(t *testing.T) {
	de := &DialError{Addr: "10.0.0.1:2180", Err: syscall.ECONNREFUSED, Transient: true}
	if got, want := de.Error(), "dial 10.0.0.1:2180: connection refused (will retry)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	de.Transient = false
	if got, want := de.Error(), "dial 10.0.0.1:2180: connection refused"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsRetryable_AuthNever(t *testing.T) {
	err := JumpHost("handshake", "bastion", 22, fmt.Errorf("%w: no keys", ErrAuthFailed))
	if IsRetryable(err) {
		t.Error("auth failure should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if got, want := err.Error(), "jump host bastion:22: handshake: authentication failed: no keys"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		err  ConfigError
		want string
	}{
		{
			ConfigError{Field: "port", Value: 0, Message: "listen mode requires a port in 1-65535", Hint: "use -p <port>, e.g. -p 2180"},
			"config: --port=0: listen mode requires a port in 1-65535\n  hint: use -p <port>, e.g. -p 2180",
		},
		{
			ConfigError{Field: "alias", Message: "alias and target must be non-empty"},
			"config: --alias: alias and target must be non-empty",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
		}
	}
}

func TestWrapCommand(t *testing.T) {
	if WrapCommand("set", nil) != nil {
		t.Error("WrapCommand(nil) should be nil")
	}
	inner := New("expected key=value arguments")
	err := WrapCommand("set", inner)
	if got := err.Error(); got != "set: expected key=value arguments" {
		t.Errorf("got %q", got)
	}
	if !Is(err, inner) {
		t.Error("should unwrap to inner error")
	}
}

func TestPanicError(t *testing.T) {
	pe := &PanicError{Value: "boom"}
	if pe.Error() != "boom" || pe.FaultType() != "panic" || pe.Unwrap() != nil {
		t.Errorf("string panic: %q %q %v", pe.Error(), pe.FaultType(), pe.Unwrap())
	}

	pe = &PanicError{Value: io.ErrUnexpectedEOF}
	if !Is(pe, io.ErrUnexpectedEOF) {
		t.Error("error panic value should unwrap")
	}
}
