package core

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tconsole/internal/capability"
	"tconsole/internal/executor"
	"tconsole/internal/retry"
	"tconsole/internal/session"
	"tconsole/internal/transport"
	"tconsole/util"
)

// TestAttachMode_Relay verifies an interactive attach copies the
// console's output to stdout.
func TestAttachMode_Relay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("welcome\r\ntConsole>")) //nolint:errcheck
	}()

	output := &bytes.Buffer{}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	mode := &AttachMode{
		Dialer:     &transport.TCPDialer{Timeout: 2 * time.Second},
		Capability: &capability.Relay{},
		Network:    "tcp",
		Address:    ln.Addr().String(),
		Logger:     util.NewLogger(0),
		Stdin:      bytes.NewBufferString(""),
		Stdout:     output,
	}

	if err := mode.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := output.String(); got != "welcome\r\ntConsole>" {
		t.Errorf("output = %q", got)
	}
}

// TestAttachMode_ScriptAgainstServe runs -c against a real ServeMode.
func TestAttachMode_ScriptAgainstServe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ready := make(chan net.Addr, 1)
	serve := &ServeMode{
		Address:    "127.0.0.1:0",
		Capability: &capability.Console{Registry: executor.NewBuiltins(), NoPrompt: true},
		Logger:     util.NewLogger(0),
		Ready:      ready,
	}
	go serve.Run(ctx) //nolint:errcheck
	addr := <-ready

	output := &bytes.Buffer{}
	mode := &AttachMode{
		Dialer:     &transport.TCPDialer{Timeout: time.Second},
		Capability: &capability.Script{Commands: []string{"set name=abc", "get name"}},
		Network:    "tcp",
		Address:    addr.String(),
		Logger:     util.NewLogger(0),
		Stdout:     output,
	}
	if err := mode.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	parts := strings.Split(output.String(), session.Delimiter)
	if len(parts) != 3 {
		t.Fatalf("output = %q", output.String())
	}
	if parts[1] != `{"name":"get","args":"","body":{"name":"abc"}}` {
		t.Errorf("get = %q", parts[1])
	}
	if parts[2] != "bye.\n" {
		t.Errorf("tail = %q", parts[2])
	}
}

// flakyDialer fails the first n dials with a retryable error.
type flakyDialer struct {
	fail  int32
	calls atomic.Int32
	inner transport.Dialer
}

func (d *flakyDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if d.calls.Add(1) <= d.fail {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
	}
	return d.inner.Dial(ctx, network, address)
}

func (d *flakyDialer) Close() error { return nil }

func TestAttachMode_RetriesDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	d := &flakyDialer{fail: 2, inner: &transport.TCPDialer{Timeout: time.Second}}
	retries := 0
	b := retry.Attempts(2, time.Millisecond, 5*time.Millisecond)
	b.OnRetry = func(int, error, time.Duration) { retries++ }

	mode := &AttachMode{
		Dialer:     d,
		Capability: &capability.Relay{},
		Network:    "tcp",
		Address:    ln.Addr().String(),
		Backoff:    b,
		Logger:     util.NewLogger(0),
		Stdin:      bytes.NewBufferString(""),
		Stdout:     &bytes.Buffer{},
	}
	if err := mode.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.calls.Load() != 3 || retries != 2 {
		t.Errorf("calls = %d, retries = %d; want 3 and 2", d.calls.Load(), retries)
	}
}

func TestAttachMode_GivesUp(t *testing.T) {
	d := &flakyDialer{fail: 100}
	mode := &AttachMode{
		Dialer:     d,
		Capability: &capability.Relay{},
		Network:    "tcp",
		Address:    "127.0.0.1:1",
		Backoff:    retry.Attempts(1, time.Millisecond, time.Millisecond),
		Logger:     util.NewLogger(0),
	}
	err := mode.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "attach to 127.0.0.1:1") {
		t.Errorf("error = %v", err)
	}
	if d.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", d.calls.Load())
	}
}
