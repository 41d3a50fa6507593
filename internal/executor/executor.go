// Package executor defines what a console command does.  Each
// Executor encapsulates a single behaviour (quit the session, store an
// attribute, print help, …) and operates on a session Context rather
// than on a raw connection, which keeps executors testable and
// decoupled from the transport.
package executor

import (
	"context"
	"io"

	"tconsole/internal/command"
)

// Executor runs one console command.
type Executor interface {
	// Execute handles cmd for the session behind sc.  The returned
	// body is serialised into the response envelope; a nil body is
	// written as null.  A returned error is reported to the client as
	// a fault and does not end the session.
	//
	// Execute may block (the quit command sleeps through its
	// countdown); the session does not regain control until it returns.
	Execute(ctx context.Context, sc Context, cmd *command.Command) (any, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, sc Context, cmd *command.Command) (any, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, sc Context, cmd *command.Command) (any, error) {
	return f(ctx, sc, cmd)
}

// MultiLine is implemented by executors that read a body block: the
// lines following the command up to the first empty line.
type MultiLine interface {
	MultiLine(cmd *command.Command) bool
}

// Helper is implemented by executors that describe themselves to the
// help command.
type Helper interface {
	Help() string
}

// Context is the session state visible to an executor.
type Context interface {
	// SessionID is the immutable identifier assigned at session start.
	SessionID() string

	// Counter is the number of commands dispatched so far, including
	// the one currently executing.
	Counter() int64

	// Writer accepts free-form output that bypasses envelope framing.
	Writer() io.Writer

	// RequestClose runs the close protocol: with afterSeconds > 0 it
	// prints a countdown, sleeping one second per line, then prints
	// "bye." and closes the session's output.
	RequestClose(afterSeconds int) error

	// Attr and SetAttr access per-session string attributes.
	Attr(key string) (string, bool)
	SetAttr(key, value string)
	Attrs() map[string]string

	// Registry is the command table the session dispatches through.
	Registry() Registry
}
