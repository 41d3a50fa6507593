package executor

import (
	"context"
	"fmt"
	"strings"

	"tconsole/internal/command"
	tcerr "tconsole/internal/errors"
)

// NewBuiltins returns a Table holding the standard console commands.
func NewBuiltins() *Table {
	t := NewTable()
	mustRegister(t, Quit{}, "quit", "exit", "close")
	mustRegister(t, Help{}, "help")
	mustRegister(t, Set{}, "set")
	mustRegister(t, Get{}, "get")
	mustRegister(t, Info{}, "session")
	mustRegister(t, Echo{}, "echo")
	return t
}

func mustRegister(t *Table, exec Executor, names ...string) {
	if err := t.Register(exec, names...); err != nil {
		panic(err)
	}
}

// ── help ─────────────────────────────────────────────────────────────

// Help lists the registered commands, or describes one of them.
type Help struct{}

func (Help) Help() string { return "list commands, or show help for one: help <name>" }

func (Help) Execute(_ context.Context, sc Context, cmd *command.Command) (any, error) {
	reg := sc.Registry()

	if len(cmd.Positional) > 0 {
		name := cmd.Positional[0]
		exec, ok := reg.Resolve(name)
		if !ok {
			return nil, fmt.Errorf("%q: %w", name, tcerr.ErrUnknownCommand)
		}
		return name + " - " + helpLine(exec), nil
	}

	names := reg.Names()
	width := 0
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}
	var sb strings.Builder
	for _, n := range names {
		exec, _ := reg.Resolve(n)
		fmt.Fprintf(&sb, " - %-*s  %s\n", width, n, helpLine(exec))
	}
	return sb.String(), nil
}

func helpLine(exec Executor) string {
	if h, ok := exec.(Helper); ok {
		return h.Help()
	}
	return "(no help)"
}

// ── set / get ────────────────────────────────────────────────────────

var errNoPairs = tcerr.New("expected key=value arguments")

// Set stores every key=value argument as a session attribute.
type Set struct{}

func (Set) Help() string { return "store session attributes: set k1=v1 k2=v2" }

func (Set) Execute(_ context.Context, sc Context, cmd *command.Command) (any, error) {
	if cmd.Args.Len() == 0 {
		return nil, tcerr.WrapCommand(cmd.Name, errNoPairs)
	}
	for _, a := range cmd.Args.Pairs() {
		sc.SetAttr(a.Key, a.Value)
	}
	return nil, nil
}

// Get returns the named session attributes, or all of them.
type Get struct{}

func (Get) Help() string { return "show session attributes: get [key ...]" }

func (Get) Execute(_ context.Context, sc Context, cmd *command.Command) (any, error) {
	if len(cmd.Positional) == 0 {
		return sc.Attrs(), nil
	}
	out := make(map[string]string, len(cmd.Positional))
	for _, k := range cmd.Positional {
		if v, ok := sc.Attr(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

// ── session ──────────────────────────────────────────────────────────

// SessionInfo is the body returned by the session command.
type SessionInfo struct {
	ID      string `json:"id"`
	Counter int64  `json:"counter"`
}

// Info reports the session identifier and command counter.
type Info struct{}

func (Info) Help() string { return "show the session id and command counter" }

func (Info) Execute(_ context.Context, sc Context, _ *command.Command) (any, error) {
	return SessionInfo{ID: sc.SessionID(), Counter: sc.Counter()}, nil
}

// ── echo ─────────────────────────────────────────────────────────────

// Echo returns its text.  With no arguments at all it reads a block
// of lines terminated by an empty line.
type Echo struct{}

func (Echo) Help() string { return "echo text; with no text, echo the following lines up to an empty line" }

// MultiLine implements [MultiLine].
func (Echo) MultiLine(cmd *command.Command) bool { return len(cmd.Tokens) == 0 }

func (Echo) Execute(_ context.Context, _ Context, cmd *command.Command) (any, error) {
	return cmd.Body, nil
}
