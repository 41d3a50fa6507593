// Package session implements the per-connection console state
// machine.  A Session buffers raw input, turns complete lines into
// commands, dispatches each one to its executor and writes the framed
// response.
//
// Sessions are poll driven: the transport feeds bytes with Feed and
// then calls TryReceiveEvent until it reports no event.  Each call
// handles at most one line and runs the executor to completion on the
// caller's goroutine, so a Session needs no locking as long as a
// single goroutine drives it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tconsole/internal/command"
	tcerr "tconsole/internal/errors"
	"tconsole/internal/executor"
	"tconsole/internal/metrics"
	"tconsole/internal/tracing"
	"tconsole/util"
)

// Session is the console state for a single connection.
type Session struct {
	id       string
	registry executor.Registry
	parser   *command.Parser
	out      io.WriteCloser
	counter  int64
	attrs    map[string]string
	pending  *pendingCommand

	closeOnce sync.Once
	outClosed bool
	closedFn  func() bool

	logger  *util.Logger
	metrics *metrics.Collector
}

var _ executor.Context = (*Session)(nil)

// pendingCommand is a multi-line command waiting for its body block.
type pendingCommand struct {
	cmd  *command.Command
	exec executor.Executor
}

// Option customises a Session.
type Option func(*Session)

// WithID overrides the generated session identifier.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger sets the logger; sessions log under "session <id>".
func WithLogger(l *util.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMetrics reports dispatch counters to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) { s.metrics = c }
}

// WithClosed adds a transport-side closed check, e.g. a torn-down
// connection.  The session is closed when either it or the close
// protocol says so.
func WithClosed(fn func() bool) Option {
	return func(s *Session) { s.closedFn = fn }
}

// New creates an open Session that resolves commands through reg and
// writes responses to out.  out is closed by the close protocol only.
func New(reg executor.Registry, out io.WriteCloser, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		registry: reg,
		parser:   command.NewParser(),
		out:      out,
		attrs:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = util.NewLogger(0)
	}
	s.logger = s.logger.Named("session " + shortID(s.id))
	return s
}

// Feed appends raw input received from the transport.
func (s *Session) Feed(p []byte) { s.parser.Feed(p) }

// Buffered returns the number of input bytes not yet consumed.
func (s *Session) Buffered() int { return s.parser.Buffered() }

// Pending reports whether a multi-line command is waiting for the rest
// of its body.
func (s *Session) Pending() bool { return s.pending != nil }

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	if s.outClosed {
		return true
	}
	return s.closedFn != nil && s.closedFn()
}

// TryReceiveEvent runs one poll cycle.  It returns false when there is
// nothing to do: the session is closed or no complete line is
// buffered.  Otherwise it consumes one line, dispatches it if it names
// a command, and returns true.
//
// Executor faults never escape; they are written to the client and the
// session stays open.
func (s *Session) TryReceiveEvent(ctx context.Context) bool {
	if s.Closed() {
		return false
	}
	if s.pending != nil {
		return s.receiveBody(ctx)
	}

	cmd, ok := s.parser.Next()
	if !ok {
		return false
	}
	if cmd == nil {
		return true
	}

	exec, found := s.registry.Resolve(cmd.Name)
	if !found {
		s.metrics.BadCommand()
		s.logger.Debug("bad command %q", cmd.Name)
		if err := WriteBadCommand(s.out, cmd.Name); err != nil {
			s.logger.Verbose("write: %v", err)
		}
		return true
	}

	if ml, ok := exec.(executor.MultiLine); ok && ml.MultiLine(cmd) {
		s.pending = &pendingCommand{cmd: cmd, exec: exec}
		s.receiveBody(ctx)
		return true
	}

	s.dispatch(ctx, cmd, exec)
	return true
}

// receiveBody completes a pending multi-line command once its block
// terminator has arrived.
func (s *Session) receiveBody(ctx context.Context) bool {
	block, ok := s.parser.NextBlock()
	if !ok {
		return false
	}
	p := s.pending
	s.pending = nil
	if p.cmd.Body != "" {
		p.cmd.Body += "\n" + block
	} else {
		p.cmd.Body = block
	}
	s.dispatch(ctx, p.cmd, p.exec)
	return true
}

func (s *Session) dispatch(ctx context.Context, cmd *command.Command, exec executor.Executor) {
	s.counter++
	s.metrics.CommandExecuted()
	s.logger.Debug("#%d %s %s", s.counter, cmd.Name, cmd.Args)

	ctx, span := tracing.StartCommand(ctx, s.id, cmd.Name, s.counter)
	res := s.invoke(ctx, cmd, exec)
	tracing.End(span, res.fault)

	if s.outClosed {
		if res.fault != nil {
			s.logger.Verbose("%s after close: %v", cmd.Name, res.fault)
		}
		return
	}

	if res.fault != nil {
		s.metrics.RecordFault(res.fault.Error())
		s.logger.Warn("%s: %v", cmd.Name, res.fault)
	}
	if _, werr := s.out.Write(res.out); werr != nil {
		s.logger.Verbose("write: %v", werr)
	}
}

// outcome is what a dispatched command leaves for the client: the
// framed envelope, or the rendered fault when fault is set.
type outcome struct {
	out   []byte
	fault error
}

// invoke runs exec and renders its result.  A panic anywhere in
// between, including in the body's JSON encoding, becomes a
// PanicError.
func (s *Session) invoke(ctx context.Context, cmd *command.Command, exec executor.Executor) (res outcome) {
	defer func() {
		if r := recover(); r != nil {
			res = renderFault(&tcerr.PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	body, err := exec.Execute(ctx, s, cmd)
	if err == nil && !s.outClosed {
		res.out, err = EncodeEnvelope(cmd, body)
	}
	if err != nil {
		return renderFault(err)
	}
	return res
}

// renderFault formats err.  When err's own methods panic, as a typed
// nil error does, that panic is reported instead.
func renderFault(err error) (res outcome) {
	defer func() {
		if r := recover(); r != nil {
			pe := &tcerr.PanicError{Value: r, Stack: debug.Stack()}
			res = outcome{
				out:   []byte(fmt.Sprintf("%s: %v\r\n%s", pe.FaultType(), r, pe.Stack)),
				fault: pe,
			}
		}
	}()
	return outcome{out: []byte(FormatFault(err)), fault: err}
}

// ── executor.Context ─────────────────────────────────────────────────

// SessionID returns the identifier assigned at construction.
func (s *Session) SessionID() string { return s.id }

// Counter returns the number of dispatched commands.
func (s *Session) Counter() int64 { return s.counter }

// Writer returns the session output for free-form text.
func (s *Session) Writer() io.Writer { return s.out }

// Registry returns the command table.
func (s *Session) Registry() executor.Registry { return s.registry }

// Attr returns a session attribute.
func (s *Session) Attr(key string) (string, bool) {
	v, ok := s.attrs[key]
	return v, ok
}

// SetAttr stores a session attribute.
func (s *Session) SetAttr(key, value string) { s.attrs[key] = value }

// Attrs returns a copy of all session attributes.
func (s *Session) Attrs() map[string]string {
	out := make(map[string]string, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// RequestClose runs the close protocol.  For afterSeconds > 0 it
// writes "exit after K seconds." for K counting down to 1, sleeping a
// real second after each line.  It then writes "bye." and closes the
// output exactly once.
func (s *Session) RequestClose(afterSeconds int) error {
	if s.outClosed {
		return tcerr.ErrSessionClosed
	}
	s.logger.Verbose("close requested, countdown %ds", max(afterSeconds, 0))

	var werr error
	for k := afterSeconds; k > 0; k-- {
		if _, werr = fmt.Fprintf(s.out, "exit after %d seconds.\r\n", k); werr != nil {
			break
		}
		time.Sleep(time.Second)
	}
	if werr == nil {
		_, werr = io.WriteString(s.out, "bye.\n")
	}
	return errors.Join(werr, s.closeOutput())
}

func (s *Session) closeOutput() error {
	var err error
	s.closeOnce.Do(func() {
		s.outClosed = true
		err = s.out.Close()
		s.logger.Verbose("closed after %d command(s)", s.counter)
	})
	return err
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
