package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"tconsole/config"
	"tconsole/internal/executor"
	"tconsole/internal/metrics"
	"tconsole/internal/session"
	"tconsole/util"
)

// readBufs holds the per-connection read chunks.
var readBufs = util.NewBufPool(config.DefaultReadBufferSize)

// Console serves one console session per connection: it greets the
// client, feeds every read into a session.Session and polls it until
// no complete line is left.
type Console struct {
	Registry executor.Registry
	Prompt   string
	Banner   string
	NoPrompt bool
	Idle     time.Duration // read idle timeout, zero for none
	Metrics  *metrics.Collector
}

// output is the session sink: writes are counted, Close hangs up.
type output struct {
	io.Writer
	io.Closer
}

func (c *Console) Handle(ctx context.Context, ep *Endpoint) error {
	conn := ep.Conn
	c.Metrics.SessionOpened()
	defer c.Metrics.SessionClosed()

	out := &output{
		Writer: &util.CountingWriter{W: conn, Count: c.Metrics.BytesSent},
		Closer: conn,
	}
	sess := session.New(c.Registry, out,
		session.WithLogger(ep.Logger),
		session.WithMetrics(c.Metrics),
		session.WithClosed(func() bool { return ctx.Err() != nil }),
	)
	ep.Logger.Verbose("session %s opened for %s", sess.SessionID(), conn.RemoteAddr())
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if !c.NoPrompt {
		if _, err := io.WriteString(out, c.Banner+c.Prompt); err != nil {
			return fmt.Errorf("greet: %w", err)
		}
	}

	buf := readBufs.Get()
	defer readBufs.Put(buf)

	for {
		if c.Idle > 0 {
			conn.SetReadDeadline(time.Now().Add(c.Idle)) //nolint:errcheck
		}
		n, err := conn.Read(*buf)
		if n > 0 {
			c.Metrics.BytesReceived(int64(n))
			sess.Feed((*buf)[:n])

			handled := false
			for sess.TryReceiveEvent(ctx) {
				handled = true
			}
			if sess.Closed() {
				ep.Logger.Verbose("session %s closed after %d command(s)", sess.SessionID(), sess.Counter())
				return nil
			}
			if handled && !sess.Pending() && !c.NoPrompt {
				io.WriteString(out, c.Prompt) //nolint:errcheck
			}
		}
		if err != nil {
			return c.readDone(ctx, ep, sess, err)
		}
	}
}

// readDone maps the error that ended the read loop.
func (c *Console) readDone(ctx context.Context, ep *Endpoint, sess *session.Session, err error) error {
	switch {
	case ctx.Err() != nil, sess.Closed():
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		ep.Logger.Verbose("session %s idle for %s, hanging up", sess.SessionID(), c.Idle)
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		ep.Logger.Verbose("session %s: client left", sess.SessionID())
		return nil
	}
	return fmt.Errorf("session %s read: %w", sess.SessionID(), err)
}
