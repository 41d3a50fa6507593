package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// QuitCommand is appended to every script so the console closes the
// connection once the script has run.
const QuitCommand = "quit"

// Script sends a fixed list of console commands, then quit, and copies
// everything the console answers to stdout until it hangs up.
type Script struct {
	Commands []string
}

// Payload returns the bytes written to the console.
func (s *Script) Payload() string {
	var b strings.Builder
	for _, c := range s.Commands {
		b.WriteString(c)
		b.WriteString("\r\n")
	}
	b.WriteString(QuitCommand + "\r\n")
	return b.String()
}

func (s *Script) Handle(ctx context.Context, ep *Endpoint) error {
	stop := context.AfterFunc(ctx, func() { ep.Conn.Close() })
	defer stop()

	ep.Logger.Verbose("sending %d command(s)", len(s.Commands))
	if _, err := io.WriteString(ep.Conn, s.Payload()); err != nil {
		return fmt.Errorf("send script: %w", err)
	}

	_, err := io.Copy(ep.Stdout, ep.Conn)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read responses: %w", err)
	}
	return ctx.Err()
}
