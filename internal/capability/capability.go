// Package capability defines what happens over an established
// connection: serving a console session, relaying a terminal to a
// remote console, or running a command script against one.
package capability

import (
	"context"
	"io"
	"net"

	"tconsole/util"
)

// Endpoint is one established connection together with the local I/O
// it is served against.
type Endpoint struct {
	Conn   net.Conn
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger
}

// NewEndpoint bundles conn with local I/O.
func NewEndpoint(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Endpoint {
	return &Endpoint{Conn: conn, Stdin: stdin, Stdout: stdout, Logger: logger}
}

// Capability handles a single connection.  Handle blocks until the
// connection is done or ctx is cancelled.
type Capability interface {
	Handle(ctx context.Context, ep *Endpoint) error
}
