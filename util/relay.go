package util

import (
	"context"
	"errors"
	"io"
	"net"
)

// closeWriter is a connection that can shut down its sending half.
// TCP sockets and SSH channels both can.
type closeWriter interface {
	CloseWrite() error
}

// RelayConn copies conn to out and in to conn until the console hangs
// up or ctx is cancelled.  When in runs dry only the sending half is
// closed, so responses to the last commands still arrive.
//
// A copy still blocked reading in (a terminal, typically) is not
// waited for; it ends on its next read.
func RelayConn(ctx context.Context, conn net.Conn, in io.Reader, out io.Writer) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sent := make(chan error, 1)
	go func() {
		_, err := io.Copy(conn, in)
		if err != nil {
			conn.Close()
		} else if cw, ok := conn.(closeWriter); ok {
			cw.CloseWrite() //nolint:errcheck
		}
		sent <- err
	}()

	_, recvErr := io.Copy(out, conn)
	conn.Close()

	var sendErr error
	select {
	case sendErr = <-sent:
	default:
	}

	for _, err := range []error{recvErr, sendErr} {
		if !endOfStream(err) {
			return err
		}
	}
	return nil
}

// endOfStream reports whether err only says that one side is done.
func endOfStream(err error) bool {
	return err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}
