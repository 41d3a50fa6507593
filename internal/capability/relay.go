package capability

import (
	"context"

	"tconsole/util"
)

// Relay connects the local terminal to a remote console until either
// side closes.
type Relay struct{}

// Handle shuttles bytes between the connection and the endpoint's
// stdin/stdout.
func (r *Relay) Handle(ctx context.Context, ep *Endpoint) error {
	return util.RelayConn(ctx, ep.Conn, ep.Stdin, ep.Stdout)
}
