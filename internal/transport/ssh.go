package transport

import (
	"context"
	"fmt"
	"net"

	"tconsole/internal/tunnel"
	"tconsole/util"
)

// SSHDialer reaches a console through an SSH jump host, connecting to
// the jump host on first use and again whenever it has dropped.
type SSHDialer struct {
	jump *tunnel.JumpHost
}

func NewSSHDialer(cfg tunnel.Config, logger *util.Logger) *SSHDialer {
	return &SSHDialer{jump: tunnel.NewJumpHost(cfg, logger)}
}

// Dial connects to address from the jump host's side.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.jump.Open(ctx); err != nil {
		return nil, fmt.Errorf("tunnel: %w", err)
	}
	return d.jump.Dial(ctx, network, address)
}

func (d *SSHDialer) Close() error { return d.jump.Close() }
