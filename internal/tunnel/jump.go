package tunnel

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/ssh"

	tcerr "tconsole/internal/errors"
	"tconsole/util"
)

// keepAliveRequest is the global request OpenSSH servers answer
// without side effects.
const keepAliveRequest = "keepalive@openssh.com"

// JumpHost is one SSH client connection to a jump host.  Open is
// idempotent and reconnects once the previous connection has dropped.
type JumpHost struct {
	cfg    Config
	logger *util.Logger

	opening sync.Mutex
	client  atomic.Pointer[ssh.Client] // nil while down
}

func NewJumpHost(cfg Config, logger *util.Logger) *JumpHost {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &JumpHost{cfg: cfg, logger: logger.Named("jump")}
}

// Up reports whether a connection to the jump host is established.
func (j *JumpHost) Up() bool { return j.client.Load() != nil }

// Open connects and authenticates unless already up.
func (j *JumpHost) Open(ctx context.Context) error {
	j.opening.Lock()
	defer j.opening.Unlock()
	if j.Up() {
		return nil
	}

	client, err := j.handshake(ctx)
	if err != nil {
		return err
	}
	j.client.Store(client)
	go j.supervise(client)
	return nil
}

func (j *JumpHost) handshake(ctx context.Context) (*ssh.Client, error) {
	fail := func(stage string, err error) error {
		return tcerr.JumpHost(stage, j.cfg.Host, j.portOrDefault(), err)
	}

	auth, err := authMethods(&j.cfg)
	if err != nil {
		return nil, fail("auth", err)
	}
	hostKey, err := hostKeyCheck(&j.cfg)
	if err != nil {
		return nil, fail("hostkey", err)
	}

	addr := j.cfg.Addr()
	j.logger.Verbose("connecting to jump host %s@%s", j.cfg.User, addr)
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, tcerr.Dial(addr, err)
	}

	conn, chans, reqs, err := ssh.NewClientConn(nc, addr, &ssh.ClientConfig{
		User:            j.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         j.cfg.Timeout,
	})
	if err != nil {
		nc.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			err = fmt.Errorf("%w: %v", tcerr.ErrAuthFailed, err)
		}
		return nil, fail("handshake", err)
	}
	j.logger.Verbose("jump host %s ready", addr)
	return ssh.NewClient(conn, chans, reqs), nil
}

func (j *JumpHost) portOrDefault() int {
	if j.cfg.Port == 0 {
		return 22
	}
	return j.cfg.Port
}

// supervise waits for client to drop, sending keepalives meanwhile, and
// marks the jump host down when it does.
func (j *JumpHost) supervise(client *ssh.Client) {
	dropped := make(chan error, 1)
	go func() { dropped <- client.Wait() }()

	var tick <-chan time.Time
	if j.cfg.KeepAlive > 0 {
		t := time.NewTicker(j.cfg.KeepAlive)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case err := <-dropped:
			j.client.CompareAndSwap(client, nil)
			j.logger.Debug("jump host connection ended: %v", err)
			return
		case <-tick:
			if j.client.Load() != client {
				continue
			}
			if _, _, err := client.SendRequest(keepAliveRequest, true, nil); err != nil {
				j.logger.Error("keepalive to %s failed: %v", j.cfg.Addr(), err)
				client.Close()
			}
		}
	}
}

// Dial opens a direct-tcpip channel to address from the jump host's
// side.  It does not Open.
func (j *JumpHost) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client := j.client.Load()
	if client == nil {
		return nil, tcerr.ErrNotConnected
	}
	j.logger.Debug("forwarding to %s", address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("forward to %s: %w", address, err)
	}
	return conn, nil
}

// Close drops the connection if there is one.
func (j *JumpHost) Close() error {
	if client := j.client.Swap(nil); client != nil {
		return client.Close()
	}
	return nil
}
