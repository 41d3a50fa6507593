// Package tunnel carries console attach traffic through an SSH jump
// host using golang.org/x/crypto/ssh.
package tunnel

import (
	"net"
	"strconv"
	"time"
)

// Config describes the jump host a console is reached through.
type Config struct {
	User string
	Host string
	Port int // 22 when zero

	KeyFile     string
	AskPassword bool
	Agent       bool

	// VerifyHostKey checks the host key against KnownHosts
	// (~/.ssh/known_hosts when empty).
	VerifyHostKey bool
	KnownHosts    string

	Timeout   time.Duration // handshake timeout, 30s when zero
	KeepAlive time.Duration // zero sends no keepalives
}

// Addr returns host:port of the jump host.
func (c *Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}
