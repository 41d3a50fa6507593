package util

import (
	"fmt"
	"net"
	"strconv"
)

// JoinAddr returns "host:port".  An empty host listens on every
// interface.
func JoinAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ResolveAddr returns the address an attach client dials.  With
// numericOnly set (-n) the host must already be an IP literal.
func ResolveAddr(host string, port int, numericOnly bool) (string, error) {
	if numericOnly && net.ParseIP(host) == nil {
		return "", fmt.Errorf("host %q is not an IP address and -n disables DNS", host)
	}
	return JoinAddr(host, port), nil
}
