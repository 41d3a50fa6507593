package core

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"tconsole/config"
	"tconsole/internal/capability"
	"tconsole/internal/executor"
	"tconsole/internal/metrics"
	"tconsole/util"
)

// ServeMode accepts inbound connections and serves each one on its own
// goroutine until ctx is cancelled.
type ServeMode struct {
	Address     string // "host:port"; empty host listens on all interfaces
	Capability  capability.Capability
	Metrics     *metrics.Collector
	GracePeriod time.Duration // how long Run waits for open sessions on shutdown
	Logger      *util.Logger

	// ConfigFile, when set together with Registry, is watched for alias
	// additions while serving.
	ConfigFile string
	Registry   *executor.Table

	// Ready, when set, receives the bound address once listening.
	Ready chan<- net.Addr
}

// Run listens on Address and serves connections until ctx is done.
func (m *ServeMode) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.Address, err)
	}
	defer ln.Close()

	m.Logger.Info("console listening on %s", ln.Addr())
	m.watchAliases(ctx)
	if m.Ready != nil {
		m.Ready <- ln.Addr()
	}

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer m.drain(&wg)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		remote := conn.RemoteAddr().String()
		m.Logger.Verbose("connection from %s", remote)

		wg.Add(1)
		go func() {
			defer wg.Done()
			ep := capability.NewEndpoint(conn, nil, nil, m.Logger.Named(remote))
			if err := m.Capability.Handle(ctx, ep); err != nil {
				m.Logger.Warn("%s: %v", remote, err)
			}
		}()
	}
}

// drain waits up to GracePeriod for open sessions, then logs the
// collected metrics.
func (m *ServeMode) drain(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	grace := m.GracePeriod
	if grace <= 0 {
		grace = 5 * time.Second
	}
	select {
	case <-done:
	case <-time.After(grace):
		m.Logger.Warn("%d session(s) still open after %s", m.Metrics.ActiveSessions(), grace)
	}

	m.Logger.Info("served %s", m.Metrics)
	m.Logger.Debug("console metrics:\n%s", m.Metrics.JSON())
}

// watchAliases registers aliases added to ConfigFile while serving.
// Existing names are never rebound, so live sessions keep resolving
// the same executors.
func (m *ServeMode) watchAliases(ctx context.Context) {
	if m.ConfigFile == "" || m.Registry == nil {
		return
	}
	err := config.Watch(ctx, m.ConfigFile,
		func(cfg *config.Config) {
			for _, err := range MergeAliases(m.Registry, cfg.Aliases) {
				m.Logger.Warn("%s: %v", m.ConfigFile, err)
			}
		},
		func(err error) { m.Logger.Warn("%v", err) },
	)
	if err != nil {
		m.Logger.Warn("config reload disabled: %v", err)
		return
	}
	m.Logger.Verbose("watching %s for aliases", m.ConfigFile)
}
