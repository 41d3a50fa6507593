// Package metrics counts what a console server did: sessions, command
// dispatches, rejected names, executor faults and bytes moved.
//
// Counters are atomic and a nil *Collector ignores every call, so the
// session code records unconditionally.
package metrics

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

type counter int

const (
	openSessions counter = iota
	sessions
	commands
	badCommands
	faults
	bytesIn
	bytesOut
	numCounters
)

// fault is the most recent executor fault.
type fault struct {
	at  time.Time
	msg string
}

// Collector is shared by every session of one server.
type Collector struct {
	started   time.Time
	counts    [numCounters]atomic.Int64
	lastFault atomic.Pointer[fault]
}

// New returns a Collector whose uptime starts now.
func New() *Collector {
	return &Collector{started: time.Now()}
}

func (c *Collector) add(k counter, n int64) {
	if c != nil {
		c.counts[k].Add(n)
	}
}

func (c *Collector) get(k counter) int64 {
	if c == nil {
		return 0
	}
	return c.counts[k].Load()
}

// ── recording ────────────────────────────────────────────────────────

func (c *Collector) SessionOpened() {
	c.add(openSessions, 1)
	c.add(sessions, 1)
}

func (c *Collector) SessionClosed() { c.add(openSessions, -1) }

// CommandExecuted counts a dispatch, faulted or not.
func (c *Collector) CommandExecuted() { c.add(commands, 1) }

// BadCommand counts a line naming no registered command.
func (c *Collector) BadCommand() { c.add(badCommands, 1) }

func (c *Collector) BytesReceived(n int64) { c.add(bytesIn, n) }
func (c *Collector) BytesSent(n int64)     { c.add(bytesOut, n) }

// RecordFault counts an executor fault and keeps msg as the latest.
func (c *Collector) RecordFault(msg string) {
	if c == nil {
		return
	}
	c.add(faults, 1)
	c.lastFault.Store(&fault{at: time.Now(), msg: msg})
}

// ── reading ──────────────────────────────────────────────────────────

func (c *Collector) ActiveSessions() int64   { return c.get(openSessions) }
func (c *Collector) TotalSessions() int64    { return c.get(sessions) }
func (c *Collector) CommandsExecuted() int64 { return c.get(commands) }
func (c *Collector) BadCommands() int64      { return c.get(badCommands) }
func (c *Collector) FaultCount() int64       { return c.get(faults) }
func (c *Collector) TotalBytesIn() int64     { return c.get(bytesIn) }
func (c *Collector) TotalBytesOut() int64    { return c.get(bytesOut) }

// Snapshot is the Collector at one instant, as logged on shutdown.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	CommandsExecuted int64  `json:"commands_executed"`
	BadCommands      int64  `json:"bad_commands"`
	FaultsTotal      int64  `json:"faults_total"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	LastFault        string `json:"last_fault,omitempty"`
	LastFaultMessage string `json:"last_fault_message,omitempty"`
}

func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Uptime:           time.Since(c.started).Truncate(time.Second).String(),
		SessionsActive:   c.get(openSessions),
		SessionsTotal:    c.get(sessions),
		CommandsExecuted: c.get(commands),
		BadCommands:      c.get(badCommands),
		FaultsTotal:      c.get(faults),
		BytesIn:          c.get(bytesIn),
		BytesOut:         c.get(bytesOut),
	}
	if f := c.lastFault.Load(); f != nil {
		s.LastFault = f.at.Format(time.RFC3339)
		s.LastFaultMessage = f.msg
	}
	return s
}

// JSON renders the snapshot indented, for the verbose shutdown log.
func (c *Collector) JSON() string {
	data, _ := json.MarshalIndent(c.Snapshot(), "", "  ")
	return string(data)
}

// String is a one-line summary.
func (c *Collector) String() string {
	s := c.Snapshot()
	return fmt.Sprintf("%d session(s), %d command(s), %d bad, %d fault(s), %dB in, %dB out",
		s.SessionsTotal, s.CommandsExecuted, s.BadCommands, s.FaultsTotal, s.BytesIn, s.BytesOut)
}
