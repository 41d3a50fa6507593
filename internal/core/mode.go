// Package core is the orchestration layer.  It composes transports
// and capabilities into the two things tconsole can do and provides a
// builder that selects one from a Config.
//
// Architecture layers (bottom → top):
//
//	command  →  executor  →  session  →  capability  →  core  →  cmd (CLI)
//	                        transport ──────┘
package core

import "context"

// Mode is a complete run of tconsole: serving consoles to incoming
// connections, or attaching to a remote console.  Each mode owns its
// lifecycle from connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
