package executor

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	tcerr "tconsole/internal/errors"
)

// Registry resolves command names to executors.
type Registry interface {
	// Resolve returns the executor registered under name.
	Resolve(name string) (Executor, bool)

	// Names lists every registered name, sorted.
	Names() []string
}

// Table is a name→Executor Registry.  The zero value is not usable;
// create one with [NewTable].  Registration is safe while sessions
// resolve concurrently.
type Table struct {
	mu    sync.RWMutex
	execs map[string]Executor
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{execs: make(map[string]Executor)}
}

// Register binds exec to every given name.  Nothing is registered if
// any name is empty or already taken.
func (t *Table) Register(exec Executor, names ...string) error {
	if exec == nil {
		return fmt.Errorf("register %v: nil executor", names)
	}
	if len(names) == 0 {
		return fmt.Errorf("register: no command names")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("register: empty command name")
		}
		if _, exists := t.execs[n]; exists {
			return fmt.Errorf("register %q: %w", n, tcerr.ErrDuplicateCommand)
		}
	}
	for _, n := range names {
		t.execs[n] = exec
	}
	return nil
}

// Alias makes alias resolve to the executor registered under target.
func (t *Table) Alias(alias, target string) error {
	exec, ok := t.Resolve(target)
	if !ok {
		return fmt.Errorf("alias %q: %q: %w", alias, target, tcerr.ErrUnknownCommand)
	}
	return t.Register(exec, alias)
}

// Resolve implements [Registry].
func (t *Table) Resolve(name string) (Executor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	exec, ok := t.execs[name]
	return exec, ok
}

// Names implements [Registry].
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.execs))
	for n := range t.execs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
