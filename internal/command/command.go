// Package command turns console input into Commands.  A Command is
// built from one line of text: the first token names the command,
// key=value tokens become ordered arguments and everything else is
// kept as positional text.
package command

import (
	"strings"
)

// Arg is one key=value pair from a command line.
type Arg struct {
	Key   string
	Value string
}

// Args is an insertion-ordered key→value mapping.  Repeating a key
// replaces its value but keeps the original position.
type Args struct {
	pairs []Arg
	index map[string]int
}

// NewArgs returns an empty Args.
func NewArgs() *Args {
	return &Args{index: make(map[string]int)}
}

// Set stores value under key.
func (a *Args) Set(key, value string) {
	if i, ok := a.index[key]; ok {
		a.pairs[i].Value = value
		return
	}
	a.index[key] = len(a.pairs)
	a.pairs = append(a.pairs, Arg{Key: key, Value: value})
}

// Get returns the value stored under key.
func (a *Args) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	i, ok := a.index[key]
	if !ok {
		return "", false
	}
	return a.pairs[i].Value, true
}

// Len returns the number of pairs.
func (a *Args) Len() int {
	if a == nil {
		return 0
	}
	return len(a.pairs)
}

// Pairs returns a copy of the pairs in insertion order.
func (a *Args) Pairs() []Arg {
	if a == nil {
		return nil
	}
	out := make([]Arg, len(a.pairs))
	copy(out, a.pairs)
	return out
}

// String joins the pairs as "k1=v1,k2=v2".
func (a *Args) String() string {
	if a.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range a.pairs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
	}
	return sb.String()
}

// Command is a single parsed console line.
type Command struct {
	Name       string
	Args       *Args
	Positional []string // tokens that are not key=value, in order
	Tokens     []string // every token after the name, as typed
	Body       string   // free text beyond the recognised tokens; "" when absent
}

// HasBody reports whether the command carries free text.
func (c *Command) HasBody() bool { return c.Body != "" }

// ParseLine tokenizes a single line.  It returns nil when the line is
// blank after trimming.
func ParseLine(line string) *Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd := &Command{Name: fields[0], Args: NewArgs(), Tokens: fields[1:]}
	for _, tok := range fields[1:] {
		if k, v, ok := splitPair(tok); ok {
			cmd.Args.Set(k, v)
			continue
		}
		cmd.Positional = append(cmd.Positional, tok)
	}
	cmd.Body = strings.Join(cmd.Positional, " ")
	return cmd
}

// splitPair recognises "key=value" with a non-empty key.
func splitPair(tok string) (key, value string, ok bool) {
	i := strings.IndexByte(tok, '=')
	if i <= 0 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}
