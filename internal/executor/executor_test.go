package executor

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tconsole/internal/command"
	tcerr "tconsole/internal/errors"
)

// fakeContext is a minimal in-memory Context.
type fakeContext struct {
	out        bytes.Buffer
	attrs      map[string]string
	reg        Registry
	closeAfter []int
}

func newFakeContext(reg Registry) *fakeContext {
	return &fakeContext{attrs: map[string]string{}, reg: reg}
}

func (f *fakeContext) SessionID() string { return "sid" }
func (f *fakeContext) Counter() int64    { return 7 }
func (f *fakeContext) Writer() io.Writer { return &f.out }
func (f *fakeContext) RequestClose(after int) error {
	f.closeAfter = append(f.closeAfter, after)
	return nil
}
func (f *fakeContext) Attr(k string) (string, bool) {
	v, ok := f.attrs[k]
	return v, ok
}
func (f *fakeContext) SetAttr(k, v string)      { f.attrs[k] = v }
func (f *fakeContext) Attrs() map[string]string { return f.attrs }
func (f *fakeContext) Registry() Registry       { return f.reg }

func run(t *testing.T, exec Executor, sc Context, line string) (any, error) {
	t.Helper()
	cmd := command.ParseLine(line)
	require.NotNil(t, cmd)
	return exec.Execute(context.Background(), sc, cmd)
}

// ── registry ─────────────────────────────────────────────────────────

func TestTable_RegisterResolve(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Register(Help{}, "help", "?"))

	exec, ok := tbl.Resolve("help")
	assert.True(t, ok)
	assert.Equal(t, Help{}, exec)

	_, ok = tbl.Resolve("HELP")
	assert.False(t, ok, "lookup is case-sensitive")

	assert.Equal(t, []string{"?", "help"}, tbl.Names())
}

func TestTable_RegisterRejects(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Register(Help{}, "help"))

	err := tbl.Register(Set{}, "set", "help")
	assert.ErrorIs(t, err, tcerr.ErrDuplicateCommand)
	_, ok := tbl.Resolve("set")
	assert.False(t, ok, "failed registration must not be partial")

	assert.Error(t, tbl.Register(nil, "x"))
	assert.Error(t, tbl.Register(Set{}))
	assert.Error(t, tbl.Register(Set{}, " "))
}

func TestTable_Alias(t *testing.T) {
	tbl := NewBuiltins()
	require.NoError(t, tbl.Alias("bye", "quit"))

	exec, ok := tbl.Resolve("bye")
	require.True(t, ok)
	assert.Equal(t, Quit{}, exec)

	assert.ErrorIs(t, tbl.Alias("x", "nope"), tcerr.ErrUnknownCommand)
}

func TestNewBuiltins(t *testing.T) {
	tbl := NewBuiltins()
	for _, n := range []string{"quit", "exit", "close", "help", "set", "get", "session", "echo"} {
		_, ok := tbl.Resolve(n)
		assert.True(t, ok, n)
	}
}

// ── built-ins ────────────────────────────────────────────────────────

func TestQuit_Flags(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"quit", 0},
		{"close -t3", 3},
		{"close -t-3", -3},
		{"exit -t 5", 5},
		{"exit --time=2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sc := newFakeContext(nil)
			body, err := run(t, Quit{}, sc, tt.line)
			require.NoError(t, err)
			assert.Nil(t, body)
			assert.Equal(t, []int{tt.want}, sc.closeAfter)
		})
	}
}

func TestQuit_BadFlag(t *testing.T) {
	sc := newFakeContext(nil)
	_, err := run(t, Quit{}, sc, "quit -t abc")
	assert.Error(t, err)
	assert.Empty(t, sc.closeAfter)
}

func TestSetGet(t *testing.T) {
	sc := newFakeContext(nil)

	body, err := run(t, Set{}, sc, "set name=abc age=13")
	require.NoError(t, err)
	assert.Nil(t, body)
	assert.Equal(t, map[string]string{"name": "abc", "age": "13"}, sc.attrs)

	body, err = run(t, Get{}, sc, "get age missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"age": "13"}, body)

	body, err = run(t, Get{}, sc, "get")
	require.NoError(t, err)
	assert.Len(t, body, 2)

	_, err = run(t, Set{}, sc, "set nothing")
	assert.Error(t, err)
}

func TestHelp(t *testing.T) {
	sc := newFakeContext(NewBuiltins())

	body, err := run(t, Help{}, sc, "help")
	require.NoError(t, err)
	text := body.(string)
	assert.Contains(t, text, "quit")
	assert.Contains(t, text, "-t N")

	body, err = run(t, Help{}, sc, "help set")
	require.NoError(t, err)
	assert.Equal(t, "set - store session attributes: set k1=v1 k2=v2", body)

	_, err = run(t, Help{}, sc, "help nope")
	assert.ErrorIs(t, err, tcerr.ErrUnknownCommand)
}

func TestInfo(t *testing.T) {
	body, err := run(t, Info{}, newFakeContext(nil), "session")
	require.NoError(t, err)
	assert.Equal(t, SessionInfo{ID: "sid", Counter: 7}, body)
}

func TestEcho(t *testing.T) {
	cmd := command.ParseLine("echo hello world")
	assert.False(t, Echo{}.MultiLine(cmd))
	body, err := Echo{}.Execute(context.Background(), newFakeContext(nil), cmd)
	require.NoError(t, err)
	assert.Equal(t, "hello world", body)

	assert.True(t, Echo{}.MultiLine(command.ParseLine("echo")))
	assert.False(t, Echo{}.MultiLine(command.ParseLine("echo a=1")), "key=value args are inline input")
}

func TestExecutorFunc(t *testing.T) {
	f := ExecutorFunc(func(_ context.Context, sc Context, _ *command.Command) (any, error) {
		return sc.SessionID(), nil
	})
	body, err := run(t, f, newFakeContext(nil), "id")
	require.NoError(t, err)
	assert.Equal(t, "sid", body)
}
