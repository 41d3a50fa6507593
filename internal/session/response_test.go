package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tconsole/internal/command"
	tcerr "tconsole/internal/errors"
)

func TestWriteEnvelope(t *testing.T) {
	tests := []struct {
		name string
		line string
		body any
		want string
	}{
		{"nil body", "set name=abc age=13", nil, `{"name":"set","args":"name=abc,age=13","body":null}`},
		{"string body", "help", "text", `{"name":"help","args":"","body":"text"}`},
		{"bytes body", "cat", []byte("raw"), `{"name":"cat","args":"","body":"raw"}`},
		{"object body", "get", map[string]string{"a": "1"}, `{"name":"get","args":"","body":{"a":"1"}}`},
		{"markup kept", "set a=<b>&c", "<ok>", `{"name":"set","args":"a=<b>&c","body":"<ok>"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteEnvelope(&buf, command.ParseLine(tt.line), tt.body))
			assert.Equal(t, tt.want+Delimiter, buf.String())
		})
	}
}

func TestWriteEnvelope_StreamSplits(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		require.NoError(t, WriteEnvelope(&buf, command.ParseLine(fmt.Sprintf("n%d k=%d", i, i)), i))
	}

	parts := strings.Split(buf.String(), Delimiter)
	require.Len(t, parts, 4)
	for i, p := range parts[:3] {
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(p), &env))
		assert.Equal(t, fmt.Sprintf("n%d", i), env.Name)
		assert.Equal(t, fmt.Sprintf("k=%d", i), env.Args)
	}
}

func TestWriteBadCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBadCommand(&buf, "X"))
	assert.Equal(t, "'X' is bad command.\r\n", buf.String())
}

type namedFault struct{}

func (namedFault) Error() string     { return "custom" }
func (namedFault) FaultType() string { return "console.Custom" }

func TestFaultType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"errors.New", tcerr.New("x"), "errors.errorString"},
		{"wrapped", fmt.Errorf("w: %w", io.EOF), "fmt.wrapError"},
		{"pointer type", &testFault{}, "tconsole/internal/session.testFault"},
		{"self-named", namedFault{}, "console.Custom"},
		{"panic", &tcerr.PanicError{Value: 1}, "panic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FaultType(tt.err))
		})
	}
}

func TestFormatFault_CauseChain(t *testing.T) {
	err := fmt.Errorf("load: %w", &testFault{msg: "disk on fire"})

	got := FormatFault(err)
	want := "fmt.wrapError: load: disk on fire\r\n" +
		"caused by tconsole/internal/session.testFault: disk on fire\r\n"
	assert.Equal(t, want, got)
}

func TestWriteFault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFault(&buf, &testFault{msg: "error message form test"}))
	assert.Equal(t, "tconsole/internal/session.testFault: error message form test\r\n", buf.String())
}
