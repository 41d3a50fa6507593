package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"tconsole/internal/command"
)

// Delimiter terminates every response envelope so a stream of
// envelopes can be split by the client.
const Delimiter = "\r\n--------------\r\n"

// Envelope is the framed response to a successfully executed command.
type Envelope struct {
	Name string `json:"name"`
	Args string `json:"args"`
	Body any    `json:"body"`
}

// EncodeEnvelope renders the response for cmd, including the trailing
// delimiter.  Text is not HTML-escaped, so args read as typed.
func EncodeEnvelope(cmd *command.Command, body any) ([]byte, error) {
	if b, ok := body.([]byte); ok {
		body = string(b)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(Envelope{
		Name: cmd.Name,
		Args: cmd.Args.String(),
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s response: %w", cmd.Name, err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return append(data, Delimiter...), nil
}

// WriteEnvelope encodes and writes the response for cmd in one Write.
func WriteEnvelope(w io.Writer, cmd *command.Command, body any) error {
	data, err := EncodeEnvelope(cmd, body)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteBadCommand reports an unregistered command name.  The line is
// not framed.
func WriteBadCommand(w io.Writer, name string) error {
	_, err := fmt.Fprintf(w, "'%s' is bad command.\r\n", name)
	return err
}
