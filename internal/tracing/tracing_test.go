package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartCommand_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := InitWithExporter("tconsole-test", "test", exporter)
	require.NoError(t, err)
	defer shutdown(context.Background()) //nolint:errcheck

	_, span := StartCommand(context.Background(), "sid-1", "set", 1)
	End(span, nil)

	_, span = StartCommand(context.Background(), "sid-1", "boom", 2)
	End(span, errors.New("error message"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "console.set", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, "console.boom", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "error message", spans[1].Status.Description)

	var sawSession bool
	for _, kv := range spans[0].Attributes {
		if kv.Key == "console.session_id" && kv.Value.AsString() == "sid-1" {
			sawSession = true
		}
	}
	assert.True(t, sawSession, "session id attribute missing")
}

func TestInit_WritesToWriter(t *testing.T) {
	var out bytes.Buffer
	shutdown, err := Init("tconsole-test", "test", &out)
	require.NoError(t, err)

	_, span := StartCommand(context.Background(), "sid-2", "help", 1)
	End(span, nil)
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, out.String(), "console.help")
}
