package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedClient(t *testing.T) (*resty.Client, *tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	otel.SetTracerProvider(tp)
	return resty.New(), spans, tp
}

func TestRestySpanWrapsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, spans, tp := newTracedClient(t)
	InstrumentResty(client, &Recorder{}, nil)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "Engine.Fetch")
	_, err := client.R().SetContext(ctx).Get(server.URL)
	require.NoError(t, err)
	require.True(t, parent.IsRecording())
	parent.End()

	ended := spans.Ended()
	require.Len(t, ended, 2)
	require.Equal(t, "http GET", ended[0].Name())
	require.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
	require.Equal(t, "Engine.Fetch", ended[1].Name())
}

func TestRestyEarlierHookFailureKeepsCallerSpan(t *testing.T) {
	client, spans, tp := newTracedClient(t)
	errLimited := errors.New("limited")
	client.OnBeforeRequest(func(*resty.Client, *resty.Request) error {
		return errLimited
	})
	InstrumentResty(client, &Recorder{}, nil)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "Engine.Fetch")
	_, err := client.R().SetContext(ctx).Get("http://127.0.0.1:1/unreachable")
	require.ErrorIs(t, err, errLimited)

	require.True(t, parent.IsRecording())
	require.Empty(t, spans.Ended())

	parent.End()
	ended := spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "Engine.Fetch", ended[0].Name())
}
