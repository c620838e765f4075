package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	tel := NewScopedAPI("retrieval", NewScopedAPI("schedule", rec))

	tel.ReportBroken("engine.fetch", "boom")
	tel.ReportWarning("engine.attempt")
	tel.ReportCount("records", 12)

	require.Equal(t, []string{"schedule:retrieval:engine.fetch"}, rec.BrokenIDs())
	require.Equal(t, []string{"schedule:retrieval:engine.attempt"}, rec.WarningIDs())
	require.Equal(t, int64(12), rec.Counts["schedule:retrieval:records"])
	require.Equal(t, []any{"boom"}, rec.Broken[0].Params)
}
