package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"schedule-backend/internal/normalizer"
	"schedule-backend/internal/retrieval"
	"schedule-backend/lib/configutil"

	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		// only what differs from the defaults
		source: {
			page_url: "https://www.example.edu/students/raspisanie/",
			target_phrase: "Расписание занятий",
		},
		retrieval: {
			base_delay_ms: 500,
			client_ips: ["10.0.0.1"],
		},
		normalizer: { group_mode: "pattern" },
		refresh: { cron: "0 */6 * * *" },
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{http: {port: 8080}}`), 0600)
	require.NoError(t, err)

	cfg, err := configutil.ReadConfigWithDefaults(path, DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Http.Port)
	require.Equal(t, "Europe/Moscow", cfg.Timezone)
	require.Equal(t, "0 */6 * * *", cfg.Refresh.Cron)

	opts := cfg.Retrieval.Options()
	require.Equal(t, retrieval.DefaultMaxAttempts, opts.MaxAttempts)
	require.Equal(t, time.Minute, opts.Timeout)
	require.Equal(t, 500*time.Millisecond, opts.BaseDelay)
	require.Equal(t, []string{"10.0.0.1"}, opts.Shaping.ClientIPs)
	require.Equal(t, retrieval.DefaultClientIPHeaders, opts.Shaping.ClientIPHeaders)
	require.Len(t, opts.Shaping.HeaderSets, len(retrieval.DefaultHeaderSets))

	locOpts := cfg.Source.Options()
	require.Equal(t, "Расписание занятий", locOpts.TargetPhrase)
	require.Equal(t, []string{".xlsx", ".xlsm"}, locOpts.Extensions)

	normOpts := cfg.Normalizer.Options()
	require.Equal(t, normalizer.GroupFromPattern, normOpts.GroupMode)
	require.Equal(t, "undefined", normOpts.MissingMarker)
	require.NoError(t, normOpts.Validate())
}

func TestExampleConfig(t *testing.T) {
	cfg, err := configutil.ReadConfigWithDefaults("../../config.example.json5", DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, cfg.Normalizer.Options().Validate())
	require.Equal(t, 10000, cfg.Http.Port)
}
