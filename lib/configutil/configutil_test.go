package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int      `json:"port"`
	PageUrl  string   `json:"page_url"`
	Suffixes []string `json:"suffixes"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfigMergesLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments and trailing commas are allowed
		port: 8000,
		page_url: "https://example.com/raspisanie/",
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ port: 9000 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "https://example.com/raspisanie/", cfg.PageUrl)
}

func TestReadConfigWithDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ page_url: "https://example.com" }`)

	cfg, err := ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), testConfig{
		Port:     10000,
		Suffixes: []string{".xlsx"},
	})
	require.NoError(t, err)
	require.Equal(t, 10000, cfg.Port)
	require.Equal(t, []string{".xlsx"}, cfg.Suffixes)
	require.Equal(t, "https://example.com", cfg.PageUrl)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, "dir/config.local.json5", localName("dir/config.json5"))
	require.Equal(t, "telemetry.local.json5", localName("telemetry.json5"))
}
