package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPassthrough(t *testing.T) {
	path, err := ResolvePath("/var/lib/schedule/schedule.db")
	require.NoError(t, err)
	require.Equal(t, "/var/lib/schedule/schedule.db", path)
}

func TestResolvePathDevState(t *testing.T) {
	path, err := ResolvePath("<dev_state>/schedule.db")
	require.NoError(t, err)
	require.Equal(t, "schedule.db", filepath.Base(path))
	require.Equal(t, ".state", filepath.Base(filepath.Dir(path)))
}
