package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwatch/railwatch/internal/store"
)

// writeTestConfig writes a config whose store lives in dir.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := `
server: {port: 16181}
store: {path: ` + filepath.Join(dir, "trains.db") + `}
feed: {host: localhost, port: 61613, username: u, password: p, subscriptionName: railwatch-test}
tracker: {areas: [EA]}
`
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "trains")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestImportBerths_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	dataset := filepath.Join(dir, "locations.json")
	require.NoError(t, os.WriteFile(dataset, []byte(`{"EA": {"T101": {"lat": 51.5, "lon": -0.25}}}`), 0o644))

	out, err := execute(t, "--config", cfgPath, "import", "berths", dataset)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 berths records")

	st, err := store.Open(filepath.Join(dir, "trains.db"))
	require.NoError(t, err)
	defer st.Close()
	_, found, err := st.LookupBerth(context.Background(), "EA", "T101")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestImport_MissingDatasetIsCommandError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "import", "berths", filepath.Join(dir, "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "boom", nil)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestTrains_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	out, err := execute(t, "--config", cfgPath, "trains")
	require.NoError(t, err)
	assert.Contains(t, out, "0 trains")
}
