package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HARBORWATCH_DB_DRIVER", "memory")
	t.Setenv("HARBORWATCH_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

type decodedReport struct {
	Result   map[string]any     `json:"result"`
	Error    string             `json:"error"`
	Snapshot map[string]float64 `json:"snapshot"`
}

func decodeReport(t *testing.T, out string) decodedReport {
	t.Helper()
	var rep decodedReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	return rep
}

func TestCPUCommand(t *testing.T) {
	out, err := runCommand(t, context.Background(), "cpu", "--iterations", "10000")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Equal(t, "cpu_intensive", rep.Result["type"])
	assert.Equal(t, float64(10000), rep.Result["actual_magnitude"])
	assert.NotEmpty(t, rep.Result["acc_sample"])
	assert.Equal(t, float64(1), rep.Snapshot["http_requests_5s"], "the call is observed before the snapshot")
	assert.Equal(t, float64(0), rep.Snapshot["http_5xx_5s"])
}

func TestMemoryCommand_Clamped(t *testing.T) {
	out, err := runCommand(t, context.Background(), "memory", "--mb", "0")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Equal(t, float64(0), rep.Result["requested_magnitude"])
	assert.Equal(t, float64(1), rep.Result["actual_magnitude"])
	assert.Contains(t, rep.Result, "checksum")
	assert.Equal(t, float64(0), rep.Result["checksum"])
}

func TestStorageCommand(t *testing.T) {
	out, err := runCommand(t, context.Background(), "storage", "--ops", "50")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Equal(t, "database_intensive", rep.Result["type"])
	assert.Equal(t, float64(2), rep.Result["reads"])
}

func TestStressCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("stress runs for at least one second")
	}
	t.Setenv("HARBORWATCH_STRESS_WORKERS", "2")

	out, err := runCommand(t, context.Background(), "stress", "--seconds", "1")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Equal(t, float64(2), rep.Result["worker_count"])
	assert.Equal(t, float64(1), rep.Result["actual_duration_seconds"])
	assert.NotEmpty(t, rep.Result["id"])
}

func TestInspectCommand(t *testing.T) {
	out, err := runCommand(t, context.Background(), "inspect", "--table", "computation_results")
	require.NoError(t, err)

	assert.Contains(t, out, "sink time:")
	assert.Contains(t, out, "performance_data:")
	assert.Contains(t, out, "computation_results:")
}

func TestInspectCommand_UnknownTable(t *testing.T) {
	_, err := runCommand(t, context.Background(), "inspect", "--table", "users")
	assert.Error(t, err)
}

func TestServeCommand_StopsWithContext(t *testing.T) {
	t.Setenv("HARBORWATCH_SNAPSHOT_INTERVAL", "10ms")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := runCommand(t, ctx, "serve")
	assert.NoError(t, err)
}

func TestRootCommand_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshot:\n  interval: 0s\n"), 0o600))

	_, err := runCommand(t, context.Background(), "--config", path, "cpu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot.interval")
}

func TestServeCommand_HelpExplainsRequestRows(t *testing.T) {
	cmd := newServeCommand(func() string { return "" })
	assert.Contains(t, cmd.Long, "http_requests_5s")
	assert.Contains(t, cmd.Long, "stay at 0")
}
