package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func restore(t *testing.T) {
	t.Helper()
	prev := L
	t.Cleanup(func() { L = prev })
}

func TestInit_Writer(t *testing.T) {
	restore(t)
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &out, Level: slog.LevelDebug}))

	Debug("slab created", "object_size", 64)
	require.Contains(t, out.String(), "slab created")
	require.Contains(t, out.String(), "object_size=64")
}

func TestInit_DefaultLevelDropsDebug(t *testing.T) {
	restore(t)
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &out}))

	Debug("hidden")
	Info("shown")
	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "shown")
}

func TestInit_Disabled(t *testing.T) {
	restore(t)
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &out}))
	require.NoError(t, Init(Options{Enabled: false}))

	Error("dropped")
	require.Empty(t, out.String())
}

func TestInit_LogDir(t *testing.T) {
	restore(t)
	dir := t.TempDir()

	stale := filepath.Join(dir, logPrefix+time.Now().AddDate(0, 0, -retentionDays-5).Format("2006-01-02")+logSuffix)
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

	require.NoError(t, Init(Options{Enabled: true, LogDir: dir}))
	Warn("pool exhausted", "object_size", 512)

	_, err := os.Stat(stale)
	require.True(t, os.IsNotExist(err), "stale log should be removed")
	_, err = os.Stat(unrelated)
	require.NoError(t, err)

	today := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	data, err := os.ReadFile(today)
	require.NoError(t, err)
	require.Contains(t, string(data), "pool exhausted")
}
