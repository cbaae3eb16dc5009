package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{
		Level:      "debug",
		Outputs:    []string{"file"},
		OutputFile: filepath.Join(dir, "bt.log"),
		ErrorFile:  filepath.Join(dir, "bt.err"),
		Format:     "json",
	})
	require.NoError(t, err)
	l.Info("hello")
	assert.NoError(t, l.Close())
	assert.FileExists(t, filepath.Join(dir, "bt.log"))
	assert.FileExists(t, filepath.Join(dir, "bt.err"))
}

func TestEventHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core).WithFields(map[string]interface{}{"run_id": "r1"})

	l.LogOrder("placed", 7, map[string]interface{}{"side": "BUY"})
	l.LogFill(3, nil)
	l.LogTrade("opened", 2, nil)
	l.LogError(errors.New("boom"), nil)

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "order_event", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r1", fields["run_id"])
	assert.Equal(t, "placed", fields["event"])
	assert.Equal(t, uint64(7), fields["order_id"])
	assert.Equal(t, "BUY", fields["side"])

	assert.Equal(t, "fill_event", entries[1].Message)
	assert.Equal(t, uint64(3), entries[1].ContextMap()["fill_id"])

	assert.Equal(t, "trade_event", entries[2].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestNewNopDiscards(t *testing.T) {
	l := NewNop()
	l.LogTrade("closed", 1, nil)
	assert.NoError(t, l.Close())
}
