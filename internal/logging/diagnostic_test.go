package logging

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticLog_KeepsNewestInOrder(t *testing.T) {
	d := NewDiagnosticLog(3)

	for i := 1; i <= 5; i++ {
		d.Append(slog.LevelInfo, fmt.Sprintf("event %d", i))
	}

	entries := d.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "event 3", entries[0].Message)
	assert.Equal(t, "event 4", entries[1].Message)
	assert.Equal(t, "event 5", entries[2].Message)
}

func TestDiagnosticLog_NonPositiveLimitIsUnbounded(t *testing.T) {
	for _, limit := range []int{0, -5} {
		d := NewDiagnosticLog(limit)
		for i := 0; i < 2500; i++ {
			d.Append(slog.LevelInfo, "x")
		}
		assert.Equal(t, 2500, d.Len(), "limit %d", limit)
	}
}

func TestDiagnosticLog_SetLimitEvicts(t *testing.T) {
	d := NewDiagnosticLog(0)
	for i := 0; i < 5; i++ {
		d.Append(slog.LevelWarn, fmt.Sprintf("w%d", i))
	}

	d.SetLimit(2)

	assert.Equal(t, 2, d.Limit())
	entries := d.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "w3", entries[0].Message)
	assert.Equal(t, "w4", entries[1].Message)
}

func TestDiagnosticLog_Clear(t *testing.T) {
	d := NewDiagnosticLog(5)
	d.Append(slog.LevelInfo, "a")
	d.Clear()
	assert.Equal(t, 0, d.Len())
}

func TestEntry_String(t *testing.T) {
	e := Entry{Level: slog.LevelError, Message: "boom"}
	assert.Equal(t, "ERROR: boom", e.String())
}

func TestDiagnosticHandler_LevelThreshold(t *testing.T) {
	d := NewDiagnosticLog(10)
	logger := slog.New(NewDiagnosticHandler(d, slog.LevelWarn))

	logger.Info("ignored")
	logger.Warn("kept")

	entries := d.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, slog.LevelWarn, entries[0].Level)
}

func TestDiagnosticHandler_AttrsAndGroups(t *testing.T) {
	d := NewDiagnosticLog(10)
	logger := slog.New(NewDiagnosticHandler(d, nil)).
		With("component", "aggregate").
		WithGroup("part")

	logger.Info("contributor excluded", "id", "p7")

	entries := d.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "contributor excluded component=aggregate part.id=p7", entries[0].Message)
}

func TestDiagnosticHandler_WithGroupEmptyReturnsSame(t *testing.T) {
	h := NewDiagnosticHandler(NewDiagnosticLog(1), nil)
	assert.Equal(t, h, h.WithGroup(""))
}
