package monitoring_test

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/infrastructure/monitoring"
)

func TestMonitor_LogResponseRecordsMetrics(t *testing.T) {
	mon := monitoring.New(zerolog.New(io.Discard), 10)

	mon.LogRequest("req-1", "user-1", "turn on the tv")
	mon.LogResponse("req-1", "cheap", "gpt-4o-mini", 50*time.Millisecond, true, "", 10, 5)
	mon.LogResponse("req-1", "cheap", "gpt-4o-mini", 150*time.Millisecond, false, "timeout", 0, 0)

	summary := mon.MetricsSummary()
	require.Contains(t, summary.Providers, "cheap")
	m := summary.Providers["cheap"]
	assert.Equal(t, int64(2), m.RequestCount)
	assert.Equal(t, int64(1), m.SuccessCount)
	assert.Equal(t, int64(1), m.FailureCount)
}

func TestMonitor_HistoryEvictsOldestFirst(t *testing.T) {
	mon := monitoring.New(zerolog.New(io.Discard), 2)

	mon.LogRequest("req-1", "", "a")
	mon.LogRequest("req-2", "", "b")
	mon.LogRequest("req-3", "", "c")

	hist := mon.History()
	require.Len(t, hist, 2)
	assert.Equal(t, "req-2", hist[0].RequestID)
	assert.Equal(t, "req-3", hist[1].RequestID)
}
