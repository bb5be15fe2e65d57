package hoststats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFixture = errors.New("fixture")

func stubSources(t *testing.T, cpuErr, memErr, upErr error) {
	t.Helper()

	origCPU, origMem, origUp, origHost, origNow := percentWithContext, virtualMemoryWithContext, uptimeWithContext, hostname, now

	t.Cleanup(func() {
		percentWithContext, virtualMemoryWithContext, uptimeWithContext, hostname, now = origCPU, origMem, origUp, origHost, origNow
	})

	percentWithContext = func(context.Context, time.Duration, bool) ([]float64, error) {
		return []float64{42.5}, cpuErr
	}
	virtualMemoryWithContext = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 1000, Used: 250, UsedPercent: 25}, memErr
	}
	uptimeWithContext = func(context.Context) (uint64, error) {
		return 3600, upErr
	}
	hostname = func() (string, error) { return "sensor-1", nil }
	now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
}

func TestCollect(t *testing.T) {
	stubSources(t, nil, nil, nil)

	snap, err := NewCollector(0).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Snapshot{
		Hostname:        "sensor-1",
		CPUPercent:      42.5,
		MemoryUsedBytes: 250,
		MemoryTotal:     1000,
		MemoryPercent:   25,
		UptimeSeconds:   3600,
		CollectedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}, snap)
}

func TestCollect_PartialFailure(t *testing.T) {
	stubSources(t, errFixture, nil, nil)

	snap, err := NewCollector(0).Collect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.CPUPercent)
	assert.Equal(t, uint64(1000), snap.MemoryTotal)
}

func TestCollect_AllFail(t *testing.T) {
	stubSources(t, errFixture, errFixture, errFixture)

	_, err := NewCollector(0).Collect(context.Background())
	require.ErrorIs(t, err, ErrStatsUnavailable)
	require.ErrorIs(t, err, errFixture)
}

func TestPayload(t *testing.T) {
	stubSources(t, nil, nil, nil)

	raw, err := NewCollector(time.Millisecond).Payload(context.Background())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "sensor-1", decoded["hostname"])
	assert.InDelta(t, 42.5, decoded["cpu_percent"], 0.001)
	assert.InDelta(t, 3600, decoded["uptime_seconds"], 0.001)
}

func TestCollect_RealHost(t *testing.T) {
	if testing.Short() {
		t.Skip("reads live host counters")
	}

	snap, err := NewCollector(0).Collect(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.CollectedAt.IsZero())
}
