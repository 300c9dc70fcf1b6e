package camera

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntervalEstimator(t *testing.T) {
	var ie IntervalEstimator
	require := require.New(t)
	start := time.Unix(1000, 0)
	delay := 125 * time.Millisecond

	ie.Observe(start)
	stats := ie.Stats()
	require.Equal(uint64(1), stats.Frames)
	require.Equal(start, stats.LastFrame)
	require.Zero(stats.MinInterval)
	require.Zero(stats.SmoothedInterval)
	require.Zero(stats.IntervalVar)

	ie.Observe(start.Add(delay))
	stats = ie.Stats()
	require.Equal(delay, stats.MinInterval)
	require.Equal(delay, stats.SmoothedInterval)
	require.Equal(delay/2, stats.IntervalVar)

	ie.Observe(start.Add(2 * delay))
	stats = ie.Stats()
	require.Equal(delay, stats.MinInterval)
	require.Equal(delay, stats.SmoothedInterval)
	require.Greater(delay/2, stats.IntervalVar)

	// A reconnect gap is not an interval
	ie.Break()
	ie.Observe(start.Add(time.Minute))
	stats = ie.Stats()
	require.Equal(uint64(4), stats.Frames)
	require.Equal(delay, stats.SmoothedInterval)
	require.Equal(start.Add(time.Minute), stats.LastFrame)

	ie.Observe(start.Add(time.Minute + delay/5))
	require.Equal(delay/5, ie.Stats().MinInterval)
}
