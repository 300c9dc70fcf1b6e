package camera

import (
	"mjpeg-toolkit/util/math"
	"sync"
	"time"
)

// Stats is a snapshot of the frame pacing observed by a Reader.
type Stats struct {
	Frames uint64
	// Time the latest frame was completed
	LastFrame time.Time
	// Shortest gap seen between two frames of the same session
	MinInterval time.Duration
	// Moving average of the gap between frames and its mean deviation
	SmoothedInterval time.Duration
	IntervalVar      time.Duration
}

// IntervalEstimator tracks the time between consecutive frames.
type IntervalEstimator struct {
	frames uint64
	last   time.Time
	// The next frame starts a new series
	broken bool

	min      time.Duration
	smoothed time.Duration
	variance time.Duration

	mu sync.RWMutex
}

// Observe records a frame completed at now.
func (ie *IntervalEstimator) Observe(now time.Time) {
	ie.mu.Lock()
	defer ie.mu.Unlock()

	ie.frames++
	last := ie.last
	ie.last = now
	if last.IsZero() || ie.broken {
		ie.broken = false
		return
	}
	interval := now.Sub(last)

	if ie.min <= 0 || ie.min > interval {
		ie.min = interval
	}
	if ie.smoothed <= 0 {
		ie.smoothed = interval
	} else {
		ie.smoothed = (ie.smoothed * 7 / 8) + (interval / 8)
	}
	if ie.variance <= 0 {
		ie.variance = interval / 2
	} else {
		sample := math.AbsDuration(ie.smoothed - interval)
		ie.variance = (ie.variance * 3 / 4) + (sample / 4)
	}
}

// Break forgets the previous frame so the reconnect gap is not counted as an
// interval.
func (ie *IntervalEstimator) Break() {
	ie.mu.Lock()
	defer ie.mu.Unlock()
	ie.broken = true
}

func (ie *IntervalEstimator) Stats() Stats {
	ie.mu.RLock()
	defer ie.mu.RUnlock()
	return Stats{
		Frames:           ie.frames,
		LastFrame:        ie.last,
		MinInterval:      ie.min,
		SmoothedInterval: ie.smoothed,
		IntervalVar:      ie.variance,
	}
}
