package measure

import (
	"sync"
	"time"
)

// DefaultMetric is safe for concurrent use.
type DefaultMetric struct {
	mu       sync.Mutex
	sum      time.Duration
	last     time.Duration
	calls    int64
	failures int64
}

func (mt *DefaultMetric) record(elapsed time.Duration, failed bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls++
	if failed {
		mt.failures++
	}
	mt.sum += elapsed
	mt.last = elapsed
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.record(elapsed, false)
}

// AddFailure counts a failed call. Its duration is part of the average.
func (mt *DefaultMetric) AddFailure(elapsed time.Duration) {
	mt.record(elapsed, true)
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.calls == 0 {
		return 0
	}

	return round(mt.sum / time.Duration(mt.calls))
}

func (mt *DefaultMetric) LastDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return round(mt.last)
}

func (mt *DefaultMetric) Count() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.calls
}

func (mt *DefaultMetric) Failures() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.failures
}

// precisions maps a lower bound to the unit durations above it are rounded to.
var precisions = []struct {
	above, unit time.Duration
}{
	{time.Hour, time.Minute},
	{time.Second, time.Second},
	{time.Millisecond, time.Millisecond},
	{time.Microsecond, time.Microsecond},
}

func round(d time.Duration) time.Duration {
	for _, p := range precisions {
		if d > p.above {
			return d.Round(p.unit)
		}
	}

	return d
}

var _ Metric = (*DefaultMetric)(nil)
