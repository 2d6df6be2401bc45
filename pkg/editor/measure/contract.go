package measure

import "time"

// Measure groups metrics by operation name, e.g. "load" or "save".
type Measure interface {
	// AddMetric registers a fresh metric under name, replacing any previous one.
	AddMetric(name string) Metric
	// GetMetric returns the metric for name, creating it on first use.
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric accumulates the calls of one operation.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AddFailure(elapsed time.Duration)
	AVGDuration() time.Duration
	LastDuration() time.Duration
	Count() int64
	Failures() int64
}
