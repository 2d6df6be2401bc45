package measure

import (
	"sort"
	"sync"
	"time"
)

// DefaultMeasure keeps one DefaultMetric per operation name.
type DefaultMeasure struct {
	mu      sync.Mutex
	metrics map[string]*DefaultMetric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		metrics: make(map[string]*DefaultMetric),
	}
}

func (m *DefaultMeasure) AddMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt := &DefaultMetric{}
	m.metrics[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.metrics[name]; ok {
		return mt
	}
	mt := &DefaultMetric{}
	m.metrics[name] = mt

	return mt
}

// AllMetrics returns a copy of the registered metrics.
func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make(map[string]Metric, len(m.metrics))
	for name, mt := range m.metrics {
		res[name] = mt
	}

	return res
}

// Names lists the metric names, sorted.
func Names(m Measure) []string {
	all := m.AllMetrics()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Observe records one call of name that started at start and ended with err.
// A nil m records nothing.
func Observe(m Measure, name string, start time.Time, err error) {
	if m == nil {
		return
	}

	elapsed := time.Since(start)
	if err != nil {
		m.GetMetric(name).AddFailure(elapsed)
		return
	}
	m.GetMetric(name).AddDuration(elapsed)
}

var _ Measure = (*DefaultMeasure)(nil)
