package logger

import (
	"sync"
	"time"
)

// timing aggregates the samples recorded under one name. Samples are not kept,
// so a watch process can record timings indefinitely.
type timing struct {
	count    int
	total    time.Duration
	min, max time.Duration
}

func (t *timing) add(d time.Duration) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.count++
	t.total += d
}

func (t timing) stats() map[string]interface{} {
	return map[string]interface{}{
		"count":   t.count,
		"total":   t.total.String(),
		"average": (t.total / time.Duration(t.count)).String(),
		"min":     t.min.String(),
		"max":     t.max.String(),
	}
}

// Metrics collects run counters, gauges and timings. Safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]*timing
}

var defaultMetrics = NewMetrics()

// NewMetrics returns an empty collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]*timing),
	}
}

// IncrCounter adds one to a counter
func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds delta to a counter
func (m *Metrics) AddCounter(name string, delta int64) {
	m.mu.Lock()
	m.counters[name] += delta
	m.mu.Unlock()
}

// SetGauge overwrites a gauge
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	m.gauges[name] = value
	m.mu.Unlock()
}

// RecordTiming adds one sample to a timing
func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timings[name]
	if !ok {
		t = &timing{}
		m.timings[name] = t
	}
	t.add(d)
}

// Since records the time elapsed since start
func (m *Metrics) Since(name string, start time.Time) {
	m.RecordTiming(name, time.Since(start))
}

// GetSnapshot copies the current values into a map with the keys "counters"
// (map[string]int64), "gauges" (map[string]float64) and "timings"
// (name to count, total, average, min and max).
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}
	timings := make(map[string]map[string]interface{}, len(m.timings))
	for k, t := range m.timings {
		timings[k] = t.stats()
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

// Fields flattens the current values into log fields: counters and gauges by
// name, timings as "<name>_avg".
func (m *Metrics) Fields() Fields {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := make(Fields, len(m.counters)+len(m.gauges)+len(m.timings))
	for k, v := range m.counters {
		f[k] = v
	}
	for k, v := range m.gauges {
		f[k] = v
	}
	for k, t := range m.timings {
		f[k+"_avg"] = (t.total / time.Duration(t.count)).String()
	}
	return f
}

// IncrCounter increments a counter on the process-wide collector
func IncrCounter(name string) { defaultMetrics.IncrCounter(name) }

// SetGauge sets a gauge on the process-wide collector
func SetGauge(name string, value float64) { defaultMetrics.SetGauge(name, value) }

// RecordTiming records a timing on the process-wide collector
func RecordTiming(name string, d time.Duration) { defaultMetrics.RecordTiming(name, d) }

// GetMetricsSnapshot returns the process-wide collector's values
func GetMetricsSnapshot() map[string]interface{} { return defaultMetrics.GetSnapshot() }
