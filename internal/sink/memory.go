package sink

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Sink used for local runs and tests.
type Memory struct {
	mu           sync.RWMutex
	metrics      []MetricRow
	computations []ComputationResult
	nextID       int64
	now          func() time.Time
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// AppendMetricRow stores a metric row stamped with the sink clock.
func (m *Memory) AppendMetricRow(ctx context.Context, name string, value float64, tags Tags) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateMetric(name, value); err != nil {
		return err
	}
	if tags == nil {
		tags = Tags{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.metrics = append(m.metrics, MetricRow{
		ID:        m.nextID,
		Timestamp: m.now().UTC(),
		Name:      name,
		Value:     value,
		Tags:      tags.Clone(),
	})
	return nil
}

// AppendComputationResult stores a computation result stamped with the sink clock.
func (m *Memory) AppendComputationResult(ctx context.Context, result ComputationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	result.ID = m.nextID
	result.Timestamp = m.now().UTC()
	m.computations = append(m.computations, result)
	return nil
}

// QueryRecent returns up to q.Limit rows, newest first.
func (m *Memory) QueryRecent(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]Row, 0, q.Limit)
	switch q.Table {
	case TablePerformance:
		for i := len(m.metrics) - 1; i >= 0 && len(rows) < q.Limit; i-- {
			r := m.metrics[i]
			if strings.HasPrefix(r.Name, q.NamePrefix) {
				rows = append(rows, Row{ID: r.ID, Timestamp: r.Timestamp, Name: r.Name})
			}
		}
	case TableComputations:
		for i := len(m.computations) - 1; i >= 0 && len(rows) < q.Limit; i-- {
			r := m.computations[i]
			if strings.HasPrefix(r.Type, q.NamePrefix) {
				rows = append(rows, Row{ID: r.ID, Timestamp: r.Timestamp, Name: r.Type})
			}
		}
	}
	return rows, nil
}

// Summary returns row counts per table.
func (m *Memory) Summary(ctx context.Context) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Summary{
		PerformanceData:    int64(len(m.metrics)),
		ComputationResults: int64(len(m.computations)),
	}, nil
}

// Now returns the sink clock.
func (m *Memory) Now(ctx context.Context) (time.Time, error) {
	return m.now().UTC(), nil
}

// MetricRows returns a copy of all stored metric rows in insertion order.
func (m *Memory) MetricRows() []MetricRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MetricRow, len(m.metrics))
	copy(out, m.metrics)
	return out
}

// ComputationResults returns a copy of all stored computation results.
func (m *Memory) ComputationResults() []ComputationResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ComputationResult, len(m.computations))
	copy(out, m.computations)
	return out
}
