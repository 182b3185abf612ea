package systems

import (
	"time"
)

// System is one stage of the per-frame update, such as navigation or pose
// publishing.
type System interface {
	Name() string
	// Priority orders execution: higher runs first.
	Priority() Priority
	Update(deltaTime float64) error
}

// Priority defines execution order priority
type Priority uint16

// System priorities
const (
	PriorityLowest  Priority = 100
	PriorityLow     Priority = 500
	PriorityNormal  Priority = 600
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 1300
)

// SystemFunc adapts a function into a System.
type SystemFunc struct {
	SystemName     string
	SystemPriority Priority
	Fn             func(deltaTime float64) error
}

func (s SystemFunc) Name() string                   { return s.SystemName }
func (s SystemFunc) Priority() Priority             { return s.SystemPriority }
func (s SystemFunc) Update(deltaTime float64) error { return s.Fn(deltaTime) }

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
}

func (m *Metrics) record(elapsed time.Duration, err error, at time.Time) {
	m.ExecutionCount++
	m.TotalExecutionTime += elapsed
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if elapsed > m.MaxExecutionTime {
		m.MaxExecutionTime = elapsed
	}
	if m.ExecutionCount == 1 || elapsed < m.MinExecutionTime {
		m.MinExecutionTime = elapsed
	}
	m.LastExecutionTime = at
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}

// ManagerMetrics provides loop statistics
type ManagerMetrics struct {
	RegisteredSystems uint32
	EnabledSystems    uint32
	Frames            uint64
	TotalUpdateTime   time.Duration
	AverageUpdateTime time.Duration
	SystemErrorCount  map[string]uint32
	LastUpdateTime    time.Time
}
