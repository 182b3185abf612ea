package systems

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zeusync/lunarnav/internal/core/observability/log"
)

type entry struct {
	system  System
	enabled bool
	order   int
	metrics Metrics
}

// Loop runs registered systems once per frame in priority order. Systems
// of equal priority keep their registration order. A failing or panicking
// system does not stop the rest of the frame.
type Loop struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []*entry
	seq     int
	metrics ManagerMetrics
	logger  log.Log
	onError []func(name string, err error)
	nowFunc func() time.Time
}

// NewLoop creates an empty loop. A nil logger discards output.
func NewLoop(logger log.Log) *Loop {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loop{
		entries: make(map[string]*entry),
		metrics: ManagerMetrics{SystemErrorCount: make(map[string]uint32)},
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (l *Loop) Register(s System) error {
	if s == nil {
		return ErrNilSystem
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[s.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.Name())
	}
	l.seq++
	e := &entry{system: s, enabled: true, order: l.seq}
	l.entries[s.Name()] = e
	l.order = append(l.order, e)
	sort.SliceStable(l.order, func(i, j int) bool {
		if l.order[i].system.Priority() != l.order[j].system.Priority() {
			return l.order[i].system.Priority() > l.order[j].system.Priority()
		}
		return l.order[i].order < l.order[j].order
	})
	return nil
}

func (l *Loop) Unregister(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSystemNotFound, name)
	}
	delete(l.entries, name)
	for i, o := range l.order {
		if o == e {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

func (l *Loop) GetSystem(name string) (System, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	if !ok {
		return nil, false
	}
	return e.system, true
}

func (l *Loop) HasSystem(name string) bool {
	_, ok := l.GetSystem(name)
	return ok
}

func (l *Loop) EnableSystem(name string) error  { return l.setEnabled(name, true) }
func (l *Loop) DisableSystem(name string) error { return l.setEnabled(name, false) }

func (l *Loop) setEnabled(name string, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSystemNotFound, name)
	}
	e.enabled = enabled
	return nil
}

// GetExecutionOrder lists system names in the order Frame runs them.
func (l *Loop) GetExecutionOrder() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.order))
	for _, e := range l.order {
		names = append(names, e.system.Name())
	}
	return names
}

// OnSystemError registers a callback for every failed or panicked update.
func (l *Loop) OnSystemError(fn func(name string, err error)) {
	l.mu.Lock()
	l.onError = append(l.onError, fn)
	l.mu.Unlock()
}

// Frame runs every enabled system once and joins their errors.
func (l *Loop) Frame(deltaTime float64) error {
	l.mu.Lock()
	run := make([]*entry, 0, len(l.order))
	for _, e := range l.order {
		if e.enabled {
			run = append(run, e)
		}
	}
	hooks := append(([]func(string, error))(nil), l.onError...)
	l.mu.Unlock()

	frameStart := l.nowFunc()
	var all error
	for _, e := range run {
		start := l.nowFunc()
		err := l.update(e.system, deltaTime)
		end := l.nowFunc()

		l.mu.Lock()
		e.metrics.record(end.Sub(start), err, end)
		if err != nil {
			l.metrics.SystemErrorCount[e.system.Name()]++
		}
		l.mu.Unlock()

		if err != nil {
			all = errors.Join(all, err)
			l.logger.Warn("System update failed",
				log.String("system", e.system.Name()),
				log.Error(err))
			for _, hook := range hooks {
				hook(e.system.Name(), err)
			}
		}
	}

	frameEnd := l.nowFunc()
	l.mu.Lock()
	l.metrics.Frames++
	l.metrics.TotalUpdateTime += frameEnd.Sub(frameStart)
	l.metrics.AverageUpdateTime = l.metrics.TotalUpdateTime / time.Duration(l.metrics.Frames)
	l.metrics.LastUpdateTime = frameEnd
	l.mu.Unlock()
	return all
}

func (l *Loop) update(s System, deltaTime float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrSystemPanicked, s.Name(), r)
		}
	}()
	if err = s.Update(deltaTime); err != nil {
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	return nil
}

// GetMetrics returns a snapshot of loop statistics.
func (l *Loop) GetMetrics() ManagerMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.metrics
	m.RegisteredSystems = uint32(len(l.entries))
	m.EnabledSystems = 0
	for _, e := range l.entries {
		if e.enabled {
			m.EnabledSystems++
		}
	}
	m.SystemErrorCount = make(map[string]uint32, len(l.metrics.SystemErrorCount))
	for k, v := range l.metrics.SystemErrorCount {
		m.SystemErrorCount[k] = v
	}
	return m
}

func (l *Loop) GetSystemMetrics(name string) (Metrics, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	if !ok {
		return Metrics{}, false
	}
	return e.metrics, true
}
