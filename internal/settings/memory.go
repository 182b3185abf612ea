package settings

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps settings in process, for tests and ephemeral servers.
type MemoryStore struct {
	mu       sync.RWMutex
	value    SceneSettings
	sum      uint64
	saved    bool
	version  uint64
	onChange func(oldValue, newValue SceneSettings)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (SceneSettings, error) {
	if err := ctx.Err(); err != nil {
		return SceneSettings{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.saved {
		return SceneSettings{}, ErrNotFound
	}
	return m.value, nil
}

func (m *MemoryStore) Save(ctx context.Context, s SceneSettings) (bool, error) {
	return m.SaveIf(ctx, s, nil)
}

func (m *MemoryStore) SaveIf(ctx context.Context, s SceneSettings, cond Precondition) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.Validate(); err != nil {
		return false, err
	}
	sum, err := Checksum(s)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	if cond != nil && !cond(m.sum, m.saved) {
		m.mu.Unlock()
		return false, ErrPreconditionFailed
	}
	if m.saved && m.sum == sum {
		m.mu.Unlock()
		return false, nil
	}
	old := m.value
	m.value, m.sum, m.saved = s, sum, true
	m.version++
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(old, s)
	}
	return true, nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved {
		m.version++
	}
	m.value, m.sum, m.saved = SceneSettings{}, 0, false
	return nil
}

// Version counts effective writes and clears.
func (m *MemoryStore) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// OnChange registers a callback run after every effective Save.
func (m *MemoryStore) OnChange(callback func(oldValue, newValue SceneSettings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = callback
}
