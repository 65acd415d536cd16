package systemdb

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memorySystem struct {
	system         System
	configurations []Configuration
	current        int // index into configurations
}

// Memory is an in-process Database. The zero value is not usable; call
// NewMemory.
type Memory struct {
	mu      sync.Mutex
	systems []*memorySystem
	current int // index into systems, -1 when empty
	nextID  int64
	now     func() time.Time
}

// NewMemory returns an empty in-memory database.
func NewMemory() *Memory {
	return &Memory{current: -1, now: time.Now}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// CreateSystem adds a system with one empty configuration. The first system
// becomes current.
func (m *Memory) CreateSystem(_ context.Context, name string) (*System, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		name = defaultSystemName(len(m.systems) + 1)
	}
	now := m.now().UTC()
	ms := &memorySystem{system: System{ID: m.id(), Name: name, CreatedAt: now}}
	ms.configurations = append(ms.configurations, Configuration{
		ID: m.id(), SystemID: ms.system.ID, Name: defaultConfigurationName(1), CreatedAt: now,
	})
	m.systems = append(m.systems, ms)
	if m.current < 0 {
		m.current = len(m.systems) - 1
	}
	return ms.snapshot(), nil
}

// CreateConfiguration adds a configuration to the given system without
// changing the system's current configuration.
func (m *Memory) CreateConfiguration(_ context.Context, systemID int64, name string) (*Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, _, err := m.byID(systemID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = defaultConfigurationName(len(ms.configurations) + 1)
	}
	c := Configuration{ID: m.id(), SystemID: systemID, Name: name, CreatedAt: m.now().UTC()}
	ms.configurations = append(ms.configurations, c)
	return &c, nil
}

// System resolves ref to a system.
func (m *Memory) System(_ context.Context, ref string) (*System, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, err := m.resolveSystem(ref)
	if err != nil {
		return nil, err
	}
	return m.systems[i].snapshot(), nil
}

// Configuration resolves ref to a configuration of the given system.
func (m *Memory) Configuration(_ context.Context, systemID int64, ref string) (*Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, _, err := m.byID(systemID)
	if err != nil {
		return nil, err
	}
	if ref == RefCurrent {
		c := ms.configurations[ms.current]
		return &c, nil
	}
	i, isOrdinal, err := ordinal(ref, len(ms.configurations))
	if err != nil {
		return nil, fmt.Errorf("configuration %q: %w", ref, err)
	}
	if !isOrdinal {
		i = -1
		for j, c := range ms.configurations {
			if c.Name == ref {
				i = j
				break
			}
		}
		if i < 0 {
			return nil, fmt.Errorf("configuration %q: %w", ref, ErrNotFound)
		}
	}
	c := ms.configurations[i]
	return &c, nil
}

// SetCurrentSystem makes the given system current.
func (m *Memory) SetCurrentSystem(_ context.Context, systemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, i, err := m.byID(systemID)
	if err != nil {
		return err
	}
	m.current = i
	return nil
}

// SetCurrentConfiguration makes a configuration current within its system.
func (m *Memory) SetCurrentConfiguration(_ context.Context, systemID, configurationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, _, err := m.byID(systemID)
	if err != nil {
		return err
	}
	for j, c := range ms.configurations {
		if c.ID == configurationID {
			ms.current = j
			return nil
		}
	}
	return fmt.Errorf("configuration %d of system %d: %w", configurationID, systemID, ErrNotFound)
}

// Summary counts the systems and the current system's configurations.
func (m *Memory) Summary(_ context.Context) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{NSystems: len(m.systems)}
	if m.current >= 0 {
		cur := m.systems[m.current]
		s.CurrentSystem = m.current + 1
		s.NConfigurations = len(cur.configurations)
		s.CurrentConfiguration = cur.current + 1
	}
	return s, nil
}

func (m *Memory) resolveSystem(ref string) (int, error) {
	if ref == RefCurrent {
		if m.current < 0 {
			return 0, ErrNoCurrentSystem
		}
		return m.current, nil
	}
	i, isOrdinal, err := ordinal(ref, len(m.systems))
	if err != nil {
		return 0, fmt.Errorf("system %q: %w", ref, err)
	}
	if isOrdinal {
		return i, nil
	}
	for j, ms := range m.systems {
		if ms.system.Name == ref {
			return j, nil
		}
	}
	return 0, fmt.Errorf("system %q: %w", ref, ErrNotFound)
}

func (m *Memory) byID(id int64) (*memorySystem, int, error) {
	for i, ms := range m.systems {
		if ms.system.ID == id {
			return ms, i, nil
		}
	}
	return nil, 0, fmt.Errorf("system %d: %w", id, ErrNotFound)
}

func (ms *memorySystem) snapshot() *System {
	s := ms.system
	c := ms.configurations[ms.current]
	s.Configuration = &c
	return &s
}
