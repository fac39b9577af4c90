// internal/actuator/memory.go
package actuator

import (
	"context"
	"sync"
)

// Memory is an in-process output. Bench runs and tests.
type Memory struct {
	mu   sync.Mutex
	on   bool
	sets int

	// next errors returned by Set/Check, consumed one per call
	SetErrs   []error
	CheckErrs []error
}

func (m *Memory) Set(ctx context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.SetErrs) > 0 {
		err := m.SetErrs[0]
		m.SetErrs = m.SetErrs[1:]
		if err != nil {
			return err
		}
	}
	m.on = on
	m.sets++
	return nil
}

func (m *Memory) Check(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.CheckErrs) == 0 {
		return nil
	}
	err := m.CheckErrs[0]
	m.CheckErrs = m.CheckErrs[1:]
	return err
}

func (m *Memory) On() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

func (m *Memory) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
