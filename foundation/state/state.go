// Package state holds the call lifecycle machine. A session is one-shot:
// Idle -> Active -> Ending -> Terminated, no transitions leave Terminated.
package state

import (
	"fmt"
	"sync"
)

type Phase int

const (
	Idle Phase = iota
	Active
	Ending
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Ending:
		return "ending"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

type Machine struct {
	mu      sync.RWMutex
	current Phase
}

func NewMachine() *Machine {
	return &Machine{current: Idle}
}

func (m *Machine) Current() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition advances the machine to the given phase. Only the forward
// edges Idle->Active, Active->Ending and Ending->Terminated are legal.
func (m *Machine) Transition(to Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to != m.current+1 || m.current == Terminated {
		return fmt.Errorf("illegal transition %s -> %s", m.current, to)
	}

	m.current = to
	return nil
}

// Is reports whether the machine is currently in the given phase.
func (m *Machine) Is(p Phase) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current == p
}
