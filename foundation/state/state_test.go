package state_test

import (
	"testing"

	"github.com/voxelapi/goVoxelCoach/foundation/state"
)

func TestMachineForwardPath(t *testing.T) {
	m := state.NewMachine()

	if m.Current() != state.Idle {
		t.Fatalf("new machine in %s, want idle", m.Current())
	}

	for _, p := range []state.Phase{state.Active, state.Ending, state.Terminated} {
		if err := m.Transition(p); err != nil {
			t.Fatalf("transition to %s: %v", p, err)
		}
		if m.Current() != p {
			t.Fatalf("current = %s, want %s", m.Current(), p)
		}
	}
}

func TestMachineIllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		walk []state.Phase
		to   state.Phase
	}{
		{"idle cannot end", nil, state.Ending},
		{"idle cannot terminate", nil, state.Terminated},
		{"active cannot terminate", []state.Phase{state.Active}, state.Terminated},
		{"active cannot restart", []state.Phase{state.Active}, state.Active},
		{"no way back from ending", []state.Phase{state.Active, state.Ending}, state.Active},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := state.NewMachine()
			for _, p := range tt.walk {
				if err := m.Transition(p); err != nil {
					t.Fatal(err)
				}
			}
			if err := m.Transition(tt.to); err == nil {
				t.Fatalf("transition to %s succeeded, want error", tt.to)
			}
		})
	}
}

func TestTerminatedIsTerminal(t *testing.T) {
	m := state.NewMachine()
	for _, p := range []state.Phase{state.Active, state.Ending, state.Terminated} {
		if err := m.Transition(p); err != nil {
			t.Fatal(err)
		}
	}

	for _, p := range []state.Phase{state.Idle, state.Active, state.Ending, state.Terminated} {
		if err := m.Transition(p); err == nil {
			t.Fatalf("transition out of terminated to %s succeeded", p)
		}
	}
}
