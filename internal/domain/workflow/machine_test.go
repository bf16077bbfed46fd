package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateAccepted, true},
		{StateSentBack, true},
		{StateRejected, true},
		{State("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"sent back", StateSentBack, true},
		{"upper case is not valid", State("PENDING"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in               string
		want             Decision
		wantErr          bool
		requiresComments bool
	}{
		{"accepted", DecisionAccept, false, false},
		{"sent_back", DecisionSendBack, false, true},
		{"rejected", DecisionReject, false, true},
		{"pending", Decision{}, true, false},
		{"ACCEPTED", Decision{}, true, false},
		{"", Decision{}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecision(%q) expected error", tt.in)
				}
				if !errors.Is(err, ErrInvalidState) {
					t.Errorf("ParseDecision(%q) error = %v, want ErrInvalidState", tt.in, err)
				}
				if !got.IsZero() {
					t.Errorf("ParseDecision(%q) returned non-zero decision on error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecision(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecision(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.RequiresComments() != tt.requiresComments {
				t.Errorf("RequiresComments() = %v, want %v", got.RequiresComments(), tt.requiresComments)
			}
			if got.Target().String() != tt.in {
				t.Errorf("Target() = %v, want %v", got.Target(), tt.in)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfiguration_PermitPanicsOnConflictingEdge(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic when a trigger is mapped to two targets")
		}
	}()

	builder.Configure(StatePending).
		Permit(TriggerAccept, StateAccepted).
		Permit(TriggerAccept, StateRejected)
}

func TestStateMachine_Fire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		Permit(TriggerAccept, StateAccepted).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StatePending)

	if !machine.CanFire(TriggerAccept) {
		t.Error("CanFire() should return true for permitted trigger")
	}
	if machine.CanFire(TriggerSendBack) {
		t.Error("CanFire() should return false for unconfigured trigger")
	}

	if err := machine.Fire(context.Background(), TriggerAccept); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateAccepted {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateAccepted)
	}

	err := machine.Fire(context.Background(), TriggerReject)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() from terminal state error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateAccepted {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateAccepted, machine.State())
	}
}

func TestStateMachine_FireCancelledContext(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).Permit(TriggerAccept, StateAccepted)
	machine := builder.Build(StatePending)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := machine.Fire(ctx, TriggerAccept); !errors.Is(err, context.Canceled) {
		t.Errorf("Fire() error = %v, want context.Canceled", err)
	}
	if machine.State() != StatePending {
		t.Errorf("State = %v, want %v", machine.State(), StatePending)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerAccept, StateAccepted)

	machine := builder.Build(StatePending)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}
	if triggers[0] != TriggerAccept || triggers[1] != TriggerReject {
		t.Errorf("PermittedTriggers() = %v, want sorted [ACCEPT REJECT]", triggers)
	}

	terminal := builder.Build(StateRejected)
	if got := terminal.PermittedTriggers(); len(got) != 0 {
		t.Errorf("terminal PermittedTriggers() = %v, want none", got)
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		Permit(TriggerAccept, StateAccepted)

	machine1 := builder.Build(StatePending)
	machine2 := builder.Build(StatePending)

	if err := machine1.Fire(context.Background(), TriggerAccept); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine2.State() != StatePending {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StatePending)
	}

	// Reconfiguring the builder after Build must not leak into built machines
	builder.Configure(StatePending).Permit(TriggerSendBack, StateSentBack)
	if machine2.CanFire(TriggerSendBack) {
		t.Error("machine2 should not see transitions added after Build()")
	}
}
