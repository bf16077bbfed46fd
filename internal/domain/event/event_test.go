package event

import (
	"testing"

	"github.com/garyjia/funding-workflow/internal/domain/workflow"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"submitted", TypeRequestSubmitted, true},
		{"decided", TypeRequestDecided, true},
		{"unknown", Type("instance.created"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{PayloadSubmittedBy: "alice@x.org"}
	evt := NewEvent(TypeRequestSubmitted, "alice-20250315-1", payload)

	if evt.ID == "" {
		t.Error("expected non-empty ID")
	}
	if evt.Type != TypeRequestSubmitted {
		t.Errorf("Type = %v, want %v", evt.Type, TypeRequestSubmitted)
	}
	if evt.RequestID != "alice-20250315-1" {
		t.Errorf("RequestID = %v, want alice-20250315-1", evt.RequestID)
	}
	if evt.CorrelationID != evt.ID {
		t.Errorf("CorrelationID = %v, want event ID %v for a chain root", evt.CorrelationID, evt.ID)
	}
	if evt.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	root := NewEvent(TypeRequestSubmitted, "bob-20250101-3", nil)
	child := NewEventWithCorrelation(TypeRequestDecided, "bob-20250101-3", nil, root.CorrelationID)

	if child.CorrelationID != root.CorrelationID {
		t.Errorf("CorrelationID = %v, want %v", child.CorrelationID, root.CorrelationID)
	}
	if child.ID == root.ID {
		t.Error("child event should have its own ID")
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeRequestDecided, "carol-20250101-1", map[string]interface{}{
		PayloadPreviousStatus: "pending",
	})

	updated := original.WithPayload(PayloadNewStatus, "accepted")

	if _, ok := original.Payload[PayloadNewStatus]; ok {
		t.Error("WithPayload must not modify the original event")
	}
	if got := updated.GetPayloadString(PayloadNewStatus); got != "accepted" {
		t.Errorf("new_status = %q, want accepted", got)
	}
	if got := updated.GetPayloadString(PayloadPreviousStatus); got != "pending" {
		t.Errorf("previous_status = %q, want pending", got)
	}
	if updated.ID != original.ID {
		t.Error("WithPayload should keep the event ID")
	}
}

func TestEvent_GetPayloadString(t *testing.T) {
	evt := NewEvent(TypeRequestDecided, "dan-20250101-1", map[string]interface{}{
		PayloadDecision:  workflow.StateRejected,
		PayloadNewStatus: "rejected",
		"count":          3,
	})

	tests := []struct {
		key  string
		want string
	}{
		{PayloadDecision, "rejected"},
		{PayloadNewStatus, "rejected"},
		{"count", ""},
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := evt.GetPayloadString(tt.key); got != tt.want {
				t.Errorf("GetPayloadString(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		evt := NewEvent(TypeRequestSubmitted, "x", nil)
		if seen[evt.ID] {
			t.Fatalf("duplicate event ID %s", evt.ID)
		}
		seen[evt.ID] = true
	}
}
