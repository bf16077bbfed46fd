package workflow

import "fmt"

// Decision is the closed set of outcomes an approver may choose.
// Its zero value is not a valid decision.
type Decision struct {
	target  State
	trigger Trigger
}

var (
	DecisionAccept   = Decision{target: StateAccepted, trigger: TriggerAccept}
	DecisionSendBack = Decision{target: StateSentBack, trigger: TriggerSendBack}
	DecisionReject   = Decision{target: StateRejected, trigger: TriggerReject}
)

// ParseDecision maps the wire value ("accepted", "sent_back", "rejected") to a Decision
func ParseDecision(s string) (Decision, error) {
	switch State(s) {
	case StateAccepted:
		return DecisionAccept, nil
	case StateSentBack:
		return DecisionSendBack, nil
	case StateRejected:
		return DecisionReject, nil
	}
	return Decision{}, fmt.Errorf("%w: unknown decision %q", ErrInvalidState, s)
}

// Target returns the state the decision resolves a request into
func (d Decision) Target() State {
	return d.target
}

// Trigger returns the state machine trigger for the decision
func (d Decision) Trigger() Trigger {
	return d.trigger
}

// RequiresComments is true for decisions the requester must be told the reason for
func (d Decision) RequiresComments() bool {
	return d == DecisionSendBack || d == DecisionReject
}

// IsZero reports whether d was never set
func (d Decision) IsZero() bool {
	return d == Decision{}
}

func (d Decision) String() string {
	return string(d.target)
}
