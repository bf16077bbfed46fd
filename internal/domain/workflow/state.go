package workflow

// State represents the lifecycle status of a funding request
type State string

const (
	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateSentBack State = "sent_back"
	StateRejected State = "rejected"
)

var validStates = map[State]bool{
	StatePending:  true,
	StateAccepted: true,
	StateSentBack: true,
	StateRejected: true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return s.IsValid() && s != StatePending
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// Label returns a human readable form of the state
func (s State) Label() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateAccepted:
		return "Accepted"
	case StateSentBack:
		return "Sent back"
	case StateRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
