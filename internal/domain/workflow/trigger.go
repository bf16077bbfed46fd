package workflow

// Trigger represents a decision event that moves a request out of pending
type Trigger string

const (
	TriggerAccept   Trigger = "ACCEPT"
	TriggerSendBack Trigger = "SEND_BACK"
	TriggerReject   Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
