package workflow

import (
	domainwf "github.com/garyjia/funding-workflow/internal/domain/workflow"
)

var fundingTransitions = buildFundingTransitions()

func buildFundingTransitions() domainwf.StateMachineBuilder {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerAccept, domainwf.StateAccepted).
		Permit(domainwf.TriggerSendBack, domainwf.StateSentBack).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// ACCEPTED, SENT_BACK and REJECTED are terminal states - no outgoing transitions

	return builder
}

// BuildFundingStateMachine creates a state machine for one request positioned at initialState
func BuildFundingStateMachine(initialState domainwf.State) domainwf.StateMachine {
	return fundingTransitions.Build(initialState)
}
