// Package workflow applies approver decisions to stored funding requests.
package workflow

import (
	"context"
	"time"

	"github.com/garyjia/funding-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/funding-workflow/internal/domain/workflow"
)

// DecideCommand is one decision submitted through an emailed decision link
type DecideCommand struct {
	RequestID string
	Token     string
	Decision  string
	Comments  string
}

// DecideResult describes a committed decision
type DecideResult struct {
	Request       *entity.FundingRequest
	PreviousState domainwf.State
	Decision      domainwf.Decision
}

// Engine drives the funding request lifecycle
type Engine interface {
	// Decide validates and applies an approver decision. Errors match the
	// service error taxonomy (ErrValidation, ErrNotFound, ErrInvalidToken,
	// ErrAlreadyDecided, ErrStoreUnavailable).
	Decide(ctx context.Context, cmd DecideCommand) (*DecideResult, error)

	// Authorize loads a request for a decision link, checking the token but not
	// the status. Errors match ErrNotFound, ErrInvalidToken or ErrStoreUnavailable.
	Authorize(ctx context.Context, requestID, token string) (*entity.FundingRequest, error)

	// CurrentState returns the stored status of a request
	CurrentState(ctx context.Context, requestID string) (domainwf.State, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Clock returns the current time
type Clock func() time.Time
