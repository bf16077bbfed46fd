package dispatcher

import (
	"context"

	"github.com/garyjia/funding-workflow/internal/domain/event"
)

// Handler reacts to one funding request event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a subscription as listed by ListHandlers
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}
