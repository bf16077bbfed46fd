package port

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/garyjia/funding-workflow/internal/domain/entity"
)

// Message is one outbound notification
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Notifier delivers messages to one or more addresses. When only some
// recipients fail, Send returns a *DeliveryError naming them.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports the recipients a send could not reach
type DeliveryError struct {
	Delivered []string
	Failed    map[string]error
}

func (e *DeliveryError) Error() string {
	failed := make([]string, 0, len(e.Failed))
	for to := range e.Failed {
		failed = append(failed, to)
	}
	sort.Strings(failed)

	parts := make([]string, 0, len(failed))
	for _, to := range failed {
		parts = append(parts, fmt.Sprintf("%s: %v", to, e.Failed[to]))
	}
	return fmt.Sprintf("delivered to %d of %d recipients; %s",
		len(e.Delivered), len(e.Delivered)+len(e.Failed), strings.Join(parts, "; "))
}

// Unwrap exposes the per-recipient causes to errors.Is and errors.As
func (e *DeliveryError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		out = append(out, err)
	}
	return out
}

// Reached reports whether at least one recipient received the message
func (e *DeliveryError) Reached() bool {
	return len(e.Delivered) > 0
}

// IdentityProvider yields the verified identity behind an HTTP request.
// It returns (nil, nil) when the request carries no identity.
type IdentityProvider interface {
	Identify(r *http.Request) (*entity.Identity, error)
}

// RoleDirectory resolves roles for addresses and audiences for roles
type RoleDirectory interface {
	Roles(ctx context.Context, email string) ([]string, error)
	Members(ctx context.Context, role string) ([]string, error)
}
