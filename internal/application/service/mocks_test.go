package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/garyjia/funding-workflow/internal/application/port"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockNotifier records messages and fails any send whose subject contains
// failOn. Addresses in unreachable are dropped per recipient, like a real transport.
type mockNotifier struct {
	mu          sync.Mutex
	sent        []port.Message
	failOn      string
	err         error
	unreachable map[string]bool
}

func (m *mockNotifier) Send(ctx context.Context, msg port.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil && (m.failOn == "" || strings.Contains(msg.Subject, m.failOn)) {
		return m.err
	}

	delivery := &port.DeliveryError{Failed: map[string]error{}}
	for _, to := range msg.To {
		if m.unreachable[to] {
			delivery.Failed[to] = errors.New("user not found")
			continue
		}
		delivery.Delivered = append(delivery.Delivered, to)
	}
	if len(delivery.Delivered) > 0 {
		delivered := msg
		delivered.To = delivery.Delivered
		m.sent = append(m.sent, delivered)
	}
	if len(delivery.Failed) > 0 {
		return delivery
	}
	return nil
}

func (m *mockNotifier) Sent() []port.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]port.Message(nil), m.sent...)
}

type mockDirectory struct {
	members map[string][]string
	err     error
}

func (m *mockDirectory) Roles(ctx context.Context, email string) ([]string, error) {
	var roles []string
	for role, emails := range m.members {
		for _, e := range emails {
			if e == email {
				roles = append(roles, role)
			}
		}
	}
	return roles, m.err
}

func (m *mockDirectory) Members(ctx context.Context, role string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.members[role], nil
}
