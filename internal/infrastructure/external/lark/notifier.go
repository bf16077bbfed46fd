package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/port"
)

const (
	receiveIDTypeEmail = "email"
	msgTypePost        = "post"
)

// MessageSender is the subset of MessageAPI the notifier needs
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Notifier delivers port.Message values as Lark rich-text posts, addressed by email
type Notifier struct {
	sender MessageSender
	logger *zap.Logger
}

// NewNotifier creates a Lark notifier
func NewNotifier(sender MessageSender, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		logger: logger,
	}
}

// Send posts msg to every recipient. A failed recipient does not stop the
// others; any failure is reported as a *port.DeliveryError.
func (n *Notifier) Send(ctx context.Context, msg port.Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	content, err := buildPostContent(msg.Subject, msg.Body)
	if err != nil {
		return err
	}

	result := &port.DeliveryError{Failed: make(map[string]error)}
	for _, to := range msg.To {
		if _, err := n.sender.SendMessage(ctx, receiveIDTypeEmail, to, msgTypePost, content); err != nil {
			n.logger.Warn("Lark delivery failed", zap.String("recipient", to), zap.Error(err))
			result.Failed[to] = err
			continue
		}
		result.Delivered = append(result.Delivered, to)
	}
	if len(result.Failed) == 0 {
		return nil
	}
	return result
}

type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

type postBody struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// buildPostContent renders one paragraph per body line
func buildPostContent(subject, body string) (string, error) {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	paragraphs := make([][]postElement, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, []postElement{{Tag: "text", Text: line}})
	}

	data, err := json.Marshal(map[string]postBody{
		"en_us": {Title: subject, Content: paragraphs},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal post content: %w", err)
	}
	return string(data), nil
}

var _ port.Notifier = (*Notifier)(nil)
