// Package console provides a Notifier that writes messages to the log, for local development.
package console

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/port"
)

// Notifier logs every message instead of delivering it
type Notifier struct {
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Send(ctx context.Context, msg port.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	n.logger.Info("Notification",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}

var _ port.Notifier = (*Notifier)(nil)
