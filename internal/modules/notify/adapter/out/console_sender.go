package out

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"studyhub/internal/modules/notify/domain"
	notifyout "studyhub/internal/modules/notify/port/out"
)

// ConsoleSender logs messages instead of delivering them; used when no
// SendGrid key is configured.
type ConsoleSender struct {
	log hclog.Logger
}

func NewConsoleSender(logger hclog.Logger) notifyout.Sender {
	return &ConsoleSender{log: logger}
}

func (s *ConsoleSender) Send(_ context.Context, contact string, msg domain.Message) error {
	s.log.Info("notification", "to", contact, "subject", msg.Subject, "body", msg.Body)
	return nil
}
