package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Preference is a user's opt-in flag and registered contact channel.
type Preference struct {
	UserID    string
	Enabled   bool
	Contact   string
	UpdatedAt time.Time
}

// Deliverable reports whether a message may be sent at all.
func (p Preference) Deliverable() bool {
	return p.Enabled && p.Contact != ""
}

type Message struct {
	Subject string
	Body    string
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.Subject) == "" && strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("message is empty")
	}
	return nil
}

// NormalizeContact accepts an e-mail address, optionally with a display name.
func NormalizeContact(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("invalid contact %q: %w", raw, err)
	}
	return strings.ToLower(addr.Address), nil
}
