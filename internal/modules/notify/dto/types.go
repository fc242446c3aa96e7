package dto

import "time"

type SendInput struct {
	Subject string
	Body    string
}

type SendOutcome string

const (
	SendSent    SendOutcome = "sent"
	SendSkipped SendOutcome = "skipped"
	SendFailed  SendOutcome = "failed"
)

type SendOutput struct {
	Outcome SendOutcome
	Reason  string
}

type PreferenceOutput struct {
	UserID    string
	Enabled   bool
	Contact   string
	UpdatedAt time.Time
}

type ToggleOutcome string

const (
	ToggleCommitted  ToggleOutcome = "committed"
	ToggleRolledBack ToggleOutcome = "rolled_back"
)

// ToggleResult carries the tentative state shown while the write was in
// flight and the state that actually holds afterwards.
type ToggleResult struct {
	Outcome   ToggleOutcome
	Tentative PreferenceOutput
	Current   PreferenceOutput
	Reason    string
}
