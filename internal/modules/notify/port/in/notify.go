package in

import (
	"context"

	"studyhub/internal/modules/notify/dto"
)

// Usecase delivers best-effort notifications. Send never fails the caller's
// primary flow; problems are reported in the outcome.
type Usecase interface {
	Send(ctx context.Context, input dto.SendInput) dto.SendOutput
	Preferences(ctx context.Context) (dto.PreferenceOutput, error)
	SetEnabled(ctx context.Context, enabled bool) (dto.ToggleResult, error)
	SetContact(ctx context.Context, contact string) (dto.ToggleResult, error)
}
