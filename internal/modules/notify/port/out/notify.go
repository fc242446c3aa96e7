package out

import (
	"context"

	"studyhub/internal/modules/notify/domain"
)

// PreferenceStore returns ErrNotFound for users without a stored preference.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (domain.Preference, error)
	Put(ctx context.Context, pref domain.Preference) error
}

type Sender interface {
	Send(ctx context.Context, contact string, msg domain.Message) error
}
