package in

import (
	"context"

	notifydto "studyhub/internal/modules/notify/dto"
	notifyin "studyhub/internal/modules/notify/port/in"
)

type CLIHandler struct {
	usecase notifyin.Usecase
}

func NewCLIHandler(usecase notifyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (notifydto.PreferenceOutput, error) {
	return h.usecase.Preferences(ctx)
}

func (h CLIHandler) SetEnabled(ctx context.Context, enabled bool) (notifydto.ToggleResult, error) {
	return h.usecase.SetEnabled(ctx, enabled)
}

func (h CLIHandler) SetContact(ctx context.Context, contact string) (notifydto.ToggleResult, error) {
	return h.usecase.SetContact(ctx, contact)
}

func (h CLIHandler) Test(ctx context.Context) notifydto.SendOutput {
	return h.usecase.Send(ctx, notifydto.SendInput{Subject: "Test notification", Body: "Notifications are working."})
}
