package in

import (
	"context"

	"studyhub/internal/modules/balancesync/dto"
	syncin "studyhub/internal/modules/balancesync/port/in"
)

type CLIHandler struct {
	usecase syncin.Usecase
}

func NewCLIHandler(usecase syncin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Watch blocks until ctx ends.
func (h CLIHandler) Watch(ctx context.Context) error {
	return h.usecase.Watch(ctx)
}

func (h CLIHandler) Status() dto.StatusOutput {
	return h.usecase.Status()
}

func (h CLIHandler) Applied() (<-chan dto.AppliedOutput, func()) {
	return h.usecase.Applied()
}
