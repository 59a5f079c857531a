package in

import (
	"context"

	recordingsdto "avrec/internal/modules/recordings/dto"
	recordingsin "avrec/internal/modules/recordings/port/in"
)

type CLIHandler struct {
	usecase recordingsin.Usecase
}

func NewCLIHandler(usecase recordingsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Load(ctx context.Context) (recordingsdto.LoadOutput, error) {
	return h.usecase.Load(ctx)
}

func (h CLIHandler) Enumerate(ctx context.Context) ([]recordingsdto.RecordingOutput, error) {
	return h.usecase.Enumerate(ctx)
}
