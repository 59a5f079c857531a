package in

import (
	"context"

	capturedto "avrec/internal/modules/capture/dto"
	capturein "avrec/internal/modules/capture/port/in"
)

type CLIHandler struct {
	usecase capturein.Usecase
}

func NewCLIHandler(usecase capturein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) SetMode(ctx context.Context, mode string) error {
	return h.usecase.SetMode(ctx, mode)
}

func (h CLIHandler) Start(ctx context.Context) (capturedto.StartOutput, error) {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) (capturedto.StopOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Download(ctx context.Context, handle, mode string) (capturedto.DownloadOutput, error) {
	return h.usecase.Download(ctx, capturedto.DownloadInput{Handle: handle, Mode: mode})
}

func (h CLIHandler) Play(ctx context.Context, handle string) error {
	return h.usecase.Play(ctx, handle)
}

func (h CLIHandler) Snapshot(ctx context.Context) capturedto.SnapshotOutput {
	return h.usecase.Snapshot(ctx)
}

func (h CLIHandler) Subscribe() <-chan struct{} {
	return h.usecase.Subscribe()
}

func (h CLIHandler) Wait(ctx context.Context) error {
	return h.usecase.Wait(ctx)
}

func (h CLIHandler) Shutdown(ctx context.Context) error {
	return h.usecase.Shutdown(ctx)
}

func (h CLIHandler) Check(ctx context.Context) error {
	return h.usecase.Check(ctx)
}
