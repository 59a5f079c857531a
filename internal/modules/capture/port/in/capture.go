package in

import (
	"context"

	"avrec/internal/modules/capture/dto"
)

type Usecase interface {
	SetMode(ctx context.Context, mode string) error
	Start(ctx context.Context) (dto.StartOutput, error)
	Stop(ctx context.Context) (dto.StopOutput, error)
	Download(ctx context.Context, input dto.DownloadInput) (dto.DownloadOutput, error)
	Play(ctx context.Context, handle string) error
	Snapshot(ctx context.Context) dto.SnapshotOutput
	// Subscribe returns a channel that receives a value after state changes.
	// Notifications coalesce; read Snapshot for the current state.
	Subscribe() <-chan struct{}
	// Wait blocks until pending finalizations are done.
	Wait(ctx context.Context) error
	// Shutdown stops any active session, rejects later starts and waits
	// for finalization.
	Shutdown(ctx context.Context) error
	Check(ctx context.Context) error
}
