package bootstrap

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	captureinadapter "avrec/internal/modules/capture/adapter/in"
	captureoutadapter "avrec/internal/modules/capture/adapter/out"
	captureout "avrec/internal/modules/capture/port/out"
	captureservice "avrec/internal/modules/capture/service"
	captureusecase "avrec/internal/modules/capture/usecase"
	recordingsinadapter "avrec/internal/modules/recordings/adapter/in"
	recordingsoutadapter "avrec/internal/modules/recordings/adapter/out"
	recordingsservice "avrec/internal/modules/recordings/service"
	recordingsusecase "avrec/internal/modules/recordings/usecase"
	"avrec/internal/platform/clock"
	"avrec/internal/platform/config"
	"avrec/internal/platform/id"
	uiapp "avrec/internal/ui/app"
)

// syntheticInterval is how often the synthetic encoder emits a chunk.
const syntheticInterval = 250 * time.Millisecond

// finalizeTimeout bounds how long shutdown waits for a stopped session to
// be stored.
const finalizeTimeout = 10 * time.Second

type App struct {
	CaptureCLI    captureinadapter.CLIHandler
	RecordingsCLI recordingsinadapter.CLIHandler

	logger *zap.SugaredLogger
	closer func() error
}

type backend interface {
	captureout.MediaDevices
	captureout.EncoderFactory
}

func New(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.UUID{}

	kv, err := recordingsoutadapter.NewSQLiteKeyValueStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new key-value store: %w", err)
	}
	recordingsUC := recordingsusecase.NewInteractor(
		recordingsservice.NewRecordingService(clk, kv),
		logger.Named("recordings"),
		recordingsusecase.Options{WriteThrough: cfg.PersistHistory},
	)
	if _, err := recordingsUC.Load(ctx); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("load recordings: %w", err)
	}

	var blobs captureout.BlobStore
	switch cfg.MediaStorage {
	case config.StorageMemory:
		blobs = captureoutadapter.NewMemoryBlobStore(ids)
	default:
		blobs = captureoutadapter.NewDiskBlobStore(cfg.MediaDir, ids)
	}

	var devices backend
	switch cfg.Backend {
	case config.BackendSynthetic:
		devices = captureoutadapter.NewSyntheticBackend(clk, syntheticInterval)
	default:
		devices = captureoutadapter.NewFFmpegBackend(captureoutadapter.FFmpegOptions{
			Path:        cfg.FFmpegPath,
			AudioFormat: cfg.AudioFormat,
			AudioDevice: cfg.AudioDevice,
			VideoFormat: cfg.VideoFormat,
			VideoDevice: cfg.VideoDevice,
		}, logger.Named("ffmpeg"))
	}

	captureUC := captureusecase.NewInteractor(
		captureservice.NewCaptureService(
			clk,
			ids,
			blobs,
			captureoutadapter.NewFileDownloader(cfg.DownloadDir),
			captureoutadapter.NewOSLauncher(),
		),
		devices,
		devices,
		recordingsUC,
		clk,
		logger.Named("capture"),
	)

	logger.Infow("avrec ready", "backend", cfg.Backend, "storage", cfg.MediaStorage, "persist_history", cfg.PersistHistory, "data_dir", cfg.DataDir)
	return &App{
		CaptureCLI:    captureinadapter.NewCLIHandler(captureUC),
		RecordingsCLI: recordingsinadapter.NewCLIHandler(recordingsUC),
		logger:        logger,
		closer:        kv.Close,
	}, nil
}

// Close stops any active session, waits for pending finalizations, then
// releases the store and flushes the logger.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	if err := a.CaptureCLI.Shutdown(ctx); err != nil {
		a.logger.Warnw("pending recordings not finalized", "error", err)
	}
	err := a.closer()
	_ = a.logger.Sync()
	return err
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.CaptureCLI, app.RecordingsCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
