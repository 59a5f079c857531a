package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"avrec/internal/modules/capture/domain"
	capturedto "avrec/internal/modules/capture/dto"
	capturein "avrec/internal/modules/capture/port/in"
	captureout "avrec/internal/modules/capture/port/out"
	"avrec/internal/modules/capture/service"
	recordingsdto "avrec/internal/modules/recordings/dto"
	recordingsin "avrec/internal/modules/recordings/port/in"
	"avrec/internal/platform/clock"
	apperrors "avrec/internal/platform/errors"
)

const tickInterval = time.Second

type Interactor struct {
	svc      *service.CaptureService
	devices  captureout.MediaDevices
	encoders captureout.EncoderFactory
	history  recordingsin.Usecase
	tickers  clock.TickerFactory
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	mode    domain.Mode
	state   domain.State
	active  *activeSession
	elapsed int
	err     error
	last    *capturedto.LastRecording
	closed  bool

	pending sync.WaitGroup
	notify  chan struct{}
}

// activeSession holds everything acquired between Start and Stop.
type activeSession struct {
	session *domain.Session
	stream  captureout.Stream
	encoder captureout.Encoder
	ticker  clock.Ticker
	done    chan struct{}
}

func NewInteractor(
	svc *service.CaptureService,
	devices captureout.MediaDevices,
	encoders captureout.EncoderFactory,
	history recordingsin.Usecase,
	tickers clock.TickerFactory,
	logger *zap.SugaredLogger,
) capturein.Usecase {
	return &Interactor{
		svc:      svc,
		devices:  devices,
		encoders: encoders,
		history:  history,
		tickers:  tickers,
		logger:   logger,
		mode:     domain.ModeAudio,
		state:    domain.StateIdle,
		notify:   make(chan struct{}, 1),
	}
}

func (i *Interactor) SetMode(_ context.Context, raw string) error {
	mode, err := domain.ParseMode(raw)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}
	i.mu.Lock()
	if i.state != domain.StateIdle {
		i.mu.Unlock()
		return apperrors.ErrActiveSessionExists
	}
	changed := i.mode != mode
	i.mode = mode
	i.mu.Unlock()
	if changed {
		i.changed()
	}
	return nil
}

func (i *Interactor) Start(ctx context.Context) (capturedto.StartOutput, error) {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return capturedto.StartOutput{}, apperrors.ErrClosed
	}
	if i.state != domain.StateIdle {
		i.mu.Unlock()
		return capturedto.StartOutput{}, apperrors.ErrActiveSessionExists
	}
	mode := i.mode
	i.state = domain.StateRequesting
	i.mu.Unlock()
	i.changed()

	stream, err := i.devices.GetUserMedia(ctx, mode.Constraints())
	if err != nil {
		return capturedto.StartOutput{}, i.failStart(mode, err)
	}
	encoder, err := i.encoders.NewEncoder(stream, mode.MIMEType())
	if err != nil {
		stopTracks(stream)
		return capturedto.StartOutput{}, i.failStart(mode, fmt.Errorf("%v: %w", err, apperrors.ErrEncoderFailure))
	}
	session, err := i.svc.Open(mode)
	if err != nil {
		stopTracks(stream)
		return capturedto.StartOutput{}, i.failStart(mode, err)
	}

	// pending is only added to under mu and while open, so Shutdown's Wait
	// never races a late Add.
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		stopTracks(stream)
		return capturedto.StartOutput{}, i.abortStart(mode)
	}
	i.pending.Add(1)
	i.mu.Unlock()
	onData := func(chunk []byte) {
		i.mu.Lock()
		session.Append(chunk)
		i.mu.Unlock()
	}
	onStop := func(encErr error) {
		defer i.pending.Done()
		i.finalize(session, encErr)
	}
	if err := encoder.Start(onData, onStop); err != nil {
		i.pending.Done()
		stopTracks(stream)
		return capturedto.StartOutput{}, i.failStart(mode, fmt.Errorf("start encoder: %v: %w", err, apperrors.ErrEncoderFailure))
	}

	active := &activeSession{
		session: session,
		stream:  stream,
		encoder: encoder,
		ticker:  i.tickers.NewTicker(tickInterval),
		done:    make(chan struct{}),
	}
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		active.ticker.Stop()
		encoder.Stop()
		stopTracks(stream)
		return capturedto.StartOutput{}, i.abortStart(mode)
	}
	i.active = active
	i.state = domain.StateRecording
	i.elapsed = 0
	i.err = nil
	i.mu.Unlock()
	go i.runTicker(active)

	i.logger.Infow("capture started", "session", session.ID, "mode", mode, "tracks", len(stream.Tracks()))
	i.changed()
	return capturedto.StartOutput{SessionID: session.ID, Mode: string(mode), StartedAt: session.StartedAt}, nil
}

func (i *Interactor) failStart(mode domain.Mode, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Abandoned by the caller; there is nothing to tell the user.
		i.mu.Lock()
		i.state = domain.StateIdle
		i.mu.Unlock()
		i.logger.Infow("capture start abandoned", "mode", mode, "error", err)
		i.changed()
		return err
	}
	kind := apperrors.Classify(err)
	i.mu.Lock()
	i.state = domain.StateIdle
	i.err = kind
	i.mu.Unlock()
	i.logger.Warnw("capture start failed", "mode", mode, "kind", kind, "error", err)
	i.changed()
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%v: %w", err, kind)
}

// abortStart returns an acquisition that lost the race with Shutdown to idle.
func (i *Interactor) abortStart(mode domain.Mode) error {
	i.mu.Lock()
	i.state = domain.StateIdle
	i.mu.Unlock()
	i.logger.Infow("capture start aborted by shutdown", "mode", mode)
	i.changed()
	return apperrors.ErrClosed
}

// Stop releases the devices and the session timer before returning.
// Finalization runs in the background and ends in finalize.
func (i *Interactor) Stop(_ context.Context) (capturedto.StopOutput, error) {
	i.mu.Lock()
	if i.state != domain.StateRecording || i.active == nil {
		i.mu.Unlock()
		return capturedto.StopOutput{}, apperrors.ErrNoActiveSession
	}
	active := i.active
	i.active = nil
	i.state = domain.StateStopping
	elapsed := i.elapsed
	i.mu.Unlock()
	i.changed()

	active.encoder.Stop()
	stopTracks(active.stream)
	active.ticker.Stop()
	close(active.done)

	i.mu.Lock()
	i.state = domain.StateIdle
	i.mu.Unlock()

	i.logger.Infow("capture stopped", "session", active.session.ID, "elapsed", elapsed)
	i.changed()
	return capturedto.StopOutput{SessionID: active.session.ID, Mode: string(active.session.Mode), ElapsedSeconds: elapsed}, nil
}

func (i *Interactor) runTicker(active *activeSession) {
	for {
		select {
		case <-active.done:
			return
		case <-active.ticker.C():
			i.mu.Lock()
			if i.active != active {
				i.mu.Unlock()
				return
			}
			i.elapsed++
			active.session.Elapsed = i.elapsed
			i.mu.Unlock()
			i.changed()
		}
	}
}

func (i *Interactor) finalize(session *domain.Session, encErr error) {
	ctx := context.Background()
	if encErr != nil {
		i.failFinalize(session, fmt.Errorf("%v: %w", encErr, apperrors.ErrEncoderFailure))
		return
	}
	// onStop follows the last onData, so session is no longer written to.
	handle, err := i.svc.Finalize(ctx, session)
	if err != nil {
		i.failFinalize(session, err)
		return
	}
	if _, err := i.history.Append(ctx, recordingsdto.AppendInput{URL: handle, Type: string(session.Mode)}); err != nil {
		i.logger.Errorw("append recording failed", "session", session.ID, "error", err)
	}

	i.mu.Lock()
	i.last = &capturedto.LastRecording{Handle: handle, Mode: string(session.Mode), FileName: session.Mode.DownloadName()}
	i.mu.Unlock()
	i.logger.Infow("capture finalized", "session", session.ID, "handle", handle, "bytes", session.Size(), "chunks", session.ChunkCount())
	i.changed()
}

// failFinalize surfaces the failure only while no newer session is running;
// a successful start owns the banner.
func (i *Interactor) failFinalize(session *domain.Session, err error) {
	i.mu.Lock()
	surfaced := i.state == domain.StateIdle
	if surfaced {
		i.err = apperrors.ErrEncoderFailure
	}
	i.mu.Unlock()
	i.logger.Errorw("capture finalize failed", "session", session.ID, "surfaced", surfaced, "error", err)
	i.changed()
}

func (i *Interactor) Download(ctx context.Context, input capturedto.DownloadInput) (capturedto.DownloadOutput, error) {
	path, n, err := i.svc.Download(ctx, input.Handle, domain.Mode(input.Mode))
	if err != nil {
		return capturedto.DownloadOutput{}, err
	}
	i.logger.Infow("recording downloaded", "handle", input.Handle, "path", path, "bytes", n)
	return capturedto.DownloadOutput{Path: path, Bytes: n}, nil
}

func (i *Interactor) Play(ctx context.Context, handle string) error {
	if handle == "" {
		return fmt.Errorf("handle is required: %w", apperrors.ErrInvalidInput)
	}
	return i.svc.Play(ctx, handle)
}

func (i *Interactor) Snapshot(_ context.Context) capturedto.SnapshotOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	recording := i.state == domain.StateRecording
	out := capturedto.SnapshotOutput{
		Mode:           string(i.mode),
		State:          string(i.state),
		Recording:      recording,
		PreviewActive:  recording && i.mode == domain.ModeVideo,
		ElapsedSeconds: i.elapsed,
		Elapsed:        domain.FormatElapsed(i.elapsed),
		ErrorMessage:   apperrors.Message(i.err),
		Err:            i.err,
	}
	if i.last != nil {
		last := *i.last
		out.Last = &last
	}
	return out
}

func (i *Interactor) Subscribe() <-chan struct{} {
	return i.notify
}

func (i *Interactor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		i.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown rejects further starts, stops the active session and waits for
// every pending finalization.
func (i *Interactor) Shutdown(ctx context.Context) error {
	i.mu.Lock()
	i.closed = true
	i.mu.Unlock()
	if _, err := i.Stop(ctx); err != nil && !errors.Is(err, apperrors.ErrNoActiveSession) {
		return err
	}
	return i.Wait(ctx)
}

func (i *Interactor) Check(ctx context.Context) error {
	return i.devices.Check(ctx)
}

func (i *Interactor) changed() {
	select {
	case i.notify <- struct{}{}:
	default:
	}
}

func stopTracks(stream captureout.Stream) {
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}
