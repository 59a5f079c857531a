package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"avrec/internal/modules/capture/domain"
	captureout "avrec/internal/modules/capture/port/out"
	"avrec/internal/platform/clock"
	apperrors "avrec/internal/platform/errors"
	"avrec/internal/platform/id"
)

type CaptureService struct {
	clock      clock.Clock
	idGen      id.Generator
	blobs      captureout.BlobStore
	downloader captureout.Downloader
	launcher   captureout.Launcher
}

func NewCaptureService(clock clock.Clock, idGen id.Generator, blobs captureout.BlobStore, downloader captureout.Downloader, launcher captureout.Launcher) *CaptureService {
	return &CaptureService{clock: clock, idGen: idGen, blobs: blobs, downloader: downloader, launcher: launcher}
}

func (s *CaptureService) Open(mode domain.Mode) (*domain.Session, error) {
	return domain.NewSession(s.idGen.New(), mode, s.clock.Now())
}

// Finalize stores the joined payload of session and returns its handle.
func (s *CaptureService) Finalize(ctx context.Context, session *domain.Session) (string, error) {
	if session.Size() == 0 {
		return "", fmt.Errorf("session %s produced no data: %w", session.ID, apperrors.ErrEncoderFailure)
	}
	handle, err := s.blobs.Put(ctx, session.Mode.MIMEType(), session.Payload())
	if err != nil {
		return "", fmt.Errorf("store payload: %w", err)
	}
	return handle, nil
}

func (s *CaptureService) Download(ctx context.Context, handle string, mode domain.Mode) (string, int64, error) {
	if handle == "" {
		return "", 0, fmt.Errorf("handle is required: %w", apperrors.ErrInvalidInput)
	}
	if err := mode.Validate(); err != nil {
		return "", 0, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}
	r, err := s.blobs.Open(ctx, handle)
	if err != nil {
		return "", 0, err
	}
	defer r.Close()
	return s.downloader.Save(ctx, mode.DownloadName(), r)
}

// Play hands handle to the OS player. Handles without a backing file are
// spooled to a temporary file first.
func (s *CaptureService) Play(ctx context.Context, handle string) error {
	if path, ok := s.blobs.LocalPath(handle); ok {
		return s.launcher.Open(ctx, path)
	}
	r, err := s.blobs.Open(ctx, handle)
	if err != nil {
		return err
	}
	defer r.Close()
	tmp, err := os.CreateTemp("", "avrec-*."+domain.ContainerExt)
	if err != nil {
		return fmt.Errorf("create playback file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write playback file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close playback file: %w", err)
	}
	return s.launcher.Open(ctx, tmp.Name())
}
