package out

import (
	"context"
	"io"

	"avrec/internal/modules/capture/domain"
)

// MediaDevices grants access to capture hardware.
type MediaDevices interface {
	// GetUserMedia acquires the devices named by c. Failures wrap
	// apperrors.ErrPermissionDenied or apperrors.ErrNoDevice.
	GetUserMedia(ctx context.Context, c domain.Constraints) (Stream, error)
	// Check reports whether the backend can be used at all.
	Check(ctx context.Context) error
}

type Stream interface {
	Tracks() []Track
}

// Track is one acquired device. Stop releases it and is idempotent.
type Track interface {
	Kind() string
	Stop()
}

type EncoderFactory interface {
	NewEncoder(stream Stream, mimeType string) (Encoder, error)
}

// Encoder turns a stream into container chunks.
type Encoder interface {
	// Start begins encoding. onData receives chunks in order. onStop is
	// called exactly once after the last chunk, with a non-nil error when
	// encoding failed. Neither callback fires if Start returns an error.
	Start(onData func([]byte), onStop func(error)) error
	// Stop requests finalization and returns without waiting for it.
	Stop()
}

// BlobStore keeps encoded payloads and hands out playable handles.
type BlobStore interface {
	Put(ctx context.Context, mimeType string, payload []byte) (string, error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	// LocalPath returns a filesystem path for handle when one exists.
	LocalPath(handle string) (string, bool)
}

type Downloader interface {
	Save(ctx context.Context, name string, r io.Reader) (string, int64, error)
}

type Launcher interface {
	Open(ctx context.Context, target string) error
}
