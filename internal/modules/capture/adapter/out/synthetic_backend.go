package out

import (
	"context"
	"fmt"
	"sync"
	"time"

	"avrec/internal/modules/capture/domain"
	captureout "avrec/internal/modules/capture/port/out"
	"avrec/internal/platform/clock"
	apperrors "avrec/internal/platform/errors"
)

const defaultSyntheticInterval = 250 * time.Millisecond

// ebmlMagic opens every Matroska/WebM stream.
var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// SyntheticBackend produces placeholder media without touching hardware.
// It backs demos and tests; set Fail to simulate an acquisition failure.
type SyntheticBackend struct {
	tickers  clock.TickerFactory
	interval time.Duration

	Fail error
}

func NewSyntheticBackend(tickers clock.TickerFactory, interval time.Duration) *SyntheticBackend {
	if interval <= 0 {
		interval = defaultSyntheticInterval
	}
	return &SyntheticBackend{tickers: tickers, interval: interval}
}

var (
	_ captureout.MediaDevices   = (*SyntheticBackend)(nil)
	_ captureout.EncoderFactory = (*SyntheticBackend)(nil)
)

func (b *SyntheticBackend) Check(context.Context) error { return nil }

func (b *SyntheticBackend) GetUserMedia(ctx context.Context, c domain.Constraints) (captureout.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.Fail != nil {
		return nil, b.Fail
	}
	if !c.Audio && !c.Video {
		return nil, fmt.Errorf("empty constraints: %w", apperrors.ErrNoDevice)
	}
	s := &syntheticStream{}
	if c.Video {
		s.tracks = append(s.tracks, &syntheticTrack{kind: "video"})
	}
	if c.Audio {
		s.tracks = append(s.tracks, &syntheticTrack{kind: "audio"})
	}
	return s, nil
}

func (b *SyntheticBackend) NewEncoder(stream captureout.Stream, mimeType string) (captureout.Encoder, error) {
	if _, ok := stream.(*syntheticStream); !ok {
		return nil, fmt.Errorf("synthetic encoder needs a synthetic stream, got %T", stream)
	}
	return &syntheticEncoder{backend: b, mimeType: mimeType, stop: make(chan struct{})}, nil
}

type syntheticStream struct {
	tracks []captureout.Track
}

func (s *syntheticStream) Tracks() []captureout.Track { return s.tracks }

type syntheticTrack struct {
	kind string

	mu      sync.Mutex
	stopped bool
}

func (t *syntheticTrack) Kind() string { return t.kind }

func (t *syntheticTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Stopped reports whether the track was released.
func (t *syntheticTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type syntheticEncoder struct {
	backend  *SyntheticBackend
	mimeType string

	once    sync.Once
	stop    chan struct{}
	mu      sync.Mutex
	started bool
}

func (e *syntheticEncoder) Start(onData func([]byte), onStop func(error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("encoder already started")
	}
	e.started = true
	ticker := e.backend.tickers.NewTicker(e.backend.interval)
	go func() {
		defer ticker.Stop()
		header := append(append([]byte{}, ebmlMagic...), []byte("avrec synthetic "+e.mimeType+"\n")...)
		onData(header)
		seq := 0
		for {
			select {
			case <-ticker.C():
				seq++
				onData([]byte(fmt.Sprintf("cluster %06d\n", seq)))
			case <-e.stop:
				onData([]byte("end\n"))
				onStop(nil)
				return
			}
		}
	}()
	return nil
}

func (e *syntheticEncoder) Stop() {
	e.once.Do(func() { close(e.stop) })
}
