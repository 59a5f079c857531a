package out

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"avrec/internal/modules/capture/domain"
	captureout "avrec/internal/modules/capture/port/out"
	apperrors "avrec/internal/platform/errors"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultStopTimeout  = 5 * time.Second
	readChunkSize       = 32 * 1024
	stderrTail          = 4 * 1024
)

type FFmpegOptions struct {
	Path        string
	AudioFormat string
	AudioDevice string
	VideoFormat string
	VideoDevice string

	// ProbeTimeout bounds how long acquisition waits for the first bytes.
	ProbeTimeout time.Duration
	// StopTimeout bounds how long a stopped process may take to flush
	// before it is killed.
	StopTimeout time.Duration
}

// FFmpegBackend captures and encodes through one ffmpeg process per
// session, reading WebM from its stdout.
type FFmpegBackend struct {
	opts   FFmpegOptions
	logger *zap.SugaredLogger
}

func NewFFmpegBackend(opts FFmpegOptions, logger *zap.SugaredLogger) *FFmpegBackend {
	if opts.Path == "" {
		opts.Path = "ffmpeg"
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	return &FFmpegBackend{opts: opts, logger: logger}
}

var (
	_ captureout.MediaDevices   = (*FFmpegBackend)(nil)
	_ captureout.EncoderFactory = (*FFmpegBackend)(nil)
)

func (b *FFmpegBackend) Check(_ context.Context) error {
	if _, err := exec.LookPath(b.opts.Path); err != nil {
		return fmt.Errorf("ffmpeg not found at %q: %w", b.opts.Path, apperrors.ErrNoDevice)
	}
	return nil
}

func (b *FFmpegBackend) GetUserMedia(ctx context.Context, c domain.Constraints) (captureout.Stream, error) {
	args, err := b.args(c)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(b.opts.Path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stderr = stderr
	b.logger.Debugw("starting ffmpeg", "args", args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %v: %w", err, apperrors.ErrNoDevice)
	}

	s := &ffmpegStream{
		cmd:         cmd,
		reader:      bufio.NewReaderSize(stdout, readChunkSize),
		stderr:      stderr,
		exited:      make(chan struct{}),
		stopTimeout: b.opts.StopTimeout,
		logger:      b.logger,
	}
	if c.Video {
		s.tracks = append(s.tracks, &ffmpegTrack{kind: "video", stream: s})
	}
	if c.Audio {
		s.tracks = append(s.tracks, &ffmpegTrack{kind: "audio", stream: s})
	}

	probe := make(chan error, 1)
	go func() {
		_, err := s.reader.Peek(1)
		probe <- err
	}()
	timer := time.NewTimer(b.opts.ProbeTimeout)
	defer timer.Stop()

	select {
	case err := <-probe:
		if err == nil {
			return s, nil
		}
		s.wait()
		classified := classifyFFmpegFailure(stderr.String())
		b.logger.Warnw("ffmpeg exited before producing media", "stderr", stderr.String(), "exit", s.waitErr)
		return nil, fmt.Errorf("acquire devices: %s: %w", firstLine(stderr.String()), classified)
	case <-ctx.Done():
		s.abandon(probe)
		return nil, ctx.Err()
	case <-timer.C:
		s.abandon(probe)
		return nil, fmt.Errorf("ffmpeg produced no media within %s: %w", b.opts.ProbeTimeout, apperrors.ErrNoDevice)
	}
}

func (b *FFmpegBackend) NewEncoder(stream captureout.Stream, mimeType string) (captureout.Encoder, error) {
	s, ok := stream.(*ffmpegStream)
	if !ok {
		return nil, fmt.Errorf("ffmpeg encoder needs an ffmpeg stream, got %T", stream)
	}
	return &ffmpegEncoder{stream: s, mimeType: mimeType}, nil
}

func (b *FFmpegBackend) args(c domain.Constraints) ([]string, error) {
	if !c.Audio && !c.Video {
		return nil, fmt.Errorf("empty constraints: %w", apperrors.ErrNoDevice)
	}
	o := b.opts
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}

	combined := c.Audio && c.Video && o.AudioFormat == o.VideoFormat && (o.VideoFormat == "avfoundation" || o.VideoFormat == "dshow")
	switch {
	case combined:
		args = append(args, "-f", o.VideoFormat, "-i", o.VideoDevice+":"+o.AudioDevice)
	default:
		if c.Video {
			args = append(args, "-f", o.VideoFormat, "-i", o.VideoDevice)
		}
		if c.Audio {
			device := o.AudioDevice
			if o.AudioFormat == "avfoundation" {
				device = ":" + device
			}
			args = append(args, "-f", o.AudioFormat, "-i", device)
		}
	}

	if c.Video {
		args = append(args, "-c:v", "libvpx", "-deadline", "realtime", "-cpu-used", "8", "-b:v", "1M")
	} else {
		args = append(args, "-vn")
	}
	if c.Audio {
		args = append(args, "-c:a", "libopus")
	} else {
		args = append(args, "-an")
	}
	return append(args, "-f", "webm", "-cluster_time_limit", "1000", "pipe:1"), nil
}

type ffmpegStream struct {
	cmd         *exec.Cmd
	reader      *bufio.Reader
	stderr      *tailBuffer
	tracks      []captureout.Track
	stopTimeout time.Duration
	logger      *zap.SugaredLogger

	mu          sync.Mutex
	reading     bool
	interrupted bool
	releaseOnce sync.Once

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

func (s *ffmpegStream) Tracks() []captureout.Track { return s.tracks }

// wait reaps the process. It must only run once stdout is drained.
func (s *ffmpegStream) wait() {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
		close(s.exited)
	})
}

func (s *ffmpegStream) abandon(probe <-chan error) {
	_ = s.cmd.Process.Kill()
	go func() {
		<-probe
		_, _ = io.Copy(io.Discard, s.reader)
		s.wait()
	}()
}

// release asks ffmpeg to finish. ffmpeg flushes the container on SIGINT;
// a process that has not exited after stopTimeout is killed.
func (s *ffmpegStream) release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		s.interrupted = true
		drain := !s.reading
		s.mu.Unlock()

		if err := interrupt(s.cmd.Process); err != nil {
			_ = s.cmd.Process.Kill()
		}
		if drain {
			go func() {
				_, _ = io.Copy(io.Discard, s.reader)
				s.wait()
			}()
		}
		go func() {
			select {
			case <-s.exited:
			case <-time.After(s.stopTimeout):
				s.logger.Warnw("ffmpeg did not exit after stop, killing", "pid", s.cmd.Process.Pid)
				_ = s.cmd.Process.Kill()
			}
		}()
	})
}

func interrupt(p *os.Process) error {
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(os.Interrupt)
}

type ffmpegTrack struct {
	kind   string
	stream *ffmpegStream
}

func (t *ffmpegTrack) Kind() string { return t.kind }

func (t *ffmpegTrack) Stop() { t.stream.release() }

type ffmpegEncoder struct {
	stream   *ffmpegStream
	mimeType string
}

func (e *ffmpegEncoder) Start(onData func([]byte), onStop func(error)) error {
	s := e.stream
	s.mu.Lock()
	if s.reading {
		s.mu.Unlock()
		return fmt.Errorf("encoder already started")
	}
	if s.interrupted {
		s.mu.Unlock()
		return fmt.Errorf("stream already stopped")
	}
	s.reading = true
	s.mu.Unlock()

	go func() {
		buf := make([]byte, readChunkSize)
		var readErr error
		for {
			n, err := s.reader.Read(buf)
			if n > 0 {
				onData(buf[:n])
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				readErr = err
				break
			}
		}
		s.wait()
		onStop(s.result(readErr))
	}()
	return nil
}

func (e *ffmpegEncoder) Stop() { e.stream.release() }

func (s *ffmpegStream) result(readErr error) error {
	if readErr != nil {
		return fmt.Errorf("read ffmpeg output: %v: %w", readErr, apperrors.ErrEncoderFailure)
	}
	s.mu.Lock()
	interrupted := s.interrupted
	s.mu.Unlock()
	// ffmpeg exits non-zero after handling SIGINT even when the file is
	// complete.
	if s.waitErr != nil && !interrupted {
		return fmt.Errorf("ffmpeg exited: %v: %s: %w", s.waitErr, firstLine(s.stderr.String()), apperrors.ErrEncoderFailure)
	}
	return nil
}

func classifyFFmpegFailure(stderr string) error {
	lower := strings.ToLower(stderr)
	for _, needle := range []string{"permission denied", "operation not permitted", "not authorized", "access denied"} {
		if strings.Contains(lower, needle) {
			return apperrors.ErrPermissionDenied
		}
	}
	return apperrors.ErrNoDevice
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if s == "" {
		return "no diagnostics"
	}
	return s
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int

	mu  sync.Mutex
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
