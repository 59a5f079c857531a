package domain

import (
	"fmt"
	"time"
)

type Mode string

const (
	ModeAudio Mode = "audio"
	ModeVideo Mode = "video"
)

// ContainerExt is the file extension of every encoded payload.
const ContainerExt = "webm"

func ParseMode(raw string) (Mode, error) {
	m := Mode(raw)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

func (m Mode) Validate() error {
	switch m {
	case ModeAudio, ModeVideo:
		return nil
	default:
		return fmt.Errorf("unsupported capture mode %q", string(m))
	}
}

// Constraints selects the devices a stream request asks for.
type Constraints struct {
	Audio bool
	Video bool
}

func (m Mode) Constraints() Constraints {
	return Constraints{Audio: true, Video: m == ModeVideo}
}

func (m Mode) MIMEType() string {
	return string(m) + "/" + ContainerExt
}

func (m Mode) DownloadName() string {
	return fmt.Sprintf("%s-recording.%s", m, ContainerExt)
}

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateRecording  State = "recording"
	StateStopping   State = "stopping"
)

// Session is one capture from start to stop. Not safe for concurrent use;
// the owner serializes access.
type Session struct {
	ID        string
	Mode      Mode
	StartedAt time.Time
	Elapsed   int

	chunks [][]byte
	size   int
}

func NewSession(id string, mode Mode, startedAt time.Time) (*Session, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	return &Session{ID: id, Mode: mode, StartedAt: startedAt}, nil
}

// Append stores a copy of chunk. Empty chunks are dropped.
func (s *Session) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.chunks = append(s.chunks, buf)
	s.size += len(buf)
}

func (s *Session) ChunkCount() int { return len(s.chunks) }

func (s *Session) Size() int { return s.size }

// Payload joins all chunks in arrival order.
func (s *Session) Payload() []byte {
	out := make([]byte, 0, s.size)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}

// FormatElapsed renders seconds as MM:SS.
func FormatElapsed(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
