package dto

import "time"

type StartOutput struct {
	SessionID string
	Mode      string
	StartedAt time.Time
}

type StopOutput struct {
	SessionID      string
	Mode           string
	ElapsedSeconds int
}

type LastRecording struct {
	Handle   string
	Mode     string
	FileName string
}

// SnapshotOutput is the UI-facing capture state.
type SnapshotOutput struct {
	Mode           string
	State          string
	Recording      bool
	PreviewActive  bool
	ElapsedSeconds int
	Elapsed        string // MM:SS
	ErrorMessage   string
	Err            error
	Last           *LastRecording
}

type DownloadInput struct {
	Handle string
	Mode   string
}

type DownloadOutput struct {
	Path  string
	Bytes int64
}
