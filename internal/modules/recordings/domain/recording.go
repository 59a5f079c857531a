package domain

import (
	"fmt"
	"strings"
	"time"
)

// StorageKey is the key-value entry holding the JSON-encoded history.
const StorageKey = "recordings"

// DateLayout renders creation timestamps for display.
const DateLayout = "Jan 2, 2006, 3:04:05 PM"

type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Recording is immutable once created. The JSON keys match the stored
// history format.
type Recording struct {
	URL  string `json:"url"`
	Type Kind   `json:"type"`
	Date string `json:"date"`
}

func (k Kind) Validate() error {
	switch k {
	case KindAudio, KindVideo:
		return nil
	default:
		return fmt.Errorf("unsupported recording type %q", string(k))
	}
}

func (r Recording) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
