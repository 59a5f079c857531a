package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	capturedto "avrec/internal/modules/capture/dto"
	recordingsdto "avrec/internal/modules/recordings/dto"
	"avrec/internal/ui/theme"
)

const (
	emptyHistory    = "No previous recordings."
	modeAudio       = "audio"
	modeVideo       = "video"
	stateIdle       = "idle"
	stateRequesting = "requesting"
)

// Screen is everything the recorder view shows.
type Screen struct {
	Capture  capturedto.SnapshotOutput
	History  []recordingsdto.RecordingOutput
	Selected int
	Spinner  string
}

// Render draws s. It reads nothing but s.
func Render(s Screen) string {
	sections := []string{
		theme.Title.Render("Audio & Video Recorder"),
		renderModeSelector(s.Capture),
	}
	if s.Capture.PreviewActive {
		sections = append(sections, theme.LivePane.Render(theme.Error.Render("● LIVE")+"  camera preview attached"))
	}
	sections = append(sections, renderControl(s))
	if s.Capture.ErrorMessage != "" {
		sections = append(sections, theme.Error.Render(s.Capture.ErrorMessage))
	}
	if last := s.Capture.Last; last != nil {
		sections = append(sections, renderLast(*last))
	}
	sections = append(sections, renderHistory(s.History, s.Selected))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderModeSelector(c capturedto.SnapshotOutput) string {
	option := func(mode, label string) string {
		mark := "( )"
		if c.Mode == mode {
			mark = "(•)"
		}
		if c.Recording {
			return theme.Muted.Render(mark + " " + label)
		}
		return mark + " " + label
	}
	line := option(modeAudio, "Audio") + "   " + option(modeVideo, "Video")
	if c.Recording {
		line += theme.Muted.Render("   locked while recording")
	} else {
		line += theme.Muted.Render("   a/v to switch")
	}
	return line
}

func renderControl(s Screen) string {
	c := s.Capture
	switch {
	case c.Recording:
		return theme.Error.Render("[ Stop ]") + "  " + theme.Hot.Render("⏱ "+c.Elapsed)
	case c.State == stateRequesting:
		return theme.Muted.Render("[ Start ]") + "  " + s.Spinner + " requesting devices…"
	default:
		return theme.Ok.Render("[ Start ]") + theme.Muted.Render("  space to toggle")
	}
}

func renderLast(last capturedto.LastRecording) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Preview & Download") + "\n")
	sb.WriteString("▶ " + last.Mode + " player  " + theme.Muted.Render(last.Handle) + "\n")
	sb.WriteString(theme.Muted.Render("[p] play  [d] download " + last.FileName))
	return theme.Pane.Render(sb.String())
}

func renderHistory(items []recordingsdto.RecordingOutput, selected int) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Saved Recordings") + "\n")
	if len(items) == 0 {
		sb.WriteString(emptyHistory)
		return sb.String()
	}
	for i, rec := range items {
		row := strings.ToUpper(rec.Type) + " - " + rec.Date
		if i == selected {
			sb.WriteString(theme.Selected.Render("› "+row) + "\n")
		} else {
			sb.WriteString("  " + row + "\n")
		}
		sb.WriteString("    ▶ " + theme.Muted.Render(rec.URL))
		if i < len(items)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
