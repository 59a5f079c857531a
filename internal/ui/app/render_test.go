package app

import (
	"strings"
	"testing"

	capturedto "avrec/internal/modules/capture/dto"
	recordingsdto "avrec/internal/modules/recordings/dto"
)

func TestRenderEmptyHistory(t *testing.T) {
	t.Parallel()
	out := Render(Screen{Capture: capturedto.SnapshotOutput{Mode: "audio", State: "idle"}})
	if !strings.Contains(out, "No previous recordings.") {
		t.Fatalf("empty history message missing:\n%s", out)
	}
	if !strings.Contains(out, "[ Start ]") || strings.Contains(out, "[ Stop ]") {
		t.Fatalf("idle screen must offer Start only:\n%s", out)
	}
	if !strings.Contains(out, "(•) Audio") || !strings.Contains(out, "( ) Video") {
		t.Fatalf("mode selector must mark audio:\n%s", out)
	}
}

func TestRenderHistoryRowsUpperCaseKind(t *testing.T) {
	t.Parallel()
	out := Render(Screen{
		Capture: capturedto.SnapshotOutput{Mode: "audio", State: "idle"},
		History: []recordingsdto.RecordingOutput{
			{URL: "blob:a", Type: "audio", Date: "Jan 2, 2026, 3:04:05 PM"},
			{URL: "blob:b", Type: "video", Date: "Jan 3, 2026, 9:00:00 AM"},
		},
		Selected: 1,
	})
	for _, want := range []string{"AUDIO - Jan 2, 2026, 3:04:05 PM", "VIDEO - Jan 3, 2026, 9:00:00 AM", "blob:a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "No previous recordings.") {
		t.Fatalf("empty message must not appear with entries")
	}
	if strings.Index(out, "AUDIO -") > strings.Index(out, "VIDEO -") {
		t.Fatalf("rows must keep list order")
	}
	if !strings.Contains(out, "› VIDEO") {
		t.Fatalf("selected row must carry the cursor:\n%s", out)
	}
}

func TestRenderRecordingShowsStopAndElapsed(t *testing.T) {
	t.Parallel()
	out := Render(Screen{Capture: capturedto.SnapshotOutput{
		Mode: "audio", State: "recording", Recording: true, ElapsedSeconds: 65, Elapsed: "01:05",
	}})
	if !strings.Contains(out, "[ Stop ]") || !strings.Contains(out, "⏱ 01:05") {
		t.Fatalf("recording control missing:\n%s", out)
	}
	if !strings.Contains(out, "locked while recording") {
		t.Fatalf("mode selector must be shown as locked:\n%s", out)
	}
	if strings.Contains(out, "LIVE") {
		t.Fatalf("audio mode must not show the preview")
	}
}

func TestRenderVideoPreviewOnlyWhileRecording(t *testing.T) {
	t.Parallel()
	live := Render(Screen{Capture: capturedto.SnapshotOutput{
		Mode: "video", State: "recording", Recording: true, PreviewActive: true, Elapsed: "00:01",
	}})
	if !strings.Contains(live, "LIVE") {
		t.Fatalf("video recording must show the preview:\n%s", live)
	}
	idle := Render(Screen{Capture: capturedto.SnapshotOutput{Mode: "video", State: "idle"}})
	if strings.Contains(idle, "LIVE") {
		t.Fatalf("idle video mode must not show the preview")
	}
}

func TestRenderErrorBannerAndLastRecording(t *testing.T) {
	t.Parallel()
	out := Render(Screen{Capture: capturedto.SnapshotOutput{
		Mode:         "video",
		State:        "idle",
		ErrorMessage: "Mic or Camera access denied.",
		Last:         &capturedto.LastRecording{Handle: "file:///m/v.webm", Mode: "video", FileName: "video-recording.webm"},
	}})
	for _, want := range []string{"Mic or Camera access denied.", "video player", "[p] play", "[d] download video-recording.webm"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRequestingShowsProgress(t *testing.T) {
	t.Parallel()
	out := Render(Screen{Capture: capturedto.SnapshotOutput{Mode: "audio", State: "requesting"}, Spinner: "*"})
	if !strings.Contains(out, "requesting devices") {
		t.Fatalf("requesting state missing:\n%s", out)
	}
}
