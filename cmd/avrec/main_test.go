package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRecordListDownload(t *testing.T) {
	dataDir := t.TempDir()
	downloads := filepath.Join(dataDir, "downloads")
	t.Setenv("AVREC_BACKEND", "synthetic")
	t.Setenv("AVREC_DOWNLOAD_DIR", downloads)
	t.Setenv("AVREC_PERSIST_HISTORY", "true")

	out, err := run(t, "--data-dir", dataDir, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No previous recordings.") {
		t.Fatalf("unexpected empty list output %q", out)
	}

	out, err = run(t, "--data-dir", dataDir, "record", "--mode", "video", "--duration", "50ms")
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	if !strings.Contains(out, "recording video") || !strings.Contains(out, "file://") {
		t.Fatalf("unexpected record output %q", out)
	}

	out, err = run(t, "--data-dir", dataDir, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "1\tvideo\t") {
		t.Fatalf("recording not listed: %q", out)
	}

	if _, err := run(t, "--data-dir", dataDir, "download", "1"); err != nil {
		t.Fatalf("download: %v", err)
	}
	if _, err := os.Stat(filepath.Join(downloads, "video-recording.webm")); err != nil {
		t.Fatalf("download missing: %v", err)
	}

	if _, err := run(t, "--data-dir", dataDir, "download", "7"); err == nil {
		t.Fatalf("expected out-of-range download to fail")
	}
}

func TestDoctorReportsMissingFFmpeg(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("AVREC_BACKEND", "ffmpeg")
	t.Setenv("AVREC_FFMPEG_PATH", filepath.Join(dataDir, "no-such-ffmpeg"))
	t.Setenv("AVREC_DOWNLOAD_DIR", dataDir)

	if _, err := run(t, "--data-dir", dataDir, "doctor"); err == nil {
		t.Fatalf("expected doctor to fail without ffmpeg")
	}
}
