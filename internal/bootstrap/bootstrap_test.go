package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avrec/internal/platform/config"
	"avrec/internal/platform/logging"
)

func testConfig(t *testing.T, persist bool) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DataDir:        dir,
		DBPath:         filepath.Join(dir, "avrec.db"),
		MediaDir:       filepath.Join(dir, "media"),
		LogPath:        filepath.Join(dir, "avrec.log"),
		Backend:        config.BackendSynthetic,
		DownloadDir:    filepath.Join(dir, "downloads"),
		MediaStorage:   config.StorageDisk,
		PersistHistory: persist,
		LogLevel:       "debug",
	}
}

func record(t *testing.T, app *App, mode string) string {
	t.Helper()
	ctx := context.Background()
	if err := app.CaptureCLI.SetMode(ctx, mode); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if _, err := app.CaptureCLI.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := app.CaptureCLI.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := app.CaptureCLI.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	last := app.CaptureCLI.Snapshot(ctx).Last
	if last == nil {
		t.Fatalf("expected a last recording")
	}
	return last.Handle
}

func TestSyntheticRecordAndDownload(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, false)
	app, err := New(context.Background(), cfg, logging.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	handle := record(t, app, "video")
	items, err := app.RecordingsCLI.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(items) != 1 || items[0].Type != "video" || items[0].URL != handle {
		t.Fatalf("unexpected recordings %+v", items)
	}

	out, err := app.CaptureCLI.Download(context.Background(), handle, "video")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if out.Path != filepath.Join(cfg.DownloadDir, "video-recording.webm") || out.Bytes == 0 {
		t.Fatalf("unexpected download %+v", out)
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
}

func TestHistorySurvivesRestartOnlyWhenPersisted(t *testing.T) {
	t.Parallel()
	for _, persist := range []bool{false, true} {
		cfg := testConfig(t, persist)
		app, err := New(context.Background(), cfg, logging.Nop())
		if err != nil {
			t.Fatalf("new app: %v", err)
		}
		record(t, app, "audio")
		if err := app.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}

		reopened, err := New(context.Background(), cfg, logging.Nop())
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		items, err := reopened.RecordingsCLI.Enumerate(context.Background())
		_ = reopened.Close()
		if err != nil {
			t.Fatalf("enumerate: %v", err)
		}
		want := 0
		if persist {
			want = 1
		}
		if len(items) != want {
			t.Fatalf("persist=%v: expected %d recordings after restart, got %d", persist, want, len(items))
		}
	}
}

func TestCloseFinalizesActiveSessionAndFlushesLog(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, true)
	logger, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	app, err := New(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if _, err := app.CaptureCLI.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := app.CaptureCLI.Start(context.Background()); err == nil {
		t.Fatalf("start after close must fail")
	}

	raw, err := os.ReadFile(cfg.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "capture finalized") {
		t.Fatalf("log missing finalization entry:\n%s", raw)
	}

	reopened, err := New(context.Background(), cfg, logging.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	items, err := reopened.RecordingsCLI.Enumerate(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("close must persist the active recording, got %d err=%v", len(items), err)
	}
}
