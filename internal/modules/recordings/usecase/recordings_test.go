package usecase_test

import (
	"context"
	"path/filepath"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	recordingsout "avrec/internal/modules/recordings/adapter/out"
	recordingsdto "avrec/internal/modules/recordings/dto"
	recordingsin "avrec/internal/modules/recordings/port/in"
	"avrec/internal/modules/recordings/service"
	"avrec/internal/modules/recordings/usecase"
	"avrec/internal/platform/logging"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func newStore(t *testing.T) *recordingsout.SQLiteKeyValueStore {
	t.Helper()
	store, err := recordingsout.NewSQLiteKeyValueStore(filepath.Join(t.TempDir(), "avrec.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newInteractor(store *recordingsout.SQLiteKeyValueStore, writeThrough bool) recordingsin.Usecase {
	clk := fixedClock{now: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)}
	return usecase.NewInteractor(service.NewRecordingService(clk, store), logging.Nop(), usecase.Options{WriteThrough: writeThrough})
}

func TestLoadSeedsListFromStoredHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)
	if err := store.Set(ctx, "recordings", `[{"url":"x","type":"audio","date":"d1"}]`); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	uc := newInteractor(store, false)

	out, err := uc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Count != 1 || out.Malformed {
		t.Fatalf("unexpected load output %+v", out)
	}
	items, err := uc.Enumerate(ctx)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	want := recordingsdto.RecordingOutput{URL: "x", Type: "audio", Date: "d1"}
	if len(items) != 1 || items[0] != want {
		t.Fatalf("expected %+v, got %+v", want, items)
	}
}

func TestLoadFallsBackToEmptyList(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`"not json"`, `not json`, `null`, `{"url":"x"}`} {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newStore(t)
			if err := store.Set(ctx, "recordings", raw); err != nil {
				t.Fatalf("seed store: %v", err)
			}
			uc := newInteractor(store, false)
			if _, err := uc.Load(ctx); err != nil {
				t.Fatalf("load must not fail on bad data: %v", err)
			}
			items, _ := uc.Enumerate(ctx)
			if len(items) != 0 {
				t.Fatalf("expected empty list, got %+v", items)
			}
		})
	}
}

func TestLoadWithoutStoredHistoryIsEmpty(t *testing.T) {
	t.Parallel()
	uc := newInteractor(newStore(t), false)
	out, err := uc.Load(context.Background())
	if err != nil || out.Count != 0 {
		t.Fatalf("expected empty load, got %+v err=%v", out, err)
	}
}

func TestAppendKeepsCompletionOrderAndStaysInMemoryByDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)
	uc := newInteractor(store, false)
	if _, err := uc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	kinds := []string{"audio", "video", "audio"}
	for i, kind := range kinds {
		rec, err := uc.Append(ctx, recordingsdto.AppendInput{URL: "file:///r" + string(rune('0'+i)) + ".webm", Type: kind})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if rec.Date != "Oct 14, 2026, 9:30:00 AM" {
			t.Fatalf("unexpected date %q", rec.Date)
		}
	}
	items, _ := uc.Enumerate(ctx)
	if len(items) != len(kinds) {
		t.Fatalf("expected %d items, got %d", len(kinds), len(items))
	}
	for i, kind := range kinds {
		if items[i].Type != kind {
			t.Fatalf("item %d: expected %s, got %s", i, kind, items[i].Type)
		}
	}
	again, _ := uc.Enumerate(ctx)
	if len(again) != len(items) {
		t.Fatalf("enumerate must be repeatable")
	}

	if _, ok, _ := store.Get(ctx, "recordings"); ok {
		t.Fatalf("append must not write history unless write-through is enabled")
	}
}

func TestAppendWriteThroughPersistsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)
	uc := newInteractor(store, true)
	if _, err := uc.Append(ctx, recordingsdto.AppendInput{URL: "file:///a.webm", Type: "video"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, ok, err := store.Get(ctx, "recordings")
	if err != nil || !ok {
		t.Fatalf("expected persisted history, ok=%v err=%v", ok, err)
	}
	if !strings.Contains(raw, `"url":"file:///a.webm"`) || !strings.Contains(raw, `"type":"video"`) {
		t.Fatalf("unexpected persisted value %s", raw)
	}

	reloaded := newInteractor(store, true)
	if out, err := reloaded.Load(ctx); err != nil || out.Count != 1 {
		t.Fatalf("expected reload of 1 item, got %+v err=%v", out, err)
	}
}

// gatedStore holds the first Set until release is closed.
type gatedStore struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	sets  int
	value string
}

func (s *gatedStore) Get(context.Context, string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.value != "", nil
}

func (s *gatedStore) Set(_ context.Context, _, value string) error {
	s.mu.Lock()
	s.sets++
	first := s.sets == 1
	s.mu.Unlock()
	s.entered <- struct{}{}
	if first {
		<-s.release
	}
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
	return nil
}

func TestConcurrentWriteThroughKeepsEveryEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &gatedStore{entered: make(chan struct{}, 2), release: make(chan struct{})}
	clk := fixedClock{now: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)}
	uc := usecase.NewInteractor(service.NewRecordingService(clk, store), logging.Nop(), usecase.Options{WriteThrough: true})

	var wg sync.WaitGroup
	appendURL := func(url string) {
		defer wg.Done()
		if _, err := uc.Append(ctx, recordingsdto.AppendInput{URL: url, Type: "audio"}); err != nil {
			t.Errorf("append %s: %v", url, err)
		}
	}
	wg.Add(2)
	go appendURL("a")
	<-store.entered
	go appendURL("b")
	// Give the second append the chance to overtake the held write.
	select {
	case <-store.entered:
	case <-time.After(50 * time.Millisecond):
	}
	close(store.release)
	wg.Wait()

	items, _ := uc.Enumerate(ctx)
	raw, _, _ := store.Get(ctx, "recordings")
	var persisted []map[string]string
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decode persisted history %q: %v", raw, err)
	}
	if len(items) != 2 || len(persisted) != 2 {
		t.Fatalf("persisted history lost entries: memory %d, store %d (%s)", len(items), len(persisted), raw)
	}
}

func TestAppendRejectsInvalidRecording(t *testing.T) {
	t.Parallel()
	uc := newInteractor(newStore(t), false)
	if _, err := uc.Append(context.Background(), recordingsdto.AppendInput{URL: "x", Type: "gif"}); err == nil {
		t.Fatalf("expected invalid type error")
	}
	if _, err := uc.Append(context.Background(), recordingsdto.AppendInput{Type: "audio"}); err == nil {
		t.Fatalf("expected missing url error")
	}
}
