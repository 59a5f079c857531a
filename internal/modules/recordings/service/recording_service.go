package service

import (
	"context"
	"encoding/json"
	"fmt"

	"avrec/internal/modules/recordings/domain"
	recordingsout "avrec/internal/modules/recordings/port/out"
	"avrec/internal/platform/clock"
)

type RecordingService struct {
	clock clock.Clock
	store recordingsout.KeyValueStore
}

func NewRecordingService(clock clock.Clock, store recordingsout.KeyValueStore) *RecordingService {
	return &RecordingService{clock: clock, store: store}
}

// Read returns the stored history. A missing key is an empty history; a
// value that does not decode is reported through malformed so the caller
// can fall back without failing.
func (s *RecordingService) Read(ctx context.Context) (items []domain.Recording, malformed error, err error) {
	raw, ok, err := s.store.Get(ctx, domain.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	if !ok || raw == "" {
		return []domain.Recording{}, nil, nil
	}
	decoded := []domain.Recording{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return []domain.Recording{}, fmt.Errorf("decode stored recordings: %w", err), nil
	}
	if decoded == nil {
		decoded = []domain.Recording{}
	}
	return decoded, nil, nil
}

func (s *RecordingService) New(url string, kind domain.Kind) (domain.Recording, error) {
	rec := domain.Recording{URL: url, Type: kind, Date: domain.FormatDate(s.clock.Now())}
	if err := rec.Validate(); err != nil {
		return domain.Recording{}, err
	}
	return rec, nil
}

func (s *RecordingService) Write(ctx context.Context, items []domain.Recording) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode recordings: %w", err)
	}
	return s.store.Set(ctx, domain.StorageKey, string(payload))
}
