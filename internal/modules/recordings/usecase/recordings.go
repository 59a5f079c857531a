package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"avrec/internal/modules/recordings/domain"
	recordingsdto "avrec/internal/modules/recordings/dto"
	recordingsin "avrec/internal/modules/recordings/port/in"
	"avrec/internal/modules/recordings/service"
)

type Options struct {
	// WriteThrough re-persists the whole history after every append. When
	// off, appends live only in memory and the store keeps whatever was
	// there at Load.
	WriteThrough bool
}

type Interactor struct {
	svc    *service.RecordingService
	logger *zap.SugaredLogger
	opts   Options

	// writeMu orders write-through snapshots so the last write carries
	// every appended entry.
	writeMu sync.Mutex
	mu      sync.RWMutex
	items   []domain.Recording
}

func NewInteractor(svc *service.RecordingService, logger *zap.SugaredLogger, opts Options) recordingsin.Usecase {
	return &Interactor{svc: svc, logger: logger, opts: opts, items: []domain.Recording{}}
}

func (i *Interactor) Load(ctx context.Context) (recordingsdto.LoadOutput, error) {
	items, malformed, err := i.svc.Read(ctx)
	if err != nil {
		return recordingsdto.LoadOutput{}, err
	}
	if malformed != nil {
		i.logger.Warnw("stored recordings ignored", "error", malformed)
	}
	i.mu.Lock()
	i.items = items
	i.mu.Unlock()
	i.logger.Debugf("loaded %d recordings", len(items))
	return recordingsdto.LoadOutput{Count: len(items), Malformed: malformed != nil}, nil
}

func (i *Interactor) Append(ctx context.Context, input recordingsdto.AppendInput) (recordingsdto.RecordingOutput, error) {
	rec, err := i.svc.New(input.URL, domain.Kind(input.Type))
	if err != nil {
		return recordingsdto.RecordingOutput{}, err
	}

	if i.opts.WriteThrough {
		i.writeMu.Lock()
		defer i.writeMu.Unlock()
	}

	i.mu.Lock()
	i.items = append(i.items, rec)
	snapshot := append([]domain.Recording(nil), i.items...)
	i.mu.Unlock()

	if i.opts.WriteThrough {
		if err := i.svc.Write(ctx, snapshot); err != nil {
			return recordingsdto.RecordingOutput{}, err
		}
	}
	i.logger.Infow("recording added", "type", rec.Type, "url", rec.URL, "total", len(snapshot))
	return toOutput(rec), nil
}

func (i *Interactor) Enumerate(_ context.Context) ([]recordingsdto.RecordingOutput, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]recordingsdto.RecordingOutput, 0, len(i.items))
	for _, rec := range i.items {
		out = append(out, toOutput(rec))
	}
	return out, nil
}

func toOutput(rec domain.Recording) recordingsdto.RecordingOutput {
	return recordingsdto.RecordingOutput{URL: rec.URL, Type: string(rec.Type), Date: rec.Date}
}
