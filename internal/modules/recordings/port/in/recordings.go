package in

import (
	"context"

	"avrec/internal/modules/recordings/dto"
)

type Usecase interface {
	Load(ctx context.Context) (dto.LoadOutput, error)
	Append(ctx context.Context, input dto.AppendInput) (dto.RecordingOutput, error)
	Enumerate(ctx context.Context) ([]dto.RecordingOutput, error)
}
