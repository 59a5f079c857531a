package apperrors_test

import (
	"context"
	"fmt"
	"testing"

	apperrors "avrec/internal/platform/errors"
)

func TestClassifyAndMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"nil", nil, nil, ""},
		{"denied", fmt.Errorf("open pulse: %w", apperrors.ErrPermissionDenied), apperrors.ErrPermissionDenied, apperrors.MsgPermissionDenied},
		{"no device", fmt.Errorf("open /dev/video0: %w", apperrors.ErrNoDevice), apperrors.ErrNoDevice, apperrors.MsgNoDevice},
		{"encoder", fmt.Errorf("ffmpeg exited: %w", apperrors.ErrEncoderFailure), apperrors.ErrEncoderFailure, apperrors.MsgEncoderFailure},
		{"unknown", context.DeadlineExceeded, apperrors.ErrPermissionDenied, apperrors.MsgPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperrors.Classify(tt.err); got != tt.kind {
				t.Fatalf("expected kind %v, got %v", tt.kind, got)
			}
			if got := apperrors.Message(tt.err); got != tt.msg {
				t.Fatalf("expected message %q, got %q", tt.msg, got)
			}
		})
	}
}
