package port

import (
	"context"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// FrameSource yields frames in order. Next returns io.EOF when a finite source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (*entity.Frame, error)
	Close() error
}

// SourceOpener opens the uploaded video for a session. Failures wrap entity.ErrSourceUnavailable.
type SourceOpener interface {
	Open(ctx context.Context, sessionID string) (FrameSource, error)
}

// CameraOpener opens a live or simulated camera.
type CameraOpener interface {
	OpenCamera(ctx context.Context) (FrameSource, error)
}
