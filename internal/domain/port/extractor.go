package port

import (
	"context"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// PoseExtractor detects a pose on a frame. A nil set with nil error means no pose was found.
type PoseExtractor interface {
	Extract(ctx context.Context, frame *entity.Frame) (*entity.LandmarkSet, error)
}
