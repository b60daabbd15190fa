package port

import (
	"image"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// FrameAnnotator overlays landmarks on a frame. landmarks may be nil.
type FrameAnnotator interface {
	Annotate(frame *entity.Frame, landmarks *entity.LandmarkSet) image.Image
}

// FrameEncoder encodes an image for transport.
type FrameEncoder interface {
	Encode(img image.Image) ([]byte, error)
}
