package pose

import (
	"context"
	"math"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// restPose is a right-handed pitcher at foot strike, in normalized image coordinates.
var restPose = map[string][2]float64{
	entity.Nose:          {0.50, 0.18},
	entity.LeftShoulder:  {0.40, 0.30},
	entity.RightShoulder: {0.60, 0.30},
	entity.LeftElbow:     {0.30, 0.40},
	entity.RightElbow:    {0.75, 0.30},
	entity.LeftWrist:     {0.25, 0.50},
	entity.RightWrist:    {0.80, 0.20},
	entity.LeftHip:       {0.45, 0.60},
	entity.RightHip:      {0.55, 0.60},
	entity.LeftKnee:      {0.38, 0.75},
	entity.RightKnee:     {0.62, 0.75},
	entity.LeftAnkle:     {0.35, 0.90},
	entity.RightAnkle:    {0.65, 0.90},
}

// Simulated is a PoseExtractor that animates a canned pitching pose from the frame index.
// It needs no model and is deterministic.
type Simulated struct {
	// MissEvery makes every Nth frame undetected. Zero detects every frame.
	MissEvery uint64
	// Period is the number of frames in one motion cycle.
	Period uint64
}

func NewSimulated() *Simulated {
	return &Simulated{Period: 60}
}

func (s *Simulated) Extract(ctx context.Context, frame *entity.Frame) (*entity.LandmarkSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.MissEvery > 0 && frame.Index%s.MissEvery == 0 {
		return nil, nil
	}

	period := s.Period
	if period == 0 {
		period = 60
	}
	phase := 2 * math.Pi * float64(frame.Index%period) / float64(period)
	swing := math.Sin(phase)

	set := entity.NewLandmarkSet()
	for name, p := range restPose {
		x, y := p[0], p[1]
		switch name {
		case entity.RightElbow, entity.RightWrist:
			y -= 0.05 * swing
		case entity.LeftAnkle:
			x -= 0.04 * swing
		case entity.RightAnkle:
			x += 0.04 * swing
		}
		set.Points[name] = entity.Landmark{X: x, Y: y, Visibility: 0.95}
	}
	return set, nil
}
