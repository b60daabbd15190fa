package analyzer

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// MinVisibility is the landmark visibility below which a joint is ignored.
const MinVisibility = 0.5

// band is an ideal [Low, High] range; scores fall off by Falloff points per unit outside it.
type band struct {
	Low, High float64
	Falloff   float64
}

func (b band) score(v float64) int {
	var dist float64
	switch {
	case v < b.Low:
		dist = b.Low - v
	case v > b.High:
		dist = v - b.High
	}
	return clamp(int(math.Round(100 - dist*b.Falloff)))
}

// GeometryScorer scores a pitching pose from joint angles.
type GeometryScorer struct {
	// LeftHanded switches the throwing arm to the left side.
	LeftHanded bool

	Stride    band
	Throwing  band
	Symmetry  band
	HipTorso  band
	ElbowLift band
}

// NewGeometryScorer returns a scorer with the default bands.
func NewGeometryScorer(leftHanded bool) *GeometryScorer {
	return &GeometryScorer{
		LeftHanded: leftHanded,
		Stride:     band{Low: 40, High: 70, Falloff: 2},      // degrees between legs at the hips
		Throwing:   band{Low: 80, High: 100, Falloff: 2},     // throwing upper arm vs torso
		Symmetry:   band{Low: 0, High: 15, Falloff: 1.5},     // elbow flexion difference
		HipTorso:   band{Low: 20, High: 50, Falloff: 2},      // hip/shoulder line separation
		ElbowLift:  band{Low: -0.1, High: 0.1, Falloff: 300}, // elbow height vs shoulder, torso-normalized
	}
}

func (g *GeometryScorer) Score(set *entity.LandmarkSet) map[entity.MetricName]int {
	out := make(map[entity.MetricName]int, len(entity.MetricNames))

	shoulder, elbow, hip := entity.RightShoulder, entity.RightElbow, entity.RightHip
	if g.LeftHanded {
		shoulder, elbow, hip = entity.LeftShoulder, entity.LeftElbow, entity.LeftHip
	}

	if pts, ok := points(set, entity.LeftHip, entity.RightHip, entity.LeftAnkle, entity.RightAnkle); ok {
		mid := midpoint(pts[0], pts[1])
		out[entity.MetricStrideAngle] = g.Stride.score(angle(mid, pts[2], pts[3]))
	}

	if pts, ok := points(set, shoulder, elbow, hip); ok {
		out[entity.MetricThrowingAngle] = g.Throwing.score(angle(pts[0], pts[1], pts[2]))
	}

	if pts, ok := points(set,
		entity.LeftShoulder, entity.LeftElbow, entity.LeftWrist,
		entity.RightShoulder, entity.RightElbow, entity.RightWrist,
	); ok {
		left := angle(pts[1], pts[0], pts[2])
		right := angle(pts[4], pts[3], pts[5])
		out[entity.MetricArmSymmetry] = g.Symmetry.score(math.Abs(left - right))
	}

	if pts, ok := points(set, entity.LeftHip, entity.RightHip, entity.LeftShoulder, entity.RightShoulder); ok {
		hips := r3.Sub(pts[1], pts[0])
		shoulders := r3.Sub(pts[3], pts[2])
		hips.Y, shoulders.Y = 0, 0
		out[entity.MetricHipRotation] = g.HipTorso.score(degrees(hips, shoulders))
	}

	if pts, ok := points(set, shoulder, elbow, hip); ok {
		torso := math.Abs(pts[2].Y - pts[0].Y)
		if torso > 0 {
			// image y grows downward, so a raised elbow gives a positive lift
			lift := (pts[0].Y - pts[1].Y) / torso
			out[entity.MetricElbowHeight] = g.ElbowLift.score(lift)
		}
	}

	return out
}

func points(set *entity.LandmarkSet, names ...string) ([]r3.Vec, bool) {
	out := make([]r3.Vec, len(names))
	for i, name := range names {
		lm, ok := set.Get(name, MinVisibility)
		if !ok {
			return nil, false
		}
		out[i] = r3.Vec{X: lm.X, Y: lm.Y, Z: lm.Z}
	}
	return out, true
}

func midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// angle returns the opening angle at vertex between a and b, in degrees.
func angle(vertex, a, b r3.Vec) float64 {
	return degrees(r3.Sub(a, vertex), r3.Sub(b, vertex))
}

func degrees(p, q r3.Vec) float64 {
	if r3.Norm(p) == 0 || r3.Norm(q) == 0 {
		return 0
	}
	cos := math.Max(-1, math.Min(1, r3.Cos(p, q)))
	return math.Acos(cos) * 180 / math.Pi
}
