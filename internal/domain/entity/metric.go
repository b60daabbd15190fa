package entity

// MetricName identifies one of the fixed biomechanical metrics.
type MetricName string

const (
	MetricStrideAngle   MetricName = "stride_angle"
	MetricThrowingAngle MetricName = "throwing_angle"
	MetricArmSymmetry   MetricName = "arm_symmetry"
	MetricHipRotation   MetricName = "hip_rotation"
	MetricElbowHeight   MetricName = "elbow_height"
)

// MetricNames is the canonical metric order.
var MetricNames = []MetricName{
	MetricStrideAngle,
	MetricThrowingAngle,
	MetricArmSymmetry,
	MetricHipRotation,
	MetricElbowHeight,
}

type MetricStatus string

const (
	MetricStatusOK         MetricStatus = "OK"
	MetricStatusUndetected MetricStatus = "Undetected"
)

type Verdict string

const (
	VerdictPass       Verdict = "Pass"
	VerdictFail       Verdict = "Fail"
	VerdictUndetected Verdict = "Undetected"
)

// PassThreshold is the overall score a frame must exceed to pass.
const PassThreshold = 80

// MetricScore is a single metric result.
type MetricScore struct {
	Score  int          `json:"score"`
	Status MetricStatus `json:"status"`
}

// MetricSnapshot is the analysis of one processed frame. It is not mutated after creation.
type MetricSnapshot struct {
	FrameIndex   uint64                     `json:"frame_index"`
	OverallScore int                        `json:"overall_score"`
	Metrics      map[MetricName]MetricScore `json:"metrics"`
	Verdict      Verdict                    `json:"verdict"`
}

// UndetectedSnapshot is the snapshot for a frame with no pose.
func UndetectedSnapshot() MetricSnapshot {
	metrics := make(map[MetricName]MetricScore, len(MetricNames))
	for _, name := range MetricNames {
		metrics[name] = MetricScore{Score: 0, Status: MetricStatusUndetected}
	}
	return MetricSnapshot{
		OverallScore: 0,
		Metrics:      metrics,
		Verdict:      VerdictUndetected,
	}
}

// Detected reports whether the snapshot came from a frame with a pose.
func (s MetricSnapshot) Detected() bool {
	return s.Verdict != VerdictUndetected
}

// VerdictFor maps an overall score to Pass or Fail.
func VerdictFor(overall int) Verdict {
	if overall > PassThreshold {
		return VerdictPass
	}
	return VerdictFail
}
