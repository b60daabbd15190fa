// Package analyzer turns detected poses into metric snapshots.
//
// The shape of a snapshot is fixed: five named metrics, an overall score that is the
// rounded mean of the five, and a Pass verdict only when the overall score is above 80.
// How each metric is scored is delegated to a Scorer so the model can be replaced.
package analyzer

import (
	"math"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// Scorer assigns a raw score to each metric for a detected pose.
// Missing metrics score 0; values are clamped to [0,100].
type Scorer interface {
	Score(landmarks *entity.LandmarkSet) map[entity.MetricName]int
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(landmarks *entity.LandmarkSet) map[entity.MetricName]int

func (f ScorerFunc) Score(landmarks *entity.LandmarkSet) map[entity.MetricName]int {
	return f(landmarks)
}

// Analyzer turns one frame's landmarks into a MetricSnapshot. It holds no per-session state.
type Analyzer struct {
	scorer Scorer
}

// New returns an Analyzer that delegates per-frame scoring to scorer.
func New(scorer Scorer) *Analyzer {
	return &Analyzer{scorer: scorer}
}

// Analyze scores a landmark set. A nil set produces the undetected snapshot.
func (a *Analyzer) Analyze(landmarks *entity.LandmarkSet) entity.MetricSnapshot {
	if landmarks == nil {
		return entity.UndetectedSnapshot()
	}

	raw := a.scorer.Score(landmarks)
	metrics := make(map[entity.MetricName]entity.MetricScore, len(entity.MetricNames))
	sum := 0
	for _, name := range entity.MetricNames {
		score := clamp(raw[name])
		sum += score
		metrics[name] = entity.MetricScore{Score: score, Status: entity.MetricStatusOK}
	}

	overall := RoundMean(sum, len(entity.MetricNames))
	return entity.MetricSnapshot{
		OverallScore: overall,
		Metrics:      metrics,
		Verdict:      entity.VerdictFor(overall),
	}
}

// RoundMean returns sum/n rounded half away from zero, or 0 when n is 0.
func RoundMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
