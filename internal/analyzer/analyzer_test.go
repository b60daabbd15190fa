package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

func fixedScorer(scores ...int) Scorer {
	return ScorerFunc(func(*entity.LandmarkSet) map[entity.MetricName]int {
		out := make(map[entity.MetricName]int)
		for i, name := range entity.MetricNames {
			if i < len(scores) {
				out[name] = scores[i]
			}
		}
		return out
	})
}

func TestAnalyzeAbsentLandmarks(t *testing.T) {
	a := New(fixedScorer(100, 100, 100, 100, 100))

	first := a.Analyze(nil)
	assert.Equal(t, 0, first.OverallScore)
	assert.Equal(t, entity.VerdictUndetected, first.Verdict)
	require.Len(t, first.Metrics, 5)
	for _, name := range entity.MetricNames {
		assert.Equal(t, entity.MetricScore{Score: 0, Status: entity.MetricStatusUndetected}, first.Metrics[name])
	}

	second := a.Analyze(nil)
	assert.Equal(t, first, second)
	assert.False(t, second.Detected())
}

func TestAnalyzeOverallIsRoundedMean(t *testing.T) {
	tests := []struct {
		name    string
		scores  []int
		overall int
		verdict entity.Verdict
	}{
		{"all eighty fails", []int{80, 80, 80, 80, 80}, 80, entity.VerdictFail},
		{"all eighty one passes", []int{81, 81, 81, 81, 81}, 81, entity.VerdictPass},
		{"80.4 rounds down", []int{80, 80, 80, 80, 82}, 80, entity.VerdictFail},
		{"80.6 rounds up", []int{81, 81, 81, 80, 80}, 81, entity.VerdictPass},
		{"mixed", []int{70, 65, 90, 88, 94}, 81, entity.VerdictPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := New(fixedScorer(tt.scores...)).Analyze(entity.NewLandmarkSet())
			assert.Equal(t, tt.overall, snap.OverallScore)
			assert.Equal(t, tt.verdict, snap.Verdict)
			for i, name := range entity.MetricNames {
				assert.Equal(t, tt.scores[i], snap.Metrics[name].Score)
				assert.Equal(t, entity.MetricStatusOK, snap.Metrics[name].Status)
			}
		})
	}
}

func TestAnalyzeClampsAndFillsMissingMetrics(t *testing.T) {
	snap := New(fixedScorer(150, -20)).Analyze(entity.NewLandmarkSet())

	assert.Equal(t, 100, snap.Metrics[entity.MetricStrideAngle].Score)
	assert.Equal(t, 0, snap.Metrics[entity.MetricThrowingAngle].Score)
	assert.Equal(t, 0, snap.Metrics[entity.MetricElbowHeight].Score)
	assert.Equal(t, 20, snap.OverallScore)
	assert.Equal(t, entity.VerdictFail, snap.Verdict)
}

func TestRoundMean(t *testing.T) {
	assert.Equal(t, 0, RoundMean(10, 0))
	assert.Equal(t, 80, RoundMean(240, 3))
	assert.Equal(t, 3, RoundMean(5, 2))
}
