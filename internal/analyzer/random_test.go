package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

func TestRandomScorerStaysInRanges(t *testing.T) {
	s := NewRandomScorer(42)
	for i := 0; i < 200; i++ {
		scores := s.Score(nil)
		for name, rg := range randomRanges {
			assert.GreaterOrEqual(t, scores[name], rg.Min)
			assert.Less(t, scores[name], rg.Max)
		}
	}
}

func TestRandomScorerSeedIsReproducible(t *testing.T) {
	a, b := NewRandomScorer(7), NewRandomScorer(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Score(nil), b.Score(nil))
	}
}

func TestAnalyzeWithRandomScorerStillHonorsAbsence(t *testing.T) {
	snap := New(NewRandomScorer(1)).Analyze(nil)
	assert.Equal(t, entity.UndetectedSnapshot(), snap)
}
