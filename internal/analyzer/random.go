package analyzer

import (
	"math/rand/v2"
	"sync"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// scoreRange is a half-open [Min, Max) interval.
type scoreRange struct{ Min, Max int }

var randomRanges = map[entity.MetricName]scoreRange{
	entity.MetricStrideAngle:   {70, 95},
	entity.MetricThrowingAngle: {65, 90},
	entity.MetricArmSymmetry:   {75, 95},
	entity.MetricHipRotation:   {70, 90},
	entity.MetricElbowHeight:   {80, 95},
}

// RandomScorer draws plausible scores regardless of the pose. It is meant for demos
// and load tests, where a seeded run must be reproducible.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomScorer(seed uint64) *RandomScorer {
	return &RandomScorer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *RandomScorer) Score(_ *entity.LandmarkSet) map[entity.MetricName]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[entity.MetricName]int, len(entity.MetricNames))
	for _, name := range entity.MetricNames {
		rg := randomRanges[name]
		out[name] = rg.Min + r.rng.IntN(rg.Max-rg.Min)
	}
	return out
}
