// Package analytics keeps the running summary over saved session records.
package analytics

import (
	"math"
	"sort"
	"sync"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// RecommendationThreshold is the historical metric average below which a metric is recommended for work.
const RecommendationThreshold = 75

type metricTotals struct {
	sum   int64
	count int64
}

// Store is a mutex-guarded aggregate of saved records. The zero value is not usable; use NewStore.
type Store struct {
	mu      sync.RWMutex
	records []entity.SessionRecord
	sum     int64
	best    entity.BestMetric
	totals  map[string]*metricTotals
}

func NewStore() *Store {
	return &Store{totals: make(map[string]*metricTotals)}
}

// SaveRecord appends a record and updates the aggregate atomically.
func (s *Store) SaveRecord(record entity.SessionRecord) {
	record = record.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(record)
}

// Restore replaces the store content with the given records, in order.
func (s *Store) Restore(records []entity.SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	for _, r := range records {
		s.apply(r.Clone())
	}
}

// Reset empties the store.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.records = nil
	s.sum = 0
	s.best = entity.BestMetric{}
	s.totals = make(map[string]*metricTotals)
}

func (s *Store) apply(record entity.SessionRecord) {
	s.records = append(s.records, record)
	s.sum += int64(record.Score)

	for _, name := range record.OrderedMetricNames() {
		score := record.Metrics[name].Score
		if score > s.best.Score {
			s.best = entity.BestMetric{Name: name, Score: score}
		}
		t, ok := s.totals[name]
		if !ok {
			t = &metricTotals{}
			s.totals[name] = t
		}
		t.sum += int64(score)
		t.count++
	}
}

// History returns a copy of the saved records in save order.
func (s *Store) History() []entity.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyLocked()
}

func (s *Store) historyLocked() []entity.SessionRecord {
	out := make([]entity.SessionRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Aggregate returns a consistent snapshot of the aggregate.
func (s *Store) Aggregate() entity.AnalyticsAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return entity.AnalyticsAggregate{
		Records:         s.historyLocked(),
		AnalysisCount:   len(s.records),
		AverageScore:    roundMean(s.sum, int64(len(s.records))),
		BestMetric:      s.best,
		Recommendations: s.recommendationsLocked(),
	}
}

// Count returns the number of saved records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// AverageScore returns the rounded mean score of the saved records.
func (s *Store) AverageScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roundMean(s.sum, int64(len(s.records)))
}

func (s *Store) recommendationsLocked() []entity.Recommendation {
	out := []entity.Recommendation{}
	for name, t := range s.totals {
		avg := roundMean(t.sum, t.count)
		if avg < RecommendationThreshold {
			out = append(out, entity.Recommendation{Metric: name, AverageScore: avg})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore < out[j].AverageScore
		}
		return out[i].Metric < out[j].Metric
	})
	return out
}

func roundMean(sum, n int64) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
