package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/analytics"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

type memoryRepository struct {
	records []entity.SessionRecord
	err     error
	resets  int
}

func (m *memoryRepository) Append(_ context.Context, r entity.SessionRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memoryRepository) List(_ context.Context) ([]entity.SessionRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *memoryRepository) Reset(_ context.Context) error {
	m.resets++
	m.records = nil
	return m.err
}

func record(score int, metrics map[string]int) entity.SessionRecord {
	r := entity.SessionRecord{Score: score, Metrics: map[string]entity.MetricScore{}}
	for name, s := range metrics {
		r.Metrics[name] = entity.MetricScore{Score: s, Status: entity.MetricStatusOK}
	}
	return r
}

func TestRecordServiceSave(t *testing.T) {
	store := analytics.NewStore()
	repo := &memoryRepository{}
	svc := NewRecordService(store, repo, zap.NewNop())

	require.NoError(t, svc.Save(context.Background(), record(70, map[string]int{"stride_angle": 90})))
	require.NoError(t, svc.Save(context.Background(), record(90, nil)))
	require.NoError(t, svc.Save(context.Background(), record(80, map[string]int{"stride_angle": 95})))

	agg := svc.Aggregate()
	assert.Equal(t, 3, agg.AnalysisCount)
	assert.Equal(t, 80, agg.AverageScore)
	assert.Equal(t, entity.BestMetric{Name: "stride_angle", Score: 95}, agg.BestMetric)

	require.Len(t, repo.records, 3)
	assert.False(t, repo.records[0].Timestamp.IsZero())
	assert.Len(t, svc.History(), 3)
}

func TestRecordServiceKeepsTimestamp(t *testing.T) {
	svc := NewRecordService(analytics.NewStore(), nil, zap.NewNop())
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	r := record(50, nil)
	r.Timestamp = ts
	require.NoError(t, svc.Save(context.Background(), r))
	assert.Equal(t, ts, svc.History()[0].Timestamp)
}

func TestRecordServiceRejectsInvalidRecord(t *testing.T) {
	store := analytics.NewStore()
	svc := NewRecordService(store, nil, zap.NewNop())

	assert.ErrorIs(t, svc.Save(context.Background(), record(101, nil)), entity.ErrInvalidRecord)
	assert.ErrorIs(t, svc.Save(context.Background(), record(50, map[string]int{"stride_angle": -1})), entity.ErrInvalidRecord)
	assert.Equal(t, 0, store.Count())
}

func TestRecordServiceJournalFailureIsLogged(t *testing.T) {
	store := analytics.NewStore()
	svc := NewRecordService(store, &memoryRepository{err: errors.New("db down")}, zap.NewNop())

	require.NoError(t, svc.Save(context.Background(), record(60, nil)))
	assert.Equal(t, 1, store.Count())
}

func TestRecordServiceRestoreAndReset(t *testing.T) {
	repo := &memoryRepository{records: []entity.SessionRecord{record(70, nil), record(90, nil)}}
	store := analytics.NewStore()
	svc := NewRecordService(store, repo, zap.NewNop())

	n, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 80, store.AverageScore())

	require.NoError(t, svc.Reset(context.Background()))
	assert.Equal(t, 0, store.Count())
	assert.Equal(t, 1, repo.resets)
}

func TestRecordServiceRestoreWithoutJournal(t *testing.T) {
	svc := NewRecordService(analytics.NewStore(), nil, zap.NewNop())
	n, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
