package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/analytics"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/metrics"
)

// RecordService saves session records into the analytics store and the optional journal.
type RecordService struct {
	store  *analytics.Store
	repo   port.RecordRepository
	logger *zap.Logger
}

// NewRecordService wires the service. repo may be nil.
func NewRecordService(store *analytics.Store, repo port.RecordRepository, logger *zap.Logger) *RecordService {
	return &RecordService{store: store, repo: repo, logger: logger}
}

// Save validates and appends a record. Journal failures are logged, not returned.
func (s *RecordService) Save(ctx context.Context, record entity.SessionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	s.store.SaveRecord(record)
	metrics.RecordsSavedTotal.Inc()
	metrics.AverageScore.Set(float64(s.store.AverageScore()))

	if s.repo != nil {
		if err := s.repo.Append(ctx, record); err != nil {
			s.logger.Error("failed to journal record",
				zap.String("session_id", record.SessionID), zap.Error(err))
		}
	}
	return nil
}

// Restore replays the journal into the store and returns the number of records loaded.
func (s *RecordService) Restore(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	records, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}
	s.store.Restore(records)
	metrics.AverageScore.Set(float64(s.store.AverageScore()))
	s.logger.Info("analytics restored from journal", zap.Int("records", len(records)))
	return len(records), nil
}

// Reset empties the store and the journal.
func (s *RecordService) Reset(ctx context.Context) error {
	s.store.Reset()
	metrics.AverageScore.Set(0)
	if s.repo != nil {
		if err := s.repo.Reset(ctx); err != nil {
			return fmt.Errorf("reset journal: %w", err)
		}
	}
	return nil
}

func (s *RecordService) History() []entity.SessionRecord {
	return s.store.History()
}

func (s *RecordService) Aggregate() entity.AnalyticsAggregate {
	return s.store.Aggregate()
}
