package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS session_records (
		id           BIGSERIAL PRIMARY KEY,
		session_id   TEXT NOT NULL DEFAULT '',
		score        INTEGER NOT NULL,
		metrics      JSONB NOT NULL,
		metric_order TEXT[] NOT NULL DEFAULT '{}',
		recorded_at  TIMESTAMPTZ NOT NULL
	)`,
	`ALTER TABLE session_records ADD COLUMN IF NOT EXISTS metric_order TEXT[] NOT NULL DEFAULT '{}'`,
}

// RecordRepository journals saved session records in session_records.
type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// EnsureSchema creates the journal table if it does not exist.
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *RecordRepository) Append(ctx context.Context, record entity.SessionRecord) error {
	metrics, err := json.Marshal(record.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO session_records (session_id, score, metrics, metric_order, recorded_at)
		VALUES ($1,$2,$3,$4,$5)`

	order := record.MetricOrder
	if order == nil {
		order = []string{}
	}
	_, err = r.pool.Exec(ctx, query, record.SessionID, record.Score, metrics, order, record.Timestamp)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// List returns every journaled record in save order.
func (r *RecordRepository) List(ctx context.Context) ([]entity.SessionRecord, error) {
	query := `
		SELECT session_id, score, metrics, metric_order, recorded_at
		FROM session_records ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []entity.SessionRecord
	for rows.Next() {
		var (
			rec     entity.SessionRecord
			metrics []byte
		)
		if err := rows.Scan(&rec.SessionID, &rec.Score, &metrics, &rec.MetricOrder, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal(metrics, &rec.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		if len(rec.MetricOrder) == 0 {
			rec.MetricOrder = nil
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (r *RecordRepository) Reset(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE session_records`); err != nil {
		return fmt.Errorf("truncate records: %w", err)
	}
	return nil
}
