package port

import (
	"context"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

// RecordRepository journals saved records so they can be replayed at startup.
type RecordRepository interface {
	Append(ctx context.Context, record entity.SessionRecord) error
	List(ctx context.Context) ([]entity.SessionRecord, error)
	Reset(ctx context.Context) error
}
