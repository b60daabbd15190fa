package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
)

// SessionIDLayout is the time layout of upload session ids.
const SessionIDLayout = "20060102_150405"

const maxIDAttempts = 100

// UploadResult is returned to the uploader. SessionID is the value accepted by StartVideo.
type UploadResult struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type UploadService struct {
	store   port.VideoStore
	archive port.VideoArchive
	logger  *zap.Logger
	now     func() time.Time
}

// NewUploadService wires the service. archive may be nil.
func NewUploadService(store port.VideoStore, archive port.VideoArchive, logger *zap.Logger) *UploadService {
	return &UploadService{
		store:   store,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// Upload stores the video under a timestamp session id, adding _2, _3... when the id is taken.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	if filename == "" || r == nil {
		return UploadResult{}, entity.ErrInputMissing
	}

	base := s.now().Format(SessionIDLayout)
	var (
		sessionID string
		path      string
		err       error
	)
	for n := 1; n <= maxIDAttempts; n++ {
		sessionID = base
		if n > 1 {
			sessionID = fmt.Sprintf("%s_%d", base, n)
		}
		path, err = s.store.Save(ctx, sessionID, r)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return UploadResult{}, fmt.Errorf("save upload: %w", err)
	}

	log := s.logger.With(zap.String("session_id", sessionID))
	log.Info("video uploaded", zap.String("filename", filename), zap.String("path", path))

	if s.archive != nil {
		if err := s.archive.ArchiveVideo(ctx, filepath.Base(path), path); err != nil {
			log.Warn("failed to archive upload", zap.Error(err))
		}
	}

	return UploadResult{
		SessionID: sessionID,
		Message:   "Video uploaded successfully",
	}, nil
}
