package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/metrics"
)

// Runner runs one analysis session over a frame source.
type Runner interface {
	Run(ctx context.Context, sessionID string, source port.FrameSource) (entity.SessionSummary, error)
}

// RecordSaver saves a finished session as a record.
type RecordSaver interface {
	Save(ctx context.Context, record entity.SessionRecord) error
}

type AnalysisConfig struct {
	AutoSave bool
}

// AnalysisService starts, tracks and cancels analysis sessions.
type AnalysisService struct {
	runner    Runner
	registry  *Registry
	videos    port.SourceOpener
	camera    port.CameraOpener
	publisher port.StreamPublisher
	status    port.StatusPublisher
	records   RecordSaver
	logger    *zap.Logger
	autoSave  bool
}

// NewAnalysisService wires the service. status and records may be nil.
func NewAnalysisService(
	runner Runner,
	registry *Registry,
	videos port.SourceOpener,
	camera port.CameraOpener,
	publisher port.StreamPublisher,
	status port.StatusPublisher,
	records RecordSaver,
	logger *zap.Logger,
	cfg AnalysisConfig,
) *AnalysisService {
	return &AnalysisService{
		runner:    runner,
		registry:  registry,
		videos:    videos,
		camera:    camera,
		publisher: publisher,
		status:    status,
		records:   records,
		logger:    logger,
		autoSave:  cfg.AutoSave && records != nil,
	}
}

// StartVideo starts a session over the video uploaded as sessionID.
// A missing or unreadable upload fails synchronously with entity.ErrSourceUnavailable
// and a session-error event; no frames are emitted.
func (s *AnalysisService) StartVideo(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return entity.ErrInputMissing
	}
	if s.registry.Running(sessionID) {
		return entity.ErrSessionExists
	}

	session := entity.NewSession(sessionID, entity.SourceVideo)
	source, err := s.videos.Open(ctx, sessionID)
	if err != nil {
		s.fail(ctx, session, err)
		return err
	}
	return s.launch(ctx, session, source)
}

// StartCamera starts a session over the camera and returns its generated id.
func (s *AnalysisService) StartCamera(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.StartCameraSession(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// StartCameraSession starts a camera session under a caller-chosen id, so a
// stream subscriber can attach before the first frame.
func (s *AnalysisService) StartCameraSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return entity.ErrInputMissing
	}
	if s.registry.Running(sessionID) {
		return entity.ErrSessionExists
	}

	session := entity.NewSession(sessionID, entity.SourceCamera)
	source, err := s.camera.OpenCamera(ctx)
	if err != nil {
		err = fmt.Errorf("open camera: %w", err)
		if !errors.Is(err, entity.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", entity.ErrSourceUnavailable, err)
		}
		s.fail(ctx, session, err)
		return err
	}
	return s.launch(ctx, session, source)
}

// Cancel stops a running session.
func (s *AnalysisService) Cancel(sessionID string) error {
	return s.registry.Cancel(sessionID)
}

// Get returns the state of a session.
func (s *AnalysisService) Get(sessionID string) (entity.Session, error) {
	return s.registry.Get(sessionID)
}

// Active returns the number of running sessions.
func (s *AnalysisService) Active() int {
	return s.registry.Active()
}

func (s *AnalysisService) launch(ctx context.Context, session *entity.Session, source port.FrameSource) error {
	err := s.registry.Launch(ctx, session, func(taskCtx context.Context) {
		s.run(taskCtx, session.ID, session.Source, source)
	})
	if err != nil {
		if cerr := source.Close(); cerr != nil {
			s.logger.Warn("failed to close frame source", zap.String("session_id", session.ID), zap.Error(cerr))
		}
		return err
	}
	return nil
}

func (s *AnalysisService) run(ctx context.Context, id string, kind entity.SourceKind, source port.FrameSource) {
	log := s.logger.With(zap.String("session_id", id), zap.String("source", string(kind)))

	running, _ := s.registry.Update(id, func(sess *entity.Session) { sess.MarkRunning() })
	s.publishStatus(ctx, &running, log)
	log.Info("session started")

	summary, err := s.runner.Run(ctx, id, source)
	summary.Source = kind

	// ctx is cancelled on the cancellation path; terminal events still go out.
	bg := context.WithoutCancel(ctx)

	var final entity.Session
	switch {
	case err == nil:
		final, _ = s.registry.Update(id, func(sess *entity.Session) { sess.MarkCompleted(summary) })
		metrics.SessionsTotal.WithLabelValues(string(kind), "completed").Inc()
		s.autoSaveSummary(bg, summary, log)
	case errors.Is(err, context.Canceled):
		final, _ = s.registry.Update(id, func(sess *entity.Session) { sess.MarkCancelled(summary) })
		metrics.SessionsTotal.WithLabelValues(string(kind), "cancelled").Inc()
		log.Info("session cancelled", zap.Int("frames_processed", summary.FramesProcessed))
	default:
		final, _ = s.registry.Update(id, func(sess *entity.Session) { sess.MarkFailed(err.Error()) })
		metrics.SessionsTotal.WithLabelValues(string(kind), "failed").Inc()
		s.publisher.Publish(bg, id, entity.TopicSessionError, entity.ErrorPayload{Error: err.Error()})
		log.Error("session failed", zap.Error(err))
	}

	s.publishStatus(bg, &final, log)
}

func (s *AnalysisService) fail(ctx context.Context, session *entity.Session, err error) {
	log := s.logger.With(zap.String("session_id", session.ID), zap.String("source", string(session.Source)))
	log.Error("failed to open frame source", zap.Error(err))

	session.MarkFailed(err.Error())
	s.registry.Track(session)
	metrics.SessionsTotal.WithLabelValues(string(session.Source), "failed").Inc()
	s.publisher.Publish(ctx, session.ID, entity.TopicSessionError, entity.ErrorPayload{Error: err.Error()})
	s.publishStatus(ctx, session, log)
}

func (s *AnalysisService) autoSaveSummary(ctx context.Context, summary entity.SessionSummary, log *zap.Logger) {
	if !s.autoSave {
		return
	}
	if summary.FramesDetected == 0 {
		log.Info("no pose detected, skipping auto-save")
		return
	}
	if err := s.records.Save(ctx, summary.Record()); err != nil {
		log.Error("failed to auto-save session record", zap.Error(err))
	}
}

func (s *AnalysisService) publishStatus(ctx context.Context, session *entity.Session, log *zap.Logger) {
	if s.status == nil || session.ID == "" {
		return
	}
	data, _ := json.Marshal(entity.StatusMessage(session))
	if err := s.status.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
