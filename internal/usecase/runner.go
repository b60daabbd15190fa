package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/analyzer"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/metrics"
)

const (
	// DefaultDecimation is how many frames are read per analyzed frame.
	DefaultDecimation = 5
	// DefaultEmitDelay is the pause after each emitted frame/metric pair.
	DefaultEmitDelay = 100 * time.Millisecond
)

// RunnerConfig tunes frame decimation and the pacing between emitted pairs.
type RunnerConfig struct {
	Decimation int
	EmitDelay  time.Duration
}

// SessionRunner drives one frame source through pose extraction, scoring and
// annotation, and publishes a frame/metric pair for every Nth frame.
type SessionRunner struct {
	extractor  port.PoseExtractor
	analyzer   port.MetricAnalyzer
	annotator  port.FrameAnnotator
	encoder    port.FrameEncoder
	publisher  port.StreamPublisher
	logger     *zap.Logger
	decimation int
	emitDelay  time.Duration
}

func NewSessionRunner(
	extractor port.PoseExtractor,
	analyzer port.MetricAnalyzer,
	annotator port.FrameAnnotator,
	encoder port.FrameEncoder,
	publisher port.StreamPublisher,
	logger *zap.Logger,
	cfg RunnerConfig,
) *SessionRunner {
	if cfg.Decimation <= 0 {
		cfg.Decimation = DefaultDecimation
	}
	if cfg.EmitDelay < 0 {
		cfg.EmitDelay = 0
	}
	return &SessionRunner{
		extractor:  extractor,
		analyzer:   analyzer,
		annotator:  annotator,
		encoder:    encoder,
		publisher:  publisher,
		logger:     logger,
		decimation: cfg.Decimation,
		emitDelay:  cfg.EmitDelay,
	}
}

// Run consumes source until it is exhausted or ctx is cancelled and always closes it.
// On exhaustion it publishes a single session-complete event and returns a nil error.
// On cancellation it returns ctx.Err() without publishing completion.
func (r *SessionRunner) Run(ctx context.Context, sessionID string, source port.FrameSource) (entity.SessionSummary, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "SessionRunner.Run",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	defer func() {
		if err := source.Close(); err != nil {
			r.logger.Warn("failed to close frame source", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	log := r.logger.With(zap.String("session_id", sessionID))
	acc := newAccumulator(sessionID)
	var counter uint64

	for {
		if err := ctx.Err(); err != nil {
			log.Info("session cancelled", zap.Int("frames_processed", acc.summary.FramesProcessed))
			return acc.result(), err
		}

		frame, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return acc.result(), ctxErr
			}
			span.RecordError(err)
			log.Error("frame source failed", zap.Error(err))
			return acc.result(), fmt.Errorf("read frame: %w", err)
		}

		counter++
		acc.summary.FramesRead++
		metrics.FramesReadTotal.Inc()
		if counter%uint64(r.decimation) != 0 {
			continue
		}

		emitted := r.processFrame(ctx, sessionID, frame, acc, log)
		if !emitted {
			continue
		}
		if err := r.wait(ctx); err != nil {
			log.Info("session cancelled", zap.Int("frames_processed", acc.summary.FramesProcessed))
			return acc.result(), err
		}
	}

	summary := acc.result()
	r.publisher.Publish(ctx, sessionID, entity.TopicSessionComplete, summary)
	span.SetAttributes(
		attribute.Int("session.frames_read", summary.FramesRead),
		attribute.Int("session.frames_processed", summary.FramesProcessed),
	)
	log.Info("session complete",
		zap.Int("frames_read", summary.FramesRead),
		zap.Int("frames_processed", summary.FramesProcessed),
		zap.Int("average_score", summary.AverageScore),
	)
	return summary, nil
}

// processFrame analyzes one frame and publishes its pair. It reports whether the pair was published.
func (r *SessionRunner) processFrame(
	ctx context.Context,
	sessionID string,
	frame *entity.Frame,
	acc *accumulator,
	log *zap.Logger,
) bool {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "process_frame",
		trace.WithAttributes(attribute.Int64("frame.index", int64(frame.Index))))
	defer span.End()

	exStart := time.Now()
	landmarks, err := r.extractor.Extract(ctx, frame)
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	if ctx.Err() != nil {
		return false
	}
	switch {
	case err != nil:
		log.Warn("pose extraction failed, treating frame as undetected",
			zap.Uint64("frame_index", frame.Index), zap.Error(err))
		metrics.FramesUndetectedTotal.WithLabelValues("extractor_error").Inc()
		landmarks = nil
	case landmarks == nil:
		metrics.FramesUndetectedTotal.WithLabelValues("no_pose").Inc()
	}

	anStart := time.Now()
	snapshot := r.analyzer.Analyze(landmarks)
	snapshot.FrameIndex = frame.Index
	metrics.StageDuration.WithLabelValues("analyze").Observe(time.Since(anStart).Seconds())

	acc.add(snapshot)
	metrics.FramesProcessedTotal.Inc()

	encStart := time.Now()
	img := r.annotator.Annotate(frame, landmarks)
	encoded, err := r.encoder.Encode(img)
	metrics.StageDuration.WithLabelValues("encode").Observe(time.Since(encStart).Seconds())
	if err != nil {
		span.RecordError(err)
		log.Error("failed to encode frame, skipping", zap.Uint64("frame_index", frame.Index), zap.Error(err))
		return false
	}

	if ctx.Err() != nil {
		return false
	}
	r.publisher.Publish(ctx, sessionID, entity.TopicFrameData, entity.FramePayload{
		FrameIndex: frame.Index,
		Image:      base64.StdEncoding.EncodeToString(encoded),
	})
	r.publisher.Publish(ctx, sessionID, entity.TopicMetricData, snapshot)
	return true
}

func (r *SessionRunner) wait(ctx context.Context) error {
	if r.emitDelay == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.emitDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// accumulator folds processed snapshots into the session summary.
type accumulator struct {
	summary entity.SessionSummary
	overall int
	totals  map[entity.MetricName]int
}

func newAccumulator(sessionID string) *accumulator {
	return &accumulator{
		summary: entity.SessionSummary{SessionID: sessionID},
		totals:  make(map[entity.MetricName]int, len(entity.MetricNames)),
	}
}

func (a *accumulator) add(s entity.MetricSnapshot) {
	a.summary.FramesProcessed++
	if !s.Detected() {
		return
	}
	a.summary.FramesDetected++
	a.overall += s.OverallScore
	for name, m := range s.Metrics {
		a.totals[name] += m.Score
	}
}

func (a *accumulator) result() entity.SessionSummary {
	out := a.summary
	n := out.FramesDetected
	out.AverageScore = analyzer.RoundMean(a.overall, n)
	out.AverageMetrics = make(map[entity.MetricName]entity.MetricScore, len(entity.MetricNames))
	for _, name := range entity.MetricNames {
		if n == 0 {
			out.AverageMetrics[name] = entity.MetricScore{Score: 0, Status: entity.MetricStatusUndetected}
			continue
		}
		out.AverageMetrics[name] = entity.MetricScore{
			Score:  analyzer.RoundMean(a.totals[name], n),
			Status: entity.MetricStatusOK,
		}
	}
	return out
}
