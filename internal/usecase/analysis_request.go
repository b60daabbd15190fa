package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
)

// VideoStarter starts a video session.
type VideoStarter interface {
	StartVideo(ctx context.Context, sessionID string) error
}

// AnalysisRequestHandler turns queued analysis requests into video sessions.
// It never asks for redelivery: malformed or rejected requests go to the DLQ and
// source failures are reported through session status.
type AnalysisRequestHandler struct {
	starter VideoStarter
	dlq     port.DLQPublisher
	logger  *zap.Logger
}

func NewAnalysisRequestHandler(starter VideoStarter, dlq port.DLQPublisher, logger *zap.Logger) *AnalysisRequestHandler {
	return &AnalysisRequestHandler{starter: starter, dlq: dlq, logger: logger}
}

func (h *AnalysisRequestHandler) Handle(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalysisRequestHandler.Handle")
	defer span.End()

	var msg entity.AnalysisRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		h.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		h.park(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}
	if msg.SessionID == "" {
		h.logger.Error("analysis request without session id", zap.ByteString("body", rawMsg))
		h.park(ctx, rawMsg, "missing session_id")
		return nil
	}

	span.SetAttributes(attribute.String("session.id", msg.SessionID))
	log := h.logger.With(zap.String("session_id", msg.SessionID))

	err := h.starter.StartVideo(ctx, msg.SessionID)
	switch {
	case err == nil:
		log.Info("analysis started from queue")
	case errors.Is(err, entity.ErrSourceUnavailable):
		log.Warn("analysis request for unavailable video", zap.Error(err))
	case errors.Is(err, entity.ErrSessionExists), errors.Is(err, entity.ErrTooManySessions):
		log.Warn("analysis request rejected", zap.Error(err))
		h.park(ctx, rawMsg, err.Error())
	default:
		log.Error("analysis request failed", zap.Error(err))
		h.park(ctx, rawMsg, err.Error())
	}
	return nil
}

func (h *AnalysisRequestHandler) park(ctx context.Context, rawMsg []byte, reason string) {
	if h.dlq == nil {
		return
	}
	if err := h.dlq.PublishToDLQ(ctx, rawMsg, reason); err != nil {
		h.logger.Error("failed to publish to DLQ", zap.Error(err))
	}
}
