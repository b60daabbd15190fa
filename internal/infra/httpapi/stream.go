package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/stream"
)

// streamSession attaches to an existing session without owning it.
func (h *Handler) streamSession(c *gin.Context) {
	sub, err := h.hub.Subscribe(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	defer sub.Close()

	h.pump(c, sub, nil)
}

// startVideoStream subscribes, starts the video session and streams it.
// The session is cancelled when the client goes away.
func (h *Handler) startVideoStream(c *gin.Context) {
	id := c.Param("session_id")
	h.startAndStream(c, id, func() error {
		return h.analysis.StartVideo(c.Request.Context(), id)
	})
}

func (h *Handler) startCameraStream(c *gin.Context) {
	id := uuid.NewString()
	h.startAndStream(c, id, func() error {
		return h.analysis.StartCameraSession(c.Request.Context(), id)
	})
}

func (h *Handler) startAndStream(c *gin.Context, id string, start func() error) {
	sub, err := h.hub.Subscribe(id)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	defer sub.Close()

	if err := start(); err != nil {
		// a source failure already produced session-error on the subscription
		if !errors.Is(err, entity.ErrSourceUnavailable) {
			h.fail(c, "start streamed analysis failed", err)
			return
		}
	}

	h.pump(c, sub, func() {
		if err := h.analysis.Cancel(id); err != nil && !errors.Is(err, entity.ErrSessionNotFound) {
			h.logger.Warn("cancel on disconnect failed", zap.String("session_id", id), zap.Error(err))
		}
	})
}

// pump writes subscription events as SSE until a terminal event, hub
// shutdown, or client disconnect. onDisconnect runs only in the last case.
func (h *Handler) pump(c *gin.Context, sub *stream.Subscription, onDisconnect func()) {
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			if onDisconnect != nil {
				onDisconnect()
			}
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent(ev.Topic, eventData(ev))
			c.Writer.Flush()
			if ev.Topic == entity.TopicSessionComplete || ev.Topic == entity.TopicSessionError {
				return
			}
		}
	}
}

// eventData unwraps frame payloads so frame-data carries the bare base64 JPEG.
func eventData(ev entity.Event) any {
	if frame, ok := ev.Payload.(entity.FramePayload); ok {
		return frame.Image
	}
	return ev.Payload
}
