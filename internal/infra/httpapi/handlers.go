package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/usecase"
)

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "active_sessions": h.analysis.Active()})
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Video file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video file provided"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	result, err := h.uploads.Upload(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.fail(c, "upload failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) analytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.records.Aggregate())
}

func (h *Handler) resetAnalytics(c *gin.Context) {
	if err := h.records.Reset(c.Request.Context()); err != nil {
		h.fail(c, "reset analytics failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Analytics reset"})
}

func (h *Handler) history(c *gin.Context) {
	records := h.records.History()
	if records == nil {
		records = []entity.SessionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) saveRecord(c *gin.Context) {
	var record entity.SessionRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record payload: " + err.Error()})
		return
	}
	if err := h.records.Save(c.Request.Context(), record); err != nil {
		h.fail(c, "save record failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record saved successfully"})
}

func (h *Handler) startVideo(c *gin.Context) {
	id := c.Param("session_id")
	if err := h.analysis.StartVideo(c.Request.Context(), id); err != nil {
		h.fail(c, "start video analysis failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": id})
}

func (h *Handler) startCamera(c *gin.Context) {
	id, err := h.analysis.StartCamera(c.Request.Context())
	if err != nil {
		h.fail(c, "start camera analysis failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": id})
}

func (h *Handler) getSession(c *gin.Context) {
	session, err := h.analysis.Get(c.Param("session_id"))
	if err != nil {
		h.fail(c, "get session failed", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) cancelSession(c *gin.Context) {
	id := c.Param("session_id")
	if err := h.analysis.Cancel(id); err != nil {
		h.fail(c, "cancel session failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": id, "message": "Session cancelled"})
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInputMissing), errors.Is(err, entity.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrSourceUnavailable), errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, entity.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, usecase.ErrRegistryClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
