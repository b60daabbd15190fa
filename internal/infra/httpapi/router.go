// Package httpapi exposes uploads, analytics and session streams over HTTP.
package httpapi

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/stream"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/usecase"
)

// DefaultMaxUploadBytes caps multipart upload bodies.
const DefaultMaxUploadBytes = 512 << 20

type Analysis interface {
	StartVideo(ctx context.Context, sessionID string) error
	StartCamera(ctx context.Context) (string, error)
	StartCameraSession(ctx context.Context, sessionID string) error
	Cancel(sessionID string) error
	Get(sessionID string) (entity.Session, error)
	Active() int
}

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (usecase.UploadResult, error)
}

type Records interface {
	Save(ctx context.Context, record entity.SessionRecord) error
	Reset(ctx context.Context) error
	History() []entity.SessionRecord
	Aggregate() entity.AnalyticsAggregate
}

type Config struct {
	MaxUploadBytes int64
	CORSAllowAll   bool
}

type Handler struct {
	analysis Analysis
	uploads  Uploader
	records  Records
	hub      *stream.Hub
	logger   *zap.Logger
	cfg      Config
}

func NewHandler(analysis Analysis, uploads Uploader, records Records, hub *stream.Hub, logger *zap.Logger, cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		analysis: analysis,
		uploads:  uploads,
		records:  records,
		hub:      hub,
		logger:   logger,
		cfg:      cfg,
	}
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	if h.cfg.CORSAllowAll {
		router.Use(cors())
	}

	api := router.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/upload", h.upload)

		api.GET("/analytics", h.analytics)
		api.DELETE("/analytics", h.resetAnalytics)
		api.GET("/history", h.history)
		api.POST("/save-record", h.saveRecord)

		api.GET("/stream/:session_id", h.streamSession)
	}

	analysis := api.Group("/analysis")
	{
		analysis.POST("/video/:session_id", h.startVideo)
		analysis.GET("/video/:session_id/stream", h.startVideoStream)
		analysis.POST("/camera", h.startCamera)
		analysis.GET("/camera/stream", h.startCameraStream)
		analysis.GET("/:session_id", h.getSession)
		analysis.DELETE("/:session_id", h.cancelSession)
	}

	return router
}
