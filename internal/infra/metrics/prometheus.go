package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pose_sessions_total",
		Help: "Total number of analysis sessions finished, by source and status",
	}, []string{"source", "status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pose_active_sessions",
		Help: "Number of analysis sessions currently running",
	})

	FramesReadTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pose_frames_read_total",
		Help: "Total number of frames read from sources",
	})

	FramesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pose_frames_processed_total",
		Help: "Total number of frames analyzed and emitted after decimation",
	})

	FramesUndetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pose_frames_undetected_total",
		Help: "Processed frames without a pose, by reason",
	}, []string{"reason"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pose_stage_duration_seconds",
		Help:    "Duration of per-frame pipeline stages",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"stage"})

	StreamEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pose_stream_events_total",
		Help: "Stream events handed to subscribers, by topic and outcome",
	}, []string{"topic", "outcome"})

	RecordsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pose_records_saved_total",
		Help: "Total number of session records saved",
	})

	AverageScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pose_analytics_average_score",
		Help: "Current average score across saved records",
	})
)
