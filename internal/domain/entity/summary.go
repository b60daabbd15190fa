package entity

import "time"

// SessionSummary describes what a session run produced.
type SessionSummary struct {
	SessionID       string                     `json:"session_id"`
	Source          SourceKind                 `json:"source,omitempty"`
	FramesRead      int                        `json:"frames_read"`
	FramesProcessed int                        `json:"frames_processed"`
	FramesDetected  int                        `json:"frames_detected"`
	AverageScore    int                        `json:"average_score"`
	AverageMetrics  map[MetricName]MetricScore `json:"average_metrics"`
}

// Record converts the summary into a SessionRecord ready to be saved.
func (s SessionSummary) Record() SessionRecord {
	metrics := make(map[string]MetricScore, len(s.AverageMetrics))
	order := make([]string, 0, len(s.AverageMetrics))
	for _, name := range MetricNames {
		if m, ok := s.AverageMetrics[name]; ok {
			metrics[string(name)] = m
			order = append(order, string(name))
		}
	}
	return SessionRecord{
		SessionID:   s.SessionID,
		Score:       s.AverageScore,
		Metrics:     metrics,
		Timestamp:   time.Now().UTC(),
		MetricOrder: order,
	}
}
