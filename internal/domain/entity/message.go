package entity

import "time"

// Stream topics.
const (
	TopicFrameData       = "frame-data"
	TopicMetricData      = "metric-data"
	TopicSessionComplete = "session-complete"
	TopicSessionError    = "session-error"
)

// Event is one message published on a session stream.
type Event struct {
	SessionID string `json:"session_id"`
	Topic     string `json:"topic"`
	Payload   any    `json:"payload,omitempty"`
}

// FramePayload carries an annotated frame as base64 JPEG.
type FramePayload struct {
	FrameIndex uint64 `json:"frame_index"`
	Image      string `json:"image"`
}

// ErrorPayload is published on TopicSessionError.
type ErrorPayload struct {
	Error string `json:"error"`
}

// AnalysisRequestMessage is the inbound message on the analysis request queue.
type AnalysisRequestMessage struct {
	SessionID string `json:"session_id"`
}

// SessionStatusMessage is the outbound message published on every session status change.
type SessionStatusMessage struct {
	SessionID       string        `json:"session_id"`
	Source          SourceKind    `json:"source"`
	Status          SessionStatus `json:"status"`
	FramesProcessed int           `json:"frames_processed,omitempty"`
	AverageScore    int           `json:"average_score,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// StatusMessage builds the outbound status message for a session.
func StatusMessage(s *Session) SessionStatusMessage {
	msg := SessionStatusMessage{
		SessionID:    s.ID,
		Source:       s.Source,
		Status:       s.Status,
		ErrorMessage: s.ErrorMessage,
		Timestamp:    s.UpdatedAt,
	}
	if s.Summary != nil {
		msg.FramesProcessed = s.Summary.FramesProcessed
		msg.AverageScore = s.Summary.AverageScore
	}
	return msg
}
