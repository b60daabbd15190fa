package entity

import "time"

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusRunning   SessionStatus = "RUNNING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusFailed    SessionStatus = "FAILED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

type SourceKind string

const (
	SourceVideo  SourceKind = "video"
	SourceCamera SourceKind = "camera"
)

// Session tracks one run of the analysis pipeline.
type Session struct {
	ID           string          `json:"session_id"`
	Source       SourceKind      `json:"source"`
	Status       SessionStatus   `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Summary      *SessionSummary `json:"summary,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

func NewSession(id string, source SourceKind) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Source:    source,
		Status:    SessionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) MarkRunning() {
	s.Status = SessionStatusRunning
	s.UpdatedAt = time.Now().UTC()
}

func (s *Session) MarkCompleted(summary SessionSummary) {
	now := time.Now().UTC()
	s.Status = SessionStatusCompleted
	s.Summary = &summary
	s.UpdatedAt = now
	s.CompletedAt = &now
}

func (s *Session) MarkFailed(errMsg string) {
	now := time.Now().UTC()
	s.Status = SessionStatusFailed
	s.ErrorMessage = errMsg
	s.UpdatedAt = now
	s.CompletedAt = &now
}

func (s *Session) MarkCancelled(summary SessionSummary) {
	now := time.Now().UTC()
	s.Status = SessionStatusCancelled
	s.Summary = &summary
	s.UpdatedAt = now
	s.CompletedAt = &now
}

// Done reports whether the session reached a terminal status.
func (s *Session) Done() bool {
	switch s.Status {
	case SessionStatusCompleted, SessionStatusFailed, SessionStatusCancelled:
		return true
	}
	return false
}
