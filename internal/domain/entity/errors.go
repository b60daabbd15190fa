package entity

import "errors"

var (
	// ErrInputMissing is returned when an upload carries no file.
	ErrInputMissing = errors.New("no video file provided")
	// ErrSourceUnavailable is returned when a frame source cannot be opened.
	ErrSourceUnavailable = errors.New("frame source unavailable")
	ErrSessionExists     = errors.New("session already running")
	ErrSessionNotFound   = errors.New("session not found")
	ErrTooManySessions   = errors.New("too many concurrent sessions")
	ErrInvalidRecord     = errors.New("invalid session record")
)
