package port

import "context"

// StreamPublisher delivers session events to current subscribers. It never blocks on delivery
// and drops events nobody is listening for.
type StreamPublisher interface {
	Publish(ctx context.Context, sessionID, topic string, payload any)
}

// StatusPublisher emits session status changes to an external broker.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks messages that cannot be handled.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
