package stream

import (
	"context"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
)

// Fanout publishes each event to several publishers in order.
type Fanout []port.StreamPublisher

func (f Fanout) Publish(ctx context.Context, sessionID, topic string, payload any) {
	for _, p := range f {
		p.Publish(ctx, sessionID, topic, payload)
	}
}
