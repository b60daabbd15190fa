package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/metrics"
)

// ErrHubClosed is returned when subscribing to a closed hub.
var ErrHubClosed = errors.New("stream hub is closed")

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 64

// Stats is a snapshot of hub counters.
type Stats struct {
	TotalPublished uint64
	TotalSent      uint64
	TotalDropped   uint64
	Subscribers    int
}

type subscriber struct {
	id      string
	ch      chan entity.Event
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Subscription is a live registration on one session.
type Subscription struct {
	ID        string
	SessionID string
	C         <-chan entity.Event

	hub  *Hub
	once sync.Once
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s.SessionID, s.ID)
	})
}

// Hub fans session events out to subscribers. It implements port.StreamPublisher.
type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]map[string]*subscriber
	bufferSize int
	closed     bool
	logger     *zap.Logger

	published atomic.Uint64
	sent      atomic.Uint64
	dropped   atomic.Uint64
}

func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		sessions:   make(map[string]map[string]*subscriber),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe registers a new subscriber for sessionID.
func (h *Hub) Subscribe(sessionID string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &subscriber{
		id: uuid.NewString(),
		ch: make(chan entity.Event, h.bufferSize),
	}
	subs, ok := h.sessions[sessionID]
	if !ok {
		subs = make(map[string]*subscriber)
		h.sessions[sessionID] = subs
	}
	subs[sub.id] = sub

	h.logger.Debug("stream subscriber added",
		zap.String("session_id", sessionID),
		zap.String("subscriber_id", sub.id),
	)

	return &Subscription{ID: sub.id, SessionID: sessionID, C: sub.ch, hub: h}, nil
}

func (h *Hub) unsubscribe(sessionID, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	sub, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.sessions, sessionID)
	}
	close(sub.ch)

	h.logger.Debug("stream subscriber removed",
		zap.String("session_id", sessionID),
		zap.String("subscriber_id", id),
		zap.Uint64("sent", sub.sent.Load()),
		zap.Uint64("dropped", sub.dropped.Load()),
	)
}

// Publish sends the event to every subscriber of sessionID without blocking.
func (h *Hub) Publish(_ context.Context, sessionID, topic string, payload any) {
	h.published.Add(1)
	ev := entity.Event{SessionID: sessionID, Topic: topic, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.sessions[sessionID]
	if h.closed || len(subs) == 0 {
		h.dropped.Add(1)
		metrics.StreamEventsTotal.WithLabelValues(topic, "unreachable").Inc()
		return
	}

	for _, sub := range subs {
		select {
		case sub.ch <- ev:
			sub.sent.Add(1)
			h.sent.Add(1)
			metrics.StreamEventsTotal.WithLabelValues(topic, "sent").Inc()
		default:
			sub.dropped.Add(1)
			h.dropped.Add(1)
			metrics.StreamEventsTotal.WithLabelValues(topic, "dropped").Inc()
		}
	}
}

// Subscribers returns the number of subscribers on sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	n := 0
	for _, subs := range h.sessions {
		n += len(subs)
	}
	h.mu.RUnlock()

	return Stats{
		TotalPublished: h.published.Load(),
		TotalSent:      h.sent.Load(),
		TotalDropped:   h.dropped.Load(),
		Subscribers:    n,
	}
}

// Close closes every subscriber channel and rejects new subscriptions.
// Publishing after Close drops events. Close is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sessionID, subs := range h.sessions {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(h.sessions, sessionID)
	}
}
