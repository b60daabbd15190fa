package stream

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

func newTestHub(buffer int) *Hub {
	return NewHub(buffer, zap.NewNop())
}

func TestPublishWithoutSubscriberIsDropped(t *testing.T) {
	hub := newTestHub(4)
	defer hub.Close()

	hub.Publish(context.Background(), "s1", entity.TopicMetricData, 1)

	stats := hub.Stats()
	assert.Equal(t, uint64(1), stats.TotalPublished)
	assert.Equal(t, uint64(0), stats.TotalSent)
	assert.Equal(t, uint64(1), stats.TotalDropped)
}

func TestPublishPreservesOrderPerSubscriber(t *testing.T) {
	hub := newTestHub(128)
	defer hub.Close()

	sub, err := hub.Subscribe("s1")
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		hub.Publish(ctx, "s1", entity.TopicFrameData, i)
		hub.Publish(ctx, "s1", entity.TopicMetricData, i)
	}

	for i := 0; i < 50; i++ {
		ev := <-sub.C
		assert.Equal(t, entity.TopicFrameData, ev.Topic)
		assert.Equal(t, i, ev.Payload)
		ev = <-sub.C
		assert.Equal(t, entity.TopicMetricData, ev.Topic)
		assert.Equal(t, i, ev.Payload)
	}
}

func TestPublishIsScopedToSession(t *testing.T) {
	hub := newTestHub(4)
	defer hub.Close()

	a, err := hub.Subscribe("a")
	require.NoError(t, err)
	b, err := hub.Subscribe("b")
	require.NoError(t, err)

	hub.Publish(context.Background(), "a", entity.TopicSessionComplete, nil)

	select {
	case ev := <-a.C:
		assert.Equal(t, "a", ev.SessionID)
	case <-time.After(time.Second):
		t.Fatal("subscriber a got nothing")
	}
	select {
	case ev := <-b.C:
		t.Fatalf("subscriber b got %v", ev)
	default:
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	hub := newTestHub(2)
	defer hub.Close()

	sub, err := hub.Subscribe("s1")
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(context.Background(), "s1", entity.TopicFrameData, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	stats := hub.Stats()
	assert.Equal(t, uint64(2), stats.TotalSent)
	assert.Equal(t, uint64(98), stats.TotalDropped)

	// the oldest events survive, newer ones were dropped
	assert.Equal(t, 0, (<-sub.C).Payload)
	assert.Equal(t, 1, (<-sub.C).Payload)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := newTestHub(4)
	defer hub.Close()

	sub, err := hub.Subscribe("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("s1"))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers("s1"))

	_, open := <-sub.C
	assert.False(t, open)
}

func TestCloseRejectsSubscribersAndClosesChannels(t *testing.T) {
	hub := newTestHub(4)
	sub, err := hub.Subscribe("s1")
	require.NoError(t, err)

	hub.Close()
	hub.Close()

	_, open := <-sub.C
	assert.False(t, open)
	sub.Close()

	_, err = hub.Subscribe("s1")
	assert.ErrorIs(t, err, ErrHubClosed)

	hub.Publish(context.Background(), "s1", entity.TopicFrameData, nil)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	hub := newTestHub(8)
	defer hub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		session := fmt.Sprintf("s%d", i%2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				hub.Publish(context.Background(), session, entity.TopicMetricData, j)
			}
		}()
		go func() {
			defer wg.Done()
			sub, err := hub.Subscribe(session)
			if err != nil {
				return
			}
			time.Sleep(time.Millisecond)
			sub.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(8*200), hub.Stats().TotalPublished)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingPublisher) Publish(_ context.Context, _, topic string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

func TestFanoutPublishesToAll(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	f := Fanout{a, b}

	f.Publish(context.Background(), "s", entity.TopicFrameData, nil)
	f.Publish(context.Background(), "s", entity.TopicSessionComplete, nil)

	want := []string{entity.TopicFrameData, entity.TopicSessionComplete}
	assert.Equal(t, want, a.topics)
	assert.Equal(t, want, b.topics)
}
