package usecase

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"sync/atomic"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/analyzer"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
)

// countingSource yields total frames, then io.EOF, or failAt's error when set.
type countingSource struct {
	total  int
	failAt int
	read   int
	closed atomic.Bool
}

func newCountingSource(total int) *countingSource {
	return &countingSource{total: total}
}

func (s *countingSource) Next(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failAt > 0 && s.read+1 == s.failAt {
		return nil, errors.New("decoder crashed")
	}
	if s.read >= s.total {
		return nil, io.EOF
	}
	s.read++
	return entity.NewFrame(uint64(s.read), 4, 4, make([]byte, 4*4*3)), nil
}

func (s *countingSource) Close() error {
	s.closed.Store(true)
	return nil
}

// blockingSource never yields a frame; Next returns when ctx is done.
type blockingSource struct {
	closed atomic.Bool
}

func (s *blockingSource) Next(ctx context.Context) (*entity.Frame, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *blockingSource) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeExtractor struct {
	err  error
	none bool
}

func (e fakeExtractor) Extract(_ context.Context, _ *entity.Frame) (*entity.LandmarkSet, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.none {
		return nil, nil
	}
	set := entity.NewLandmarkSet()
	set.Points[entity.Nose] = entity.Landmark{X: 0.5, Y: 0.2, Visibility: 1}
	return set, nil
}

type fakeAnnotator struct{}

func (fakeAnnotator) Annotate(frame *entity.Frame, _ *entity.LandmarkSet) image.Image {
	return frame.RGBA()
}

type fakeEncoder struct {
	failOn map[int]bool
	calls  int
}

func (e *fakeEncoder) Encode(_ image.Image) ([]byte, error) {
	e.calls++
	if e.failOn[e.calls] {
		return nil, errors.New("encode failed")
	}
	return []byte("jpeg"), nil
}

// recordingPublisher keeps every event. onPublish, when set, runs after each event is recorded.
type recordingPublisher struct {
	mu        sync.Mutex
	events    []entity.Event
	onPublish func(ev entity.Event)
}

func (p *recordingPublisher) Publish(_ context.Context, sessionID, topic string, payload any) {
	ev := entity.Event{SessionID: sessionID, Topic: topic, Payload: payload}
	p.mu.Lock()
	p.events = append(p.events, ev)
	hook := p.onPublish
	p.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Topic
	}
	return out
}

func (p *recordingPublisher) count(topic string) int {
	n := 0
	for _, t := range p.topics() {
		if t == topic {
			n++
		}
	}
	return n
}

type recordingStatus struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (s *recordingStatus) PublishStatus(_ context.Context, msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingStatus) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func fixedAnalyzer(scores ...int) port.MetricAnalyzer {
	return analyzer.New(analyzer.ScorerFunc(func(_ *entity.LandmarkSet) map[entity.MetricName]int {
		out := make(map[entity.MetricName]int, len(entity.MetricNames))
		for i, name := range entity.MetricNames {
			if i < len(scores) {
				out[name] = scores[i]
			}
		}
		return out
	}))
}

type fakeOpener struct {
	sources map[string]port.FrameSource
	opened  atomic.Int32
}

func (o *fakeOpener) Open(_ context.Context, sessionID string) (port.FrameSource, error) {
	o.opened.Add(1)
	src, ok := o.sources[sessionID]
	if !ok {
		return nil, errors.Join(entity.ErrSourceUnavailable, errors.New("no upload for "+sessionID))
	}
	return src, nil
}

type fakeCamera struct {
	source port.FrameSource
	err    error
}

func (c fakeCamera) OpenCamera(_ context.Context) (port.FrameSource, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.source, nil
}
