package usecase

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/infra/metrics"
)

const DefaultMaxSessions = 4

// ErrRegistryClosed is returned by Launch after Shutdown.
var ErrRegistryClosed = errors.New("session registry is shut down")

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry owns the goroutine of every running session and bounds how many run at once.
type Registry struct {
	mu       sync.Mutex
	sem      *semaphore.Weighted
	tasks    map[string]*task
	sessions map[string]*entity.Session
	closed   bool
	wg       sync.WaitGroup
	logger   *zap.Logger
}

func NewRegistry(maxSessions int64, logger *zap.Logger) *Registry {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Registry{
		sem:      semaphore.NewWeighted(maxSessions),
		tasks:    make(map[string]*task),
		sessions: make(map[string]*entity.Session),
		logger:   logger,
	}
}

// Launch runs fn on its own goroutine under a context cancelled by Cancel or Shutdown.
// The context keeps the values of ctx but not its cancellation.
func (r *Registry) Launch(ctx context.Context, session *entity.Session, fn func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	if _, running := r.tasks[session.ID]; running {
		return entity.ErrSessionExists
	}
	if !r.sem.TryAcquire(1) {
		return entity.ErrTooManySessions
	}

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &task{cancel: cancel, done: make(chan struct{})}
	r.tasks[session.ID] = t
	r.sessions[session.ID] = session
	r.wg.Add(1)
	metrics.ActiveSessions.Inc()

	go func() {
		defer r.wg.Done()
		defer r.finish(session.ID, t)
		fn(taskCtx)
	}()
	return nil
}

func (r *Registry) finish(id string, t *task) {
	t.cancel()
	metrics.ActiveSessions.Dec()
	r.sem.Release(1)

	r.mu.Lock()
	if r.tasks[id] == t {
		delete(r.tasks, id)
	}
	r.mu.Unlock()
	close(t.done)
}

// Cancel stops a running session.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return entity.ErrSessionNotFound
	}
	t.cancel()
	r.logger.Info("session cancel requested", zap.String("session_id", id))
	return nil
}

// Running reports whether a session with id is currently running.
func (r *Registry) Running(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[id]
	return ok
}

// Active returns the number of running sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Get returns a copy of the last known state of a session.
func (r *Registry) Get(id string) (entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return entity.Session{}, entity.ErrSessionNotFound
	}
	return *s, nil
}

// Track records a session that never ran, such as one whose source failed to open.
func (r *Registry) Track(session *entity.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.tasks[session.ID]; running {
		return
	}
	r.sessions[session.ID] = session
}

// Update applies fn to the tracked session under the registry lock and returns a copy of the result.
func (r *Registry) Update(id string, fn func(s *entity.Session)) (entity.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return entity.Session{}, false
	}
	fn(s)
	return *s, true
}

// Wait blocks until the session with id stops running or ctx is done.
func (r *Registry) Wait(ctx context.Context, id string) error {
	r.mu.Lock()
	t, ok := r.tasks[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels every running session and waits for them to return.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	for _, t := range r.tasks {
		t.cancel()
	}
	n := len(r.tasks)
	r.mu.Unlock()

	r.logger.Info("stopping sessions", zap.Int("active", n))

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
