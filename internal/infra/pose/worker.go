package pose

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

const maxResponseSize = 16 << 20

// ErrWorkerTimeout is returned when the worker does not answer within the configured timeout.
var ErrWorkerTimeout = errors.New("pose worker timed out")

type WorkerConfig struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

type request struct {
	Seq       uint64 `msgpack:"seq"`
	Width     int    `msgpack:"width"`
	Height    int    `msgpack:"height"`
	Channels  int    `msgpack:"channels"`
	FrameData []byte `msgpack:"frame_data"`
}

type response struct {
	Seq       uint64                     `msgpack:"seq"`
	Detected  bool                       `msgpack:"detected"`
	Landmarks map[string]entity.Landmark `msgpack:"landmarks"`
	Error     string                     `msgpack:"error"`
}

type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// Worker runs pose detection in an external process speaking length-prefixed msgpack
// over stdin/stdout. Calls are serialized; a worker that times out or desyncs is
// killed and restarted on the next call.
type Worker struct {
	cfg    WorkerConfig
	logger *zap.Logger

	mu   sync.Mutex
	proc *process
	seq  uint64
}

func NewWorker(cfg WorkerConfig, logger *zap.Logger) *Worker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Worker{cfg: cfg, logger: logger}
}

// Start spawns the worker process ahead of the first frame.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ensureLocked()
}

func (w *Worker) ensureLocked() error {
	if w.proc != nil {
		return nil
	}

	cmd := exec.Command(w.cfg.Command, w.cfg.Args...)
	if len(w.cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), w.cfg.Env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start pose worker: %w", err)
	}

	go w.logStderr(stderr)

	w.proc = &process{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}
	w.logger.Info("pose worker started",
		zap.String("command", w.cfg.Command),
		zap.Int("pid", cmd.Process.Pid),
	)
	return nil
}

func (w *Worker) logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "ERROR"), strings.Contains(line, "CRITICAL"):
			w.logger.Error("pose worker", zap.String("line", line))
		case strings.Contains(line, "WARN"):
			w.logger.Warn("pose worker", zap.String("line", line))
		default:
			w.logger.Debug("pose worker", zap.String("line", line))
		}
	}
}

// Extract sends one frame to the worker. An undetected pose is a nil set with a nil error.
func (w *Worker) Extract(ctx context.Context, frame *entity.Frame) (*entity.LandmarkSet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureLocked(); err != nil {
		return nil, err
	}

	w.seq++
	payload, err := msgpack.Marshal(request{
		Seq:       w.seq,
		Width:     frame.Width,
		Height:    frame.Height,
		Channels:  frame.Channels,
		FrameData: frame.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	type result struct {
		resp response
		err  error
	}
	done := make(chan result, 1)
	proc := w.proc
	go func() {
		resp, err := proc.roundTrip(payload)
		done <- result{resp, err}
	}()

	timer := time.NewTimer(w.cfg.Timeout)
	defer timer.Stop()

	var res result
	select {
	case res = <-done:
	case <-timer.C:
		w.killLocked()
		return nil, ErrWorkerTimeout
	case <-ctx.Done():
		w.killLocked()
		return nil, ctx.Err()
	}

	if res.err != nil {
		w.killLocked()
		return nil, res.err
	}
	if res.resp.Seq != w.seq {
		w.killLocked()
		return nil, fmt.Errorf("pose worker answered seq %d, want %d", res.resp.Seq, w.seq)
	}
	if res.resp.Error != "" {
		return nil, fmt.Errorf("pose worker: %s", res.resp.Error)
	}
	if !res.resp.Detected || len(res.resp.Landmarks) == 0 {
		return nil, nil
	}
	return &entity.LandmarkSet{Points: res.resp.Landmarks}, nil
}

func (p *process) roundTrip(payload []byte) (response, error) {
	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, uint32(len(payload)))
	if _, err := p.stdin.Write(prefix); err != nil {
		return response{}, fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := p.stdin.Write(payload); err != nil {
		return response{}, fmt.Errorf("write request: %w", err)
	}

	if _, err := io.ReadFull(p.stdout, prefix); err != nil {
		return response{}, fmt.Errorf("read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(prefix)
	if n > maxResponseSize {
		return response{}, fmt.Errorf("response of %d bytes exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(p.stdout, data); err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	var resp response
	if err := msgpack.Unmarshal(data, &resp); err != nil {
		return response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}

func (w *Worker) killLocked() {
	if w.proc == nil {
		return
	}
	p := w.proc
	w.proc = nil
	_ = p.cmd.Process.Kill()
	_ = p.cmd.Wait()
	w.logger.Warn("pose worker killed", zap.Int("pid", p.cmd.Process.Pid))
}

// Close stops the worker, giving it a moment to exit after stdin closes.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.proc == nil {
		return nil
	}
	p := w.proc
	w.proc = nil
	_ = p.stdin.Close()

	exited := make(chan error, 1)
	go func() { exited <- p.cmd.Wait() }()
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		_ = p.cmd.Process.Kill()
		<-exited
	}
	w.logger.Info("pose worker stopped")
	return nil
}
