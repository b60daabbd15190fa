package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
)

const channels = 3

// PathResolver maps a session id to the uploaded video path.
type PathResolver interface {
	Path(sessionID string) string
}

type Config struct {
	FFmpegPath  string
	FFprobePath string
}

// Opener opens uploaded videos as frame sources decoded by an ffmpeg subprocess.
type Opener struct {
	paths   PathResolver
	ffmpeg  string
	ffprobe string
	logger  *zap.Logger
}

func NewOpener(paths PathResolver, cfg Config, logger *zap.Logger) *Opener {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	return &Opener{paths: paths, ffmpeg: cfg.FFmpegPath, ffprobe: cfg.FFprobePath, logger: logger}
}

// Open starts decoding the video uploaded for sessionID. Every failure wraps entity.ErrSourceUnavailable.
func (o *Opener) Open(ctx context.Context, sessionID string) (port.FrameSource, error) {
	path := o.paths.Path(sessionID)
	return o.OpenFile(ctx, path)
}

// OpenFile starts decoding the video at path.
func (o *Opener) OpenFile(ctx context.Context, path string) (port.FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrSourceUnavailable, err)
	}

	info, err := probe(ctx, o.ffprobe, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entity.ErrSourceUnavailable, path, err)
	}

	// the decoder belongs to the session, not to the caller's context
	cmd := exec.Command(o.ffmpeg,
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", entity.ErrSourceUnavailable, err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %w", entity.ErrSourceUnavailable, err)
	}

	o.logger.Info("video opened",
		zap.String("path", path),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Float64("video_duration", info.Duration),
	)

	return &Source{
		cmd:       cmd,
		stdout:    stdout,
		stderr:    stderr,
		info:      info,
		frameSize: info.Width * info.Height * channels,
		logger:    o.logger,
	}, nil
}

// Source reads raw RGB24 frames from a running ffmpeg process.
type Source struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    *bytes.Buffer
	info      VideoInfo
	frameSize int
	index     uint64
	logger    *zap.Logger

	closeOnce sync.Once
	waited    bool
}

func (s *Source) Info() VideoInfo {
	return s.info
}

// Next returns the next frame, or io.EOF once ffmpeg has decoded the whole file.
func (s *Source) Next(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = s.cmd.Process.Kill() })
	defer stop()

	buf := make([]byte, s.frameSize)
	_, err := io.ReadFull(s.stdout, buf)
	switch {
	case err == nil:
		s.index++
		return entity.NewFrame(s.index, s.info.Width, s.info.Height, buf), nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, s.finish()
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
}

// finish reaps ffmpeg after its output ends. A clean exit is io.EOF.
func (s *Source) finish() error {
	if s.waited {
		return io.EOF
	}
	s.waited = true
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w, output: %s", err, s.stderr.String())
	}
	return io.EOF
}

// Close stops ffmpeg if it is still running. It is safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.waited {
			return
		}
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		s.waited = true
	})
	return nil
}
