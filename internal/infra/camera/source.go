// Package camera provides a simulated camera frame source.
package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/port"
)

type Config struct {
	Width  int
	Height int
	// FPS paces frames. Zero produces frames as fast as they are read.
	FPS int
	// Frames bounds the stream. Zero streams until the session is cancelled.
	Frames int
}

// Opener opens simulated cameras. It implements port.CameraOpener.
type Opener struct {
	cfg    Config
	logger *zap.Logger
}

func NewOpener(cfg Config, logger *zap.Logger) *Opener {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	return &Opener{cfg: cfg, logger: logger}
}

func (o *Opener) OpenCamera(_ context.Context) (port.FrameSource, error) {
	o.logger.Info("simulated camera opened",
		zap.Int("width", o.cfg.Width),
		zap.Int("height", o.cfg.Height),
		zap.Int("fps", o.cfg.FPS),
		zap.Int("frames", o.cfg.Frames),
	)
	return newSource(o.cfg), nil
}

// Source renders a moving gradient captioned with the frame number.
type Source struct {
	cfg    Config
	seq    uint64
	ticker *time.Ticker
	closed atomic.Bool
}

func newSource(cfg Config) *Source {
	s := &Source{cfg: cfg}
	if cfg.FPS > 0 {
		s.ticker = time.NewTicker(time.Second / time.Duration(cfg.FPS))
	}
	return s
}

func (s *Source) Next(ctx context.Context) (*entity.Frame, error) {
	if s.closed.Load() {
		return nil, io.ErrClosedPipe
	}
	if s.cfg.Frames > 0 && s.seq >= uint64(s.cfg.Frames) {
		return nil, io.EOF
	}
	if s.ticker != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.seq++
	return entity.FrameFromImage(s.seq, s.render(s.seq)), nil
}

func (s *Source) render(seq uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.cfg.Width, s.cfg.Height))
	shift := int(seq * 4)
	for y := 0; y < s.cfg.Height; y++ {
		for x := 0; x < s.cfg.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + shift) * 255 / (s.cfg.Width + 1)),
				G: uint8(y * 255 / (s.cfg.Height + 1)),
				B: 0x60,
				A: 0xff,
			})
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 20),
	}
	d.DrawString(fmt.Sprintf("Camera Frame %d", seq))
	return img
}

func (s *Source) Close() error {
	if s.closed.CompareAndSwap(false, true) && s.ticker != nil {
		s.ticker.Stop()
	}
	return nil
}
