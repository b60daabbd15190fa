package entity

import (
	"image"
	"time"
)

// Frame is one decoded video frame in packed RGB24 layout.
type Frame struct {
	Index     uint64
	Width     int
	Height    int
	Channels  int
	Data      []byte
	Timestamp time.Time
}

// NewFrame wraps an RGB24 buffer. It does not copy data.
func NewFrame(index uint64, width, height int, data []byte) *Frame {
	return &Frame{
		Index:     index,
		Width:     width,
		Height:    height,
		Channels:  3,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// RGBA converts the frame into a fresh RGBA image that can be drawn on.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	if len(f.Data) < n*f.Channels {
		n = len(f.Data) / f.Channels
	}
	for i := 0; i < n; i++ {
		src := i * f.Channels
		dst := i * 4
		img.Pix[dst] = f.Data[src]
		img.Pix[dst+1] = f.Data[src+1]
		img.Pix[dst+2] = f.Data[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img
}

// FrameFromImage packs any image into an RGB24 frame.
func FrameFromImage(index uint64, img image.Image) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data = append(data, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return NewFrame(index, w, h, data)
}
