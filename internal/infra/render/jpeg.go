package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

const DefaultJPEGQuality = 80

// JPEGEncoder encodes frames as JPEG.
type JPEGEncoder struct {
	Quality int
}

func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &JPEGEncoder{Quality: quality}
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("encode jpeg: empty image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
