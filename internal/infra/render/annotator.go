// Package render draws detected poses on frames and encodes them for streaming.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

var (
	BoneColor  = color.RGBA{R: 0x00, G: 0xe6, B: 0x76, A: 0xff}
	JointColor = color.RGBA{R: 0xff, G: 0x45, B: 0x00, A: 0xff}
	TextColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// MinVisibility is the visibility below which a landmark is not drawn.
const MinVisibility = 0.5

// Annotator overlays a pose skeleton on a frame.
type Annotator struct {
	BoneWidth   float32
	JointRadius float32
}

func NewAnnotator() *Annotator {
	return &Annotator{BoneWidth: 3, JointRadius: 4}
}

// Annotate returns a copy of frame with bones and joints drawn. Frames without a pose get a caption instead.
func (a *Annotator) Annotate(frame *entity.Frame, landmarks *entity.LandmarkSet) image.Image {
	img := frame.RGBA()
	b := img.Bounds()
	if b.Empty() {
		return img
	}

	if landmarks == nil {
		drawLabel(img, "NO POSE", 8, 16)
		return img
	}

	w, h := float32(b.Dx()), float32(b.Dy())
	at := func(name string) (float32, float32, bool) {
		lm, ok := landmarks.Get(name, MinVisibility)
		if !ok {
			return 0, 0, false
		}
		return float32(lm.X) * w, float32(lm.Y) * h, true
	}

	bones := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, c := range entity.SkeletonConnections {
		x0, y0, ok0 := at(c[0])
		x1, y1, ok1 := at(c[1])
		if ok0 && ok1 {
			addLine(bones, x0, y0, x1, y1, a.BoneWidth)
		}
	}
	bones.Draw(img, b, image.NewUniform(BoneColor), image.Point{})

	joints := vector.NewRasterizer(b.Dx(), b.Dy())
	for name := range landmarks.Points {
		if x, y, ok := at(name); ok {
			addCircle(joints, x, y, a.JointRadius)
		}
	}
	joints.Draw(img, b, image.NewUniform(JointColor), image.Point{})

	return img
}

// addLine adds a segment of the given width as a closed quad.
func addLine(z *vector.Rasterizer, x0, y0, x1, y1, width float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2

	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

// addCircle adds a circle approximated by four cubic arcs.
func addCircle(z *vector.Rasterizer, cx, cy, r float32) {
	const k = 0.5522847 // control point distance for a quarter arc
	c := r * k

	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+c, cx+c, cy+r, cx, cy+r)
	z.CubeTo(cx-c, cy+r, cx-r, cy+c, cx-r, cy)
	z.CubeTo(cx-r, cy-c, cx-c, cy-r, cx, cy-r)
	z.CubeTo(cx+c, cy-r, cx+r, cy-c, cx+r, cy)
	z.ClosePath()
}

func drawLabel(dst draw.Image, text string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(TextColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
