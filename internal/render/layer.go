package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"

	"Drawboard/internal/state"
)

// Layer is one raster of the compositor: a pixel buffer plus the drawing
// context bound to it.
type Layer struct {
	pm *gg.Pixmap
	dc *gg.Context
}

func NewLayer(width, height int) *Layer {
	pm := gg.NewPixmap(width, height)
	return &Layer{
		pm: pm,
		dc: gg.NewContext(width, height, gg.WithPixmap(pm)),
	}
}

func (l *Layer) Width() int  { return l.pm.Width() }
func (l *Layer) Height() int { return l.pm.Height() }

func (l *Layer) Bounds() image.Rectangle { return l.pm.Bounds() }

// At returns the color of one pixel.
func (l *Layer) At(x, y int) color.Color { return l.pm.At(x, y) }

// Fill paints every pixel with c.
func (l *Layer) Fill(c color.Color) {
	l.pm.Clear(gg.FromColor(c))
}

// Draw rasterizes op onto the layer.
func (l *Layer) Draw(op state.DrawOperation) error {
	return Draw(l.dc, op)
}

// CopyFrom overwrites the layer with the pixels of src. Both layers must have
// the same size.
func (l *Layer) CopyFrom(src *Layer) error {
	if l.Width() != src.Width() || l.Height() != src.Height() {
		return fmt.Errorf("copy layer: size %dx%d != %dx%d", src.Width(), src.Height(), l.Width(), l.Height())
	}
	copy(l.pm.Data(), src.pm.Data())
	return nil
}

// LoadImage overwrites the layer with img, which must have the layer's size.
func (l *Layer) LoadImage(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != l.Width() || b.Dy() != l.Height() {
		return fmt.Errorf("load image: size %dx%d != %dx%d", b.Dx(), b.Dy(), l.Width(), l.Height())
	}
	copy(l.pm.Data(), gg.FromImage(img).Data())
	return nil
}

// Image returns a copy of the layer that the caller may keep.
func (l *Layer) Image() *image.RGBA {
	return l.pm.ToImage()
}

func (l *Layer) Close() error {
	return l.dc.Close()
}
