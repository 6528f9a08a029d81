package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"Drawboard/internal/state"
)

const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Options configures a Compositor.
type Options struct {
	Width, Height int
	Background    color.Color

	// FadePending draws unconfirmed operations at half their alpha so a
	// submission the server silently dropped stays recognisable.
	FadePending bool
}

func DefaultOptions() Options {
	return Options{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: color.White,
	}
}

// PendingSource yields the pending operations in queue order.
type PendingSource interface {
	Each(fn func(state.PendingEntry) error) error
}

// Compositor owns the three rasters of a board:
//
//   - base: every operation the server confirmed, plus the initial snapshot
//   - working: base with every pending operation drawn on top, in queue order
//   - display: working, plus at most one shape preview
//
// Every state change triggers a full redraw; nothing is diffed. A Compositor
// is owned by one goroutine.
type Compositor struct {
	opts    Options
	base    *Layer
	working *Layer
	display *Layer
	visible bool
	redraws int
	logger  *slog.Logger
}

func NewCompositor(opts Options, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultWidth, DefaultHeight
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	c := &Compositor{opts: opts, logger: logger}
	c.allocate(opts.Width, opts.Height)
	return c
}

func (c *Compositor) allocate(width, height int) {
	c.closeLayers()
	c.base = NewLayer(width, height)
	c.working = NewLayer(width, height)
	c.display = NewLayer(width, height)
	c.base.Fill(c.opts.Background)
	c.working.Fill(c.opts.Background)
	c.display.Fill(c.opts.Background)
}

// Size returns the canvas size in pixels.
func (c *Compositor) Size() (width, height int) {
	return c.base.Width(), c.base.Height()
}

// LoadSnapshot replaces the base with the server's canvas image, resizing all
// layers to the image, and makes the surface visible.
func (c *Compositor) LoadSnapshot(img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: empty image", ErrDecodeSnapshot)
	}
	if w, h := c.Size(); w != b.Dx() || h != b.Dy() {
		c.logger.Debug("Resizing canvas to snapshot", "width", b.Dx(), "height", b.Dy())
		c.allocate(b.Dx(), b.Dy())
	}
	if err := c.base.LoadImage(img); err != nil {
		return err
	}
	c.visible = true
	return nil
}

// ApplyConfirmed draws a server-confirmed operation onto the base. It cannot
// be undone.
func (c *Compositor) ApplyConfirmed(op state.DrawOperation) error {
	return c.base.Draw(op)
}

// Redraw rebuilds working and display from the base and the pending
// operations. Any preview from an earlier call is gone afterwards.
func (c *Compositor) Redraw(pending PendingSource) error {
	if err := c.working.CopyFrom(c.base); err != nil {
		return err
	}
	if pending != nil {
		_ = pending.Each(func(e state.PendingEntry) error {
			op := e.Op
			if c.opts.FadePending {
				op.Color.A /= 2
			}
			if err := c.working.Draw(op); err != nil {
				c.logger.Warn("Failed to draw pending operation", "id", e.ID, "error", err)
			}
			return nil
		})
	}
	if err := c.display.CopyFrom(c.working); err != nil {
		return err
	}
	c.redraws++
	return nil
}

// Preview redraws and then draws op on the display layer only. The preview
// lasts until the next Redraw or Preview.
func (c *Compositor) Preview(pending PendingSource, op state.DrawOperation) error {
	if err := c.Redraw(pending); err != nil {
		return err
	}
	return c.display.Draw(op)
}

func (c *Compositor) Base() *Layer    { return c.base }
func (c *Compositor) Working() *Layer { return c.working }
func (c *Compositor) Display() *Layer { return c.display }

// DisplayImage returns a copy of what should be on screen.
func (c *Compositor) DisplayImage() *image.RGBA {
	return c.display.Image()
}

// Redraws reports how many full redraws have been performed.
func (c *Compositor) Redraws() int { return c.redraws }

func (c *Compositor) Visible() bool { return c.visible }

func (c *Compositor) SetVisible(v bool) { c.visible = v }

// Close releases the layers.
func (c *Compositor) Close() error {
	c.closeLayers()
	return nil
}

func (c *Compositor) closeLayers() {
	for _, l := range []*Layer{c.base, c.working, c.display} {
		if l != nil {
			_ = l.Close()
		}
	}
}
