package ui

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"Drawboard/internal/state"
)

// PointerSink receives gestures in canvas pixel coordinates.
type PointerSink interface {
	PointerDown(p state.Point)
	PointerMove(p state.Point)
	PointerUp(p state.Point)
	DragEnd()
}

// BoardWidget shows the board's display layer at one canvas pixel per unit
// and forwards primary-button gestures to a PointerSink. While the surface is
// hidden it shows a placeholder and ignores input.
type BoardWidget struct {
	widget.BaseWidget

	mu      sync.RWMutex
	frame   image.Image
	visible bool
	pressed bool
	sink    PointerSink
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

func NewBoardWidget() *BoardWidget {
	b := &BoardWidget{}
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) SetSink(sink PointerSink) {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
}

// SetFrame shows img. Safe to call from any goroutine; img must not be
// modified afterwards.
func (b *BoardWidget) SetFrame(img image.Image) {
	fyne.Do(func() { b.applyFrame(img) })
}

// SetSurfaceVisible shows or hides the drawing surface. Safe to call from any
// goroutine.
func (b *BoardWidget) SetSurfaceVisible(visible bool) {
	fyne.Do(func() { b.applyVisible(visible) })
}

func (b *BoardWidget) applyFrame(img image.Image) {
	b.mu.Lock()
	b.frame = img
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) applyVisible(visible bool) {
	b.mu.Lock()
	b.visible = visible
	if !visible {
		b.pressed = false
	}
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) SurfaceVisible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible
}

// gestureSink returns the sink if input should be forwarded.
func (b *BoardWidget) gestureSink() PointerSink {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.visible {
		return nil
	}
	return b.sink
}

func toPoint(pos fyne.Position) state.Point {
	return state.Point{X: float64(pos.X), Y: float64(pos.Y)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	sink := b.gestureSink()
	if sink == nil {
		return
	}
	b.mu.Lock()
	b.pressed = true
	b.mu.Unlock()
	sink.PointerDown(toPoint(e.Position))
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	sink := b.gestureSink()
	if sink == nil || !b.takePressed(false) {
		return
	}
	sink.PointerMove(toPoint(e.Position))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	sink := b.gestureSink()
	if sink == nil || !b.takePressed(true) {
		return
	}
	sink.PointerUp(toPoint(e.Position))
}

// DragEnd ends the gesture if MouseUp has not already done so.
func (b *BoardWidget) DragEnd() {
	sink := b.gestureSink()
	if sink == nil || !b.takePressed(true) {
		return
	}
	sink.DragEnd()
}

// takePressed reports whether a gesture is in progress, ending it if release
// is set.
func (b *BoardWidget) takePressed(release bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	was := b.pressed
	if release {
		b.pressed = false
	}
	return was
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseOut()                      {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{
		board:       b,
		background:  canvas.NewRectangle(color.NRGBA{R: 245, G: 246, B: 248, A: 255}),
		image:       canvas.NewImageFromImage(nil),
		placeholder: canvas.NewText("Waiting for the board...", color.Gray{Y: 120}),
	}
	r.image.FillMode = canvas.ImageFillStretch
	r.image.ScaleMode = canvas.ImageScalePixels
	r.placeholder.Alignment = fyne.TextAlignCenter
	r.Refresh()
	return r
}

type boardWidgetRenderer struct {
	board       *BoardWidget
	background  *canvas.Rectangle
	image       *canvas.Image
	placeholder *canvas.Text
}

func (r *boardWidgetRenderer) frameSize() fyne.Size {
	r.board.mu.RLock()
	defer r.board.mu.RUnlock()
	if r.board.frame == nil {
		return fyne.NewSize(0, 0)
	}
	bounds := r.board.frame.Bounds()
	return fyne.NewSize(float32(bounds.Dx()), float32(bounds.Dy()))
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.image.Move(fyne.NewPos(0, 0))
	r.image.Resize(r.frameSize())
	r.placeholder.Resize(size)
	r.placeholder.Move(fyne.NewPos(0, size.Height/2))
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return r.frameSize().Max(fyne.NewSize(300, 300))
}

func (r *boardWidgetRenderer) Refresh() {
	r.board.mu.RLock()
	frame, visible := r.board.frame, r.board.visible
	r.board.mu.RUnlock()

	r.image.Image = frame
	r.image.Hidden = !visible || frame == nil
	r.placeholder.Hidden = visible && frame != nil
	r.Layout(r.board.Size())
	r.image.Refresh()
	r.placeholder.Refresh()
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.image, r.placeholder}
}

func (r *boardWidgetRenderer) Destroy() {}
