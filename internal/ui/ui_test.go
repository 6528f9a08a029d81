package ui

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Drawboard/internal/export"
	"Drawboard/internal/state"
)

type sinkCall struct {
	kind string
	p    state.Point
}

type recordingSink struct {
	calls []sinkCall
}

func (r *recordingSink) PointerDown(p state.Point) { r.calls = append(r.calls, sinkCall{"down", p}) }
func (r *recordingSink) PointerMove(p state.Point) { r.calls = append(r.calls, sinkCall{"move", p}) }
func (r *recordingSink) PointerUp(p state.Point)   { r.calls = append(r.calls, sinkCall{"up", p}) }
func (r *recordingSink) DragEnd()                  { r.calls = append(r.calls, sinkCall{kind: "end"}) }

func mouse(x, y float32, button desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     button,
	}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func newTestWidget(t *testing.T) (*BoardWidget, *recordingSink) {
	t.Helper()
	test.NewTempApp(t)
	sink := &recordingSink{}
	b := NewBoardWidget()
	b.SetSink(sink)
	return b, sink
}

func TestBoardWidget_ForwardsGesture(t *testing.T) {
	b, sink := newTestWidget(t)
	b.applyFrame(image.NewRGBA(image.Rect(0, 0, 400, 300)))
	b.applyVisible(true)

	b.MouseDown(mouse(10, 20, desktop.MouseButtonPrimary))
	b.Dragged(drag(15, 25))
	b.MouseUp(mouse(30, 40, desktop.MouseButtonPrimary))
	b.DragEnd()

	assert.Equal(t, []sinkCall{
		{"down", state.Point{X: 10, Y: 20}},
		{"move", state.Point{X: 15, Y: 25}},
		{"up", state.Point{X: 30, Y: 40}},
	}, sink.calls)
}

func TestBoardWidget_DragEndWithoutMouseUp(t *testing.T) {
	b, sink := newTestWidget(t)
	b.applyVisible(true)

	b.MouseDown(mouse(1, 1, desktop.MouseButtonPrimary))
	b.DragEnd()
	b.MouseUp(mouse(2, 2, desktop.MouseButtonPrimary))

	require.Len(t, sink.calls, 2)
	assert.Equal(t, "end", sink.calls[1].kind)
}

func TestBoardWidget_IgnoresInputWhileHidden(t *testing.T) {
	b, sink := newTestWidget(t)

	b.MouseDown(mouse(1, 1, desktop.MouseButtonPrimary))
	b.Dragged(drag(2, 2))
	b.MouseUp(mouse(3, 3, desktop.MouseButtonPrimary))
	assert.Empty(t, sink.calls)

	b.applyVisible(true)
	b.MouseDown(mouse(1, 1, desktop.MouseButtonSecondary))
	b.Dragged(drag(2, 2))
	assert.Empty(t, sink.calls, "secondary button does not draw")

	b.MouseDown(mouse(1, 1, desktop.MouseButtonPrimary))
	b.applyVisible(false)
	b.MouseUp(mouse(3, 3, desktop.MouseButtonPrimary))
	assert.Len(t, sink.calls, 1, "hiding drops the gesture")
}

func TestBoardWidget_Renders(t *testing.T) {
	b, _ := newTestWidget(t)
	img := image.NewRGBA(image.Rect(0, 0, 500, 320))
	b.applyFrame(img)

	r := test.TempWidgetRenderer(t, b).(*boardWidgetRenderer)
	assert.True(t, r.image.Hidden, "hidden until the snapshot makes the surface visible")
	assert.False(t, r.placeholder.Hidden)

	b.applyVisible(true)
	r.Refresh()
	assert.False(t, r.image.Hidden)
	assert.True(t, r.placeholder.Hidden)
	assert.Equal(t, fyne.NewSize(500, 320), r.MinSize())
	assert.True(t, b.SurfaceVisible())
}

func TestToolbar_EditsToolSettings(t *testing.T) {
	test.NewTempApp(t)
	tools := state.NewToolSettings(state.DefaultTool())
	tb := NewToolbar(tools)
	var exported []export.Format
	tb.OnExport = func(f export.Format) { exported = append(exported, f) }
	tb.Build()

	tb.kinds.SetSelected("Ellipse")
	assert.Equal(t, state.ToolEllipse, tools.Snapshot().Kind)

	tb.pickColor(color.NRGBA{R: 255, A: 255})
	assert.Equal(t, state.Color{R: 255, A: 255}, tools.Snapshot().Color)

	tb.slider.SetValue(12)
	assert.Equal(t, 12.0, tools.Snapshot().Thickness)

	tb.eraser()
	got := tools.Snapshot()
	assert.Equal(t, state.ToolFreehand, got.Kind)
	assert.Equal(t, state.Color{R: 255, G: 255, B: 255, A: 255}, got.Color)
	assert.Equal(t, eraserThickness, got.Thickness)

	tb.pen()
	got = tools.Snapshot()
	assert.Equal(t, state.Color{R: 255, A: 255}, got.Color, "pen restores the colour used before the eraser")
	assert.Equal(t, state.DefaultThickness, got.Thickness)

	tb.export(export.FormatPDF)
	assert.Equal(t, []export.Format{export.FormatPDF}, exported)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "connecting", statusText(state.Room{State: state.Connecting}, "", nil))
	assert.Equal(t, "connected, 5 participant(s)",
		statusText(state.Room{State: state.Connected, Participants: 5}, "", nil))
	assert.Equal(t, "disconnected | server: Maximum player count reached | eof",
		statusText(state.Room{State: state.Disconnected}, "Maximum player count reached", errors.New("eof")))
}
