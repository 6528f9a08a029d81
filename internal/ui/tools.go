package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"Drawboard/internal/export"
	"Drawboard/internal/state"
)

const eraserThickness = 20.0

var toolLabels = []struct {
	label string
	kind  state.ToolKind
}{
	{"Pen", state.ToolFreehand},
	{"Line", state.ToolLine},
	{"Rectangle", state.ToolRectangle},
	{"Ellipse", state.ToolEllipse},
}

var palette = []color.NRGBA{
	{A: 255},                 // black
	{R: 255, A: 255},         // red
	{G: 200, A: 255},         // green
	{B: 255, A: 255},         // blue
	{R: 255, G: 255, A: 255}, // yellow
}

// colorSwatch is a tappable colour square.
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Toolbar edits a ToolSettings record. The eraser is a thick white pen; the
// colour in use before it is restored when a swatch or the pen is picked.
type Toolbar struct {
	tools     *state.ToolSettings
	lastColor state.Color

	kinds  *widget.RadioGroup
	slider *widget.Slider

	// OnExport is called with the format the user asked to export.
	OnExport func(format export.Format)
}

func NewToolbar(tools *state.ToolSettings) *Toolbar {
	return &Toolbar{tools: tools, lastColor: tools.Snapshot().Color}
}

func (t *Toolbar) selectKind(label string) {
	for _, tl := range toolLabels {
		if tl.label == label {
			t.tools.SetKind(tl.kind)
			return
		}
	}
}

func (t *Toolbar) pickColor(c color.Color) {
	t.lastColor = state.ColorFrom(c)
	t.tools.SetColor(t.lastColor)
}

func (t *Toolbar) pen() {
	t.tools.SetColor(t.lastColor)
	if t.tools.Snapshot().Thickness >= eraserThickness {
		t.setThickness(state.DefaultThickness)
	}
}

func (t *Toolbar) eraser() {
	cur := t.tools.Snapshot()
	if cur.Color != (state.Color{R: 255, G: 255, B: 255, A: 255}) {
		t.lastColor = cur.Color
	}
	t.tools.SetKind(state.ToolFreehand)
	t.tools.SetColor(state.Color{R: 255, G: 255, B: 255, A: 255})
	t.setThickness(eraserThickness)
	if t.kinds != nil {
		t.kinds.SetSelected(toolLabels[0].label)
	}
}

func (t *Toolbar) setThickness(v float64) {
	t.tools.SetThickness(v)
	if t.slider != nil {
		t.slider.SetValue(t.tools.Snapshot().Thickness)
	}
}

func (t *Toolbar) export(format export.Format) {
	if t.OnExport != nil {
		t.OnExport(format)
	}
}

// Build lays the toolbar out.
func (t *Toolbar) Build() fyne.CanvasObject {
	labels := make([]string, len(toolLabels))
	for i, tl := range toolLabels {
		labels[i] = tl.label
	}
	t.kinds = widget.NewRadioGroup(labels, t.selectKind)
	t.kinds.Horizontal = true
	t.kinds.Required = true
	for _, tl := range toolLabels {
		if tl.kind == t.tools.Snapshot().Kind {
			t.kinds.SetSelected(tl.label)
		}
	}

	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), t.pen),
		widget.NewToolbarAction(theme.DeleteIcon(), t.eraser),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { t.export(export.FormatPNG) }),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() { t.export(export.FormatPDF) }),
	)

	swatches := container.NewHBox()
	for _, c := range palette {
		swatches.Add(newColorSwatch(c, t.pickColor))
	}

	t.slider = widget.NewSlider(state.MinThickness, state.MaxThickness)
	t.slider.SetValue(t.tools.Snapshot().Thickness)
	t.slider.OnChanged = t.tools.SetThickness
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.slider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		t.kinds,
		actions,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		swatches,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}
