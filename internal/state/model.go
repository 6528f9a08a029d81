package state

import (
	"fmt"
	"image/color"
)

// ToolKind is the numeric tool code carried on the wire.
type ToolKind int

const (
	ToolFreehand  ToolKind = 1 // also used for single points
	ToolLine      ToolKind = 2
	ToolRectangle ToolKind = 3
	ToolEllipse   ToolKind = 4
)

func (k ToolKind) String() string {
	switch k {
	case ToolFreehand:
		return "freehand"
	case ToolLine:
		return "line"
	case ToolRectangle:
		return "rectangle"
	case ToolEllipse:
		return "ellipse"
	default:
		return fmt.Sprintf("tool(%d)", int(k))
	}
}

// Valid reports whether k is one of the four known tools.
func (k ToolKind) Valid() bool {
	return k >= ToolFreehand && k <= ToolEllipse
}

// IsShape reports whether the tool commits a single operation on gesture end.
func (k ToolKind) IsShape() bool {
	return k == ToolLine || k == ToolRectangle || k == ToolEllipse
}

type Point struct{ X, Y float64 }

// Color is a non-premultiplied RGBA color.
type Color struct{ R, G, B, A uint8 }

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// ColorFrom converts any color.Color to a non-premultiplied Color.
func ColorFrom(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// DrawOperation is one committable drawing command. Operations are never
// mutated after creation.
type DrawOperation struct {
	Tool      ToolKind
	Color     Color
	Thickness float64
	Start     Point
	End       Point
}

// IsPoint reports whether the operation is degenerate (start == end). Such
// operations always render as a filled dot whatever the tool.
func (op DrawOperation) IsPoint() bool {
	return op.Start == op.End
}

// PendingEntry is a submitted operation waiting for server confirmation.
type PendingEntry struct {
	ID uint64
	Op DrawOperation
}
