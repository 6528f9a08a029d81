package render

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"Drawboard/internal/state"
)

// minDotRadius keeps zero-thickness dots visible.
const minDotRadius = 0.5

// Draw rasterizes one operation onto dc. It is the only geometry routine:
// confirmed operations, pending operations and shape previews all go through
// it, so every layer renders an operation identically.
func Draw(dc *gg.Context, op state.DrawOperation) error {
	dc.SetColor(op.Color.NRGBA())
	dc.SetLineWidth(op.Thickness)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinMiter)

	if op.IsPoint() {
		dc.DrawCircle(op.Start.X, op.Start.Y, math.Max(op.Thickness/2, minDotRadius))
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill dot: %w", err)
		}
		return nil
	}

	switch op.Tool {
	case state.ToolFreehand, state.ToolLine:
		dc.DrawLine(op.Start.X, op.Start.Y, op.End.X, op.End.Y)
	case state.ToolRectangle:
		x, y, w, h := NormalizeRect(op.Start, op.End)
		if w <= 0 || h <= 0 {
			return nil
		}
		dc.DrawRectangle(x, y, w, h)
	case state.ToolEllipse:
		cx, cy, rx, ry := EllipseBounds(op.Start, op.End)
		if rx <= 0 || ry <= 0 {
			return nil
		}
		dc.DrawEllipse(cx, cy, rx, ry)
	default:
		return fmt.Errorf("unknown tool %v", op.Tool)
	}

	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke %v: %w", op.Tool, err)
	}
	return nil
}

// NormalizeRect returns the top-left corner and size of the rectangle spanned
// by two corner points.
func NormalizeRect(a, b state.Point) (x, y, w, h float64) {
	return math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Abs(b.X - a.X), math.Abs(b.Y - a.Y)
}

// EllipseBounds returns the centre and radii of the axis-aligned ellipse
// inscribed in the box spanned by two points.
func EllipseBounds(a, b state.Point) (cx, cy, rx, ry float64) {
	return (a.X + b.X) / 2, (a.Y + b.Y) / 2, math.Abs(b.X-a.X) / 2, math.Abs(b.Y-a.Y) / 2
}
