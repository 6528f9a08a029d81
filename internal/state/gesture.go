package state

// GestureResult is what one pointer event produces: operations to submit, in
// order, and optionally a shape preview to draw on the display layer only.
type GestureResult struct {
	Submit  []DrawOperation
	Preview *DrawOperation
}

// Gesture turns a pointer gesture (down, move*, up) into draw operations.
//
// Freehand strokes are sent as they are drawn: a dot on down, then one short
// segment per move. Shapes send nothing until the pointer is released and only
// produce previews in between. The tool is captured on Begin so toolbar
// changes in the middle of a gesture do not split it.
type Gesture struct {
	active bool
	tool   Tool
	start  Point
	last   Point
}

func (g *Gesture) Active() bool {
	return g.active
}

// Begin starts a gesture at p with the given tool. A gesture already in
// progress is dropped without committing anything.
func (g *Gesture) Begin(p Point, tool Tool) GestureResult {
	g.active = true
	g.tool = tool
	g.start = p
	g.last = p

	if tool.Kind.IsShape() {
		return GestureResult{}
	}
	return GestureResult{Submit: []DrawOperation{g.op(p, p)}}
}

// Move extends the gesture to p.
func (g *Gesture) Move(p Point) GestureResult {
	if !g.active {
		return GestureResult{}
	}
	prev := g.last
	g.last = p

	if g.tool.Kind.IsShape() {
		preview := g.op(g.start, p)
		return GestureResult{Preview: &preview}
	}
	return GestureResult{Submit: []DrawOperation{g.op(prev, p)}}
}

// End finishes the gesture at p. Shapes commit exactly one operation from the
// gesture start to p; freehand strokes have already been sent.
func (g *Gesture) End(p Point) GestureResult {
	if !g.active {
		return GestureResult{}
	}
	g.active = false
	g.last = p

	if g.tool.Kind.IsShape() {
		return GestureResult{Submit: []DrawOperation{g.op(g.start, p)}}
	}
	return GestureResult{}
}

// EndAtLast finishes the gesture at the last known pointer position. Used
// when the input layer reports the end of a drag without a position.
func (g *Gesture) EndAtLast() GestureResult {
	return g.End(g.last)
}

// Cancel drops the gesture without committing anything.
func (g *Gesture) Cancel() {
	g.active = false
}

func (g *Gesture) op(start, end Point) DrawOperation {
	return DrawOperation{
		Tool:      g.tool.Kind,
		Color:     g.tool.Color,
		Thickness: g.tool.Thickness,
		Start:     start,
		End:       end,
	}
}
