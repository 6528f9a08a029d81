package state

import (
	"math"
	"sync"
)

const (
	MinThickness     = 1.0
	MaxThickness     = 100.0
	DefaultThickness = 3.0
)

// Tool is the active tool configuration at a point in time.
type Tool struct {
	Kind      ToolKind
	Color     Color
	Thickness float64
}

// DefaultTool is a black freehand pen.
func DefaultTool() Tool {
	return Tool{
		Kind:      ToolFreehand,
		Color:     Color{A: 255},
		Thickness: DefaultThickness,
	}
}

// ToolSettings is the tool record the toolbar edits and the gesture model
// reads. It is shared between the UI goroutine and the session goroutine.
type ToolSettings struct {
	mu   sync.RWMutex
	tool Tool
}

func NewToolSettings(initial Tool) *ToolSettings {
	ts := &ToolSettings{}
	ts.Set(initial)
	return ts
}

// Snapshot returns the current tool configuration.
func (ts *ToolSettings) Snapshot() Tool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.tool
}

func (ts *ToolSettings) Set(t Tool) {
	if !t.Kind.Valid() {
		t.Kind = ToolFreehand
	}
	t.Thickness = clampThickness(t.Thickness)
	ts.mu.Lock()
	ts.tool = t
	ts.mu.Unlock()
}

func (ts *ToolSettings) SetKind(k ToolKind) {
	if !k.Valid() {
		return
	}
	ts.mu.Lock()
	ts.tool.Kind = k
	ts.mu.Unlock()
}

func (ts *ToolSettings) SetColor(c Color) {
	ts.mu.Lock()
	ts.tool.Color = c
	ts.mu.Unlock()
}

func (ts *ToolSettings) SetThickness(t float64) {
	t = clampThickness(t)
	ts.mu.Lock()
	ts.tool.Thickness = t
	ts.mu.Unlock()
}

func clampThickness(t float64) float64 {
	if math.IsNaN(t) || t < MinThickness {
		return MinThickness
	}
	if t > MaxThickness {
		return MaxThickness
	}
	return t
}
