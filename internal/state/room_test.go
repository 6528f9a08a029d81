package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoom_ApplyPresence(t *testing.T) {
	r := Room{Participants: 5}

	r.ApplyPresence(+1)
	assert.Equal(t, 6, r.Participants)

	r.ApplyPresence(-1)
	r.ApplyPresence(-1)
	assert.Equal(t, 4, r.Participants)
}

func TestRoom_PresenceNeverNegative(t *testing.T) {
	var r Room
	r.ApplyPresence(-1)
	assert.Equal(t, 0, r.Participants)
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "closed", Closed.String())
}

func TestToolSettings_ClampsThickness(t *testing.T) {
	ts := NewToolSettings(DefaultTool())

	ts.SetThickness(0)
	assert.Equal(t, MinThickness, ts.Snapshot().Thickness)

	ts.SetThickness(500)
	assert.Equal(t, MaxThickness, ts.Snapshot().Thickness)

	ts.SetThickness(math.NaN())
	assert.Equal(t, MinThickness, ts.Snapshot().Thickness)
}

func TestToolSettings_RejectsUnknownKind(t *testing.T) {
	ts := NewToolSettings(DefaultTool())

	ts.SetKind(ToolKind(9))
	assert.Equal(t, ToolFreehand, ts.Snapshot().Kind)

	ts.Set(Tool{Kind: ToolKind(0), Thickness: 4})
	assert.Equal(t, ToolFreehand, ts.Snapshot().Kind)
}

func TestColorFrom(t *testing.T) {
	c := ColorFrom(red.NRGBA())
	assert.Equal(t, red, c)
}
