package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Drawboard/internal/state"
)

func TestDecodeText_BatchWithAcks(t *testing.T) {
	msgs, err := DecodeText("123,4,0,0,255,255,2,5,5,5,5|23,1,255,0,0,255,6,1,1,2,2")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	batch, ok := msgs[0].(DrawBatch)
	require.True(t, ok)
	assert.Empty(t, batch.Invalid)
	require.Len(t, batch.Entries, 2)

	assert.Equal(t, BatchEntry{
		AckID: 23,
		Op: state.DrawOperation{
			Tool:      state.ToolEllipse,
			Color:     state.Color{B: 255, A: 255},
			Thickness: 2,
			Start:     state.Point{X: 5, Y: 5},
			End:       state.Point{X: 5, Y: 5},
		},
	}, batch.Entries[0])
	assert.Equal(t, BatchEntry{
		AckID: 23,
		Op: state.DrawOperation{
			Tool:      state.ToolFreehand,
			Color:     state.Color{R: 255, A: 255},
			Thickness: 6,
			Start:     state.Point{X: 1, Y: 1},
			End:       state.Point{X: 2, Y: 2},
		},
	}, batch.Entries[1])
}

func TestDecodeText_MultipleFrames(t *testing.T) {
	msgs, err := DecodeText(JoinFrames("25", "3+", "0Room is busy", "3-"))
	require.NoError(t, err)

	assert.Equal(t, []Message{
		SnapshotHeader{Participants: 5},
		PresenceChange{Delta: 1},
		ServerError{Text: "Room is busy"},
		PresenceChange{Delta: -1},
	}, msgs)
}

func TestDecodeText_BadFramesAreSkipped(t *testing.T) {
	msgs, err := DecodeText(JoinFrames("9what", "3+", "2abc", "3?"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFrame)
	assert.ErrorIs(t, err, ErrMalformedFrame)
	assert.Equal(t, []Message{PresenceChange{Delta: 1}}, msgs)
}

func TestDecodeFrame_Empty(t *testing.T) {
	_, err := DecodeFrame("")
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestParseBatch_SkipsMalformedEntries(t *testing.T) {
	entries, errs := ParseBatch("7,1,0,0,0,255,3,1,1,4,4|garbage|8,2,0,0,0,255,x,1,1,2,2|9,3,0,0,0,255,3,1,1,9,9")

	require.Len(t, entries, 2)
	assert.Equal(t, uint64(7), entries[0].AckID)
	assert.Equal(t, uint64(9), entries[1].AckID)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrMalformedEntry)
	}
}

func TestParseOperation_Validation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "too few fields", raw: "1,0,0,0,255,3,1,1,2"},
		{name: "too many fields", raw: "1,0,0,0,255,3,1,1,2,2,2"},
		{name: "unknown tool", raw: "5,0,0,0,255,3,1,1,2,2"},
		{name: "tool zero", raw: "0,0,0,0,255,3,1,1,2,2"},
		{name: "color overflow", raw: "1,256,0,0,255,3,1,1,2,2"},
		{name: "negative color", raw: "1,-1,0,0,255,3,1,1,2,2"},
		{name: "negative thickness", raw: "1,0,0,0,255,-1,1,1,2,2"},
		{name: "thickness above limit", raw: "1,0,0,0,255,101,1,1,2,2"},
		{name: "NaN thickness", raw: "1,0,0,0,255,NaN,1,1,2,2"},
		{name: "NaN coordinate", raw: "1,0,0,0,255,3,NaN,1,2,2"},
		{name: "infinite coordinate", raw: "1,0,0,0,255,3,1,Inf,2,2"},
		{name: "text coordinate", raw: "1,0,0,0,255,3,1,1,two,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOperation(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedEntry)
		})
	}
}

func TestParseOperation_Valid(t *testing.T) {
	op, err := ParseOperation("1,255,0,0,255,5.0,100.5,200.5,150.5,250.5")
	require.NoError(t, err)

	assert.Equal(t, state.DrawOperation{
		Tool:      state.ToolFreehand,
		Color:     state.Color{R: 255, A: 255},
		Thickness: 5,
		Start:     state.Point{X: 100.5, Y: 200.5},
		End:       state.Point{X: 150.5, Y: 250.5},
	}, op)
}

func TestEncodeSubmission_Rectangle(t *testing.T) {
	op := state.DrawOperation{
		Tool:      state.ToolRectangle,
		Color:     state.Color{R: 255, A: 255},
		Thickness: 4,
		Start:     state.Point{X: 10, Y: 10},
		End:       state.Point{X: 50, Y: 40},
	}

	assert.Equal(t, "11|3,255,0,0,255,4,10,10,50,40", EncodeSubmission(1, op))
	assert.Equal(t, "0", EncodeHeartbeat())
}

func TestFormatOperation_Fractions(t *testing.T) {
	op := state.DrawOperation{
		Tool:      state.ToolLine,
		Color:     state.Color{R: 1, G: 2, B: 3, A: 4},
		Thickness: 2.5,
		Start:     state.Point{X: 0.25, Y: -3},
		End:       state.Point{X: 1e3, Y: 7.125},
	}

	assert.Equal(t, "2,1,2,3,4,2.5,0.25,-3,1000,7.125", FormatOperation(op))
}

func TestDecodeClient(t *testing.T) {
	msg, err := DecodeClient("0")
	require.NoError(t, err)
	assert.True(t, msg.Heartbeat)

	msg, err = DecodeClient("142|2,0,0,0,255,3,1,1,2,2")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), msg.ID)
	assert.Equal(t, state.ToolLine, msg.Op.Tool)

	_, err = DecodeClient("142")
	assert.ErrorIs(t, err, ErrMalformedFrame)

	_, err = DecodeClient("x")
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestServerFrameEncoders(t *testing.T) {
	assert.Equal(t, "0oops", EncodeError("oops"))
	assert.Equal(t, "212", EncodeSnapshotHeader(12))
	assert.Equal(t, "3+", EncodePresence(true))
	assert.Equal(t, "3-", EncodePresence(false))

	entry := BatchEntry{AckID: 3, Op: state.DrawOperation{
		Tool: state.ToolFreehand, Color: state.Color{A: 255}, Thickness: 1,
		Start: state.Point{X: 1, Y: 2}, End: state.Point{X: 3, Y: 4},
	}}
	encoded := EncodeBatch([]BatchEntry{entry, entry})
	assert.Equal(t, "13,1,0,0,0,255,1,1,2,3,4|3,1,0,0,0,255,1,1,2,3,4", encoded)

	msg, err := DecodeFrame(encoded)
	require.NoError(t, err)
	assert.Equal(t, DrawBatch{Entries: []BatchEntry{entry, entry}}, msg)
}

func TestFrameType_String(t *testing.T) {
	assert.Equal(t, "Draw", FrameDraw.String())
	assert.Equal(t, "Presence", FramePresence.String())
	assert.Contains(t, FrameType('x').String(), "Unknown")
}
