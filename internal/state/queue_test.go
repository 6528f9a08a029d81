package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOp(x float64) DrawOperation {
	return DrawOperation{
		Tool:      ToolLine,
		Color:     Color{R: 10, G: 20, B: 30, A: 255},
		Thickness: 2,
		Start:     Point{X: x, Y: x},
		End:       Point{X: x + 1, Y: x + 1},
	}
}

func TestPendingQueue_EnqueueAssignsIncreasingIDs(t *testing.T) {
	q := NewPendingQueue()

	var prev uint64
	for i := 0; i < 5; i++ {
		id := q.Enqueue(testOp(float64(i)))
		assert.Greater(t, id, prev)
		prev = id
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, q.IDs())
	assert.Equal(t, uint64(5), q.LastID())
}

func TestPendingQueue_IDsNeverReusedAfterPrune(t *testing.T) {
	q := NewPendingQueue()
	q.Enqueue(testOp(1))
	q.Enqueue(testOp(2))
	require.Equal(t, 2, q.PruneUpTo(2))
	require.Equal(t, 0, q.Len())

	assert.Equal(t, uint64(3), q.Enqueue(testOp(3)))
}

func TestPendingQueue_PruneUpTo(t *testing.T) {
	tests := []struct {
		name       string
		watermark  uint64
		wantIDs    []uint64
		wantPruned int
	}{
		{name: "below head", watermark: 0, wantIDs: []uint64{1, 2, 3, 4, 5}, wantPruned: 0},
		{name: "prefix", watermark: 3, wantIDs: []uint64{4, 5}, wantPruned: 3},
		{name: "exact head", watermark: 1, wantIDs: []uint64{2, 3, 4, 5}, wantPruned: 1},
		{name: "everything", watermark: 5, wantIDs: []uint64{}, wantPruned: 5},
		{name: "beyond tail", watermark: 99, wantIDs: []uint64{}, wantPruned: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewPendingQueue()
			ops := make(map[uint64]DrawOperation)
			for i := 0; i < 5; i++ {
				op := testOp(float64(i * 10))
				ops[q.Enqueue(op)] = op
			}

			assert.Equal(t, tt.wantPruned, q.PruneUpTo(tt.watermark))
			assert.Equal(t, tt.wantIDs, q.IDs())
			for _, e := range q.Entries() {
				assert.Equal(t, ops[e.ID], e.Op, "entry %d kept its operation", e.ID)
			}
		})
	}
}

func TestPendingQueue_StaleAckLeavesQueueUnchanged(t *testing.T) {
	q := NewPendingQueue()
	for i := 0; i < 24; i++ {
		q.Enqueue(testOp(float64(i)))
	}
	q.PruneUpTo(21)
	before := q.Entries()

	head, ok := q.MinID()
	require.True(t, ok)
	for ack := uint64(0); ack <= head-1; ack++ {
		assert.Zero(t, q.PruneUpTo(ack))
	}
	assert.Equal(t, before, q.Entries())
}

func TestPendingQueue_EntriesIsACopy(t *testing.T) {
	q := NewPendingQueue()
	q.Enqueue(testOp(1))

	entries := q.Entries()
	entries[0].ID = 42

	assert.Equal(t, []uint64{1}, q.IDs())
}

func TestPendingQueue_EachStopsOnError(t *testing.T) {
	q := NewPendingQueue()
	q.Enqueue(testOp(1))
	q.Enqueue(testOp(2))
	q.Enqueue(testOp(3))

	var seen []uint64
	err := q.Each(func(e PendingEntry) error {
		seen = append(seen, e.ID)
		if e.ID == 2 {
			return assert.AnError
		}
		return nil
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestPendingQueue_MinIDEmpty(t *testing.T) {
	_, ok := NewPendingQueue().MinID()
	assert.False(t, ok)
}
