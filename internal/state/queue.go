package state

import "sort"

// PendingQueue holds operations that were submitted but not yet acknowledged
// by the server, in submission order. Entries are sorted ascending by id and
// ids are unique, since every id comes from the queue's own Sequence.
//
// PendingQueue is not safe for concurrent use; it belongs to exactly one
// session goroutine.
type PendingQueue struct {
	seq     Sequence
	entries []PendingEntry
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Enqueue assigns the next sequence id to op and appends it.
func (q *PendingQueue) Enqueue(op DrawOperation) uint64 {
	id := q.seq.Next()
	q.entries = append(q.entries, PendingEntry{ID: id, Op: op})
	return id
}

// PruneUpTo removes every entry with id <= watermark and returns how many were
// removed. Only a prefix of the queue is ever removed.
func (q *PendingQueue) PruneUpTo(watermark uint64) int {
	n := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].ID > watermark
	})
	if n == 0 {
		return 0
	}
	// Copy the tail down so the backing array does not keep pruned ops alive.
	rest := copy(q.entries, q.entries[n:])
	clear(q.entries[rest:])
	q.entries = q.entries[:rest]
	return n
}

func (q *PendingQueue) Len() int {
	return len(q.entries)
}

// MinID returns the id at the head of the queue. ok is false when empty.
func (q *PendingQueue) MinID() (id uint64, ok bool) {
	if len(q.entries) == 0 {
		return 0, false
	}
	return q.entries[0].ID, true
}

// LastID returns the most recently assigned id, even if it was pruned.
func (q *PendingQueue) LastID() uint64 {
	return q.seq.Last()
}

// Entries returns a copy of the queue in id order.
func (q *PendingQueue) Entries() []PendingEntry {
	out := make([]PendingEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// IDs returns the ids currently queued, in order.
func (q *PendingQueue) IDs() []uint64 {
	ids := make([]uint64, len(q.entries))
	for i, e := range q.entries {
		ids[i] = e.ID
	}
	return ids
}

// Each calls fn for every entry in queue order, stopping at the first error.
func (q *PendingQueue) Each(fn func(PendingEntry) error) error {
	for _, e := range q.entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
