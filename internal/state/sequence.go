package state

import "sync/atomic"

// Sequence hands out the local operation ids of one session. Ids start at 1,
// are strictly increasing and are never reused.
type Sequence struct {
	last atomic.Uint64
}

// Next returns the next id.
func (s *Sequence) Next() uint64 {
	return s.last.Add(1)
}

// Last returns the most recently issued id, or 0 if none was issued.
func (s *Sequence) Last() uint64 {
	return s.last.Load()
}
