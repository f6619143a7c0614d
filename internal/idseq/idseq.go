// Package idseq assigns gapless document positions.
//
// Positions are reserved before a write and committed only after every step
// of the write succeeded; a released reservation hands the same positions
// out again, so a failed insert never leaves a hole.
package idseq

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPending is returned by Reserve while another reservation is open.
var ErrPending = errors.New("idseq: reservation pending")

// Sequence is safe for concurrent use, but only one reservation may be open
// at a time.
type Sequence struct {
	mu      sync.Mutex
	next    uint64
	pending bool
}

// New starts a sequence at next.
func New(next uint64) *Sequence {
	return &Sequence{next: next}
}

// Next returns the first position not yet committed.
func (s *Sequence) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Reservation is a block of positions [First, First+Count).
type Reservation struct {
	First uint64
	Count uint64
	s     *Sequence
	done  bool
}

// Reserve opens a reservation of n positions.
func (s *Sequence) Reserve(n uint64) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return nil, ErrPending
	}
	if n == 0 {
		return nil, fmt.Errorf("idseq: reserve %d positions", n)
	}
	s.pending = true
	return &Reservation{First: s.next, Count: n, s: s}, nil
}

// Positions returns every reserved position in order.
func (r *Reservation) Positions() []uint64 {
	out := make([]uint64, r.Count)
	for i := range out {
		out[i] = r.First + uint64(i)
	}
	return out
}

// End returns the position after the last reserved one.
func (r *Reservation) End() uint64 { return r.First + r.Count }

// Commit advances the sequence past the reservation.
func (r *Reservation) Commit() {
	r.finish(true)
}

// Release gives the positions back. Releasing after Commit does nothing,
// so Release can be deferred.
func (r *Reservation) Release() {
	r.finish(false)
}

func (r *Reservation) finish(commit bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.s.pending = false
	if commit {
		r.s.next = r.End()
	}
}
