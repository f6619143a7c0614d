package testutil

import (
	"fmt"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Row is one generated document. Int, Double and Str are drawn from a small
// domain so that equal values repeat across rows.
type Row struct {
	Int    int64
	Double float64
	Str    string
}

// JSON renders the row as {"i":..,"d":..,"s":..}.
func (r Row) JSON() []byte {
	return fmt.Appendf(nil, `{"i":%d,"d":%g,"s":%q}`, r.Int, r.Double, r.Str)
}

// Rows generates n rows with integer values in [0, domain). Doubles are the
// integer plus a quarter or three quarters; strings are zero-padded so that
// their byte order matches the integer order.
func (r *RNG) Rows(n, domain int) []Row {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]Row, n)
	for i := range rows {
		v := r.rand.Intn(domain)
		frac := 0.25
		if r.rand.Intn(2) == 1 {
			frac = 0.75
		}
		rows[i] = Row{
			Int:    int64(v),
			Double: float64(v) + frac,
			Str:    fmt.Sprintf("k%06d", v),
		}
	}
	return rows
}

// Matching returns the positions of rows accepted by keep, ascending.
func Matching(rows []Row, keep func(Row) bool) []uint64 {
	var out []uint64
	for i, row := range rows {
		if keep(row) {
			out = append(out, uint64(i))
		}
	}
	return out
}
