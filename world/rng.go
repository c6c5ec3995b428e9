package world

// RNG is a deterministic 32-bit xorshift stream. The whole step runs single
// threaded, so there is no locking here; replaying a seed replays the world.
// Reference:
//   https://en.wikipedia.org/wiki/Xorshift
type RNG struct {
	state uint32
}

// NewRNG creates a generator. A zero seed would freeze xorshift, so it is
// remapped to an arbitrary odd constant.
func NewRNG(seed uint32) *RNG {
	if seed == 0 {
		seed = 0x9e3779b9
	}
	return &RNG{state: seed}
}

// Next returns the next 32-bit value.
func (r *RNG) Next() uint32 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// Bounded returns a value in [0, max). Plain modulo; the bias is acceptable
// at these ranges.
func (r *RNG) Bounded(max uint32) uint32 {
	return r.Next() % max
}

// IntInclusive returns a value in [lo, hi].
func (r *RNG) IntInclusive(lo, hi int) int {
	return lo + int(r.Bounded(uint32(hi-lo+1)))
}

// Dir3 returns a motor component, -1, 0 or 1.
func (r *RNG) Dir3() int {
	return int(r.Bounded(3)) - 1
}

// Byte returns a uniform byte.
func (r *RNG) Byte() byte {
	return byte(r.Next())
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Next()) / (1 << 32)
}

// Shuffle runs an in-place Fisher-Yates over n elements.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(r.Bounded(uint32(i + 1)))
		swap(i, j)
	}
}
