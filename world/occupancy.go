package world

// Occupancy is the per-tick claim arena over grid cells. A cell is claimed
// for the current tick iff stamp[i] == gen, so opening a new generation
// invalidates every claim at once instead of zeroing the arrays. Owners are
// indices into the next spark buffer, never pointers: a takeover overwrites
// the owned slot in place and the index stays valid.
type Occupancy struct {
	stamp []uint32
	owner []int32
	gen   uint32
}

// NewOccupancy allocates claim tracking for the given cell count.
func NewOccupancy(cells int) *Occupancy {
	return &Occupancy{
		stamp: make([]uint32, cells),
		owner: make([]int32, cells),
	}
}

// Begin opens a new claim generation. When the counter wraps to zero the
// arrays are rebased so stale stamps cannot alias the new generation.
func (o *Occupancy) Begin() {
	o.gen++
	if o.gen == 0 {
		for i := range o.stamp {
			o.stamp[i] = 0
			o.owner[i] = 0
		}
		o.gen = 1
	}
}

// Claimed reports whether cell i is claimed in the current generation.
func (o *Occupancy) Claimed(i int) bool {
	return o.stamp[i] == o.gen
}

// Owner returns the next-buffer index of the spark holding cell i. Only
// meaningful when Claimed(i).
func (o *Occupancy) Owner(i int) int {
	return int(o.owner[i])
}

// claim records that cell i is held by the spark at next-buffer index owner.
func (o *Occupancy) claim(i, owner int) {
	o.stamp[i] = o.gen
	o.owner[i] = int32(owner)
}
