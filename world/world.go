package world

import (
	"image"
	"math"

	"github.com/golang/glog"
)

// World is the complete simulation state. It owns the grid, both spark
// buffers and the claim arena for the duration of a step; collaborators may
// only touch it between steps.
type World struct {
	cfg Config
	tun Tunables

	grid *Grid
	rng  *RNG
	occ  *Occupancy

	cur  []Spark // read-only during a step
	next []Spark // write-only during a step, swapped in at the end

	tick           uint64
	shuffleCounter int

	// per-tick accounting, rebuilt every Step
	births int
	deaths int
	drops  int

	frame *image.RGBA

	// Tun is copied into the step at its start, so the outer loop can update
	// it at any time between steps.
	Tun Tunables
}

// New allocates a world and seeds its grid and initial population. All
// buffers are sized here; stepping allocates nothing.
func New(cfg Config) *World {
	if cfg.Size <= 0 {
		glog.Fatalf("world size must be > 0, got %d", cfg.Size)
	}
	if cfg.Capacity <= 0 {
		glog.Fatalf("spark capacity must be > 0, got %d", cfg.Capacity)
	}
	w := &World{
		cfg:   cfg,
		grid:  NewGrid(cfg.Size),
		occ:   NewOccupancy(cfg.Size * cfg.Size),
		cur:   make([]Spark, 0, cfg.Capacity),
		next:  make([]Spark, 0, cfg.Capacity),
		frame: image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size)),
		Tun:   DefaultTunables(),
	}
	w.Reseed(cfg.Seed)
	return w
}

// Reseed rebuilds the world from scratch for the given seed, reusing every
// allocation. The seed is diversified with the grid size so differently
// sized worlds do not share a stream.
func (w *World) Reseed(seed uint32) {
	w.rng = NewRNG(seed ^ uint32(w.cfg.Size)*0x9e3779b9)
	w.grid.Seed(w.rng)
	w.tick = 0
	w.shuffleCounter = 0
	w.births, w.deaths, w.drops = 0, 0, 0
	w.next = w.next[:0]
	w.occ.Begin()
	w.cur = w.spawnInto(w.cur[:0], w.cfg.InitialSparks)
}

// Step advances the world by exactly one tick. Deterministic given the
// current state and Tun; runs single threaded by contract, because grid
// writes and claim arbitration are serial.
func (w *World) Step() {
	w.tun = w.Tun

	w.shuffleCounter++
	if w.shuffleCounter%ShuffleFrequency == 0 {
		w.rng.Shuffle(len(w.cur), func(i, j int) {
			w.cur[i], w.cur[j] = w.cur[j], w.cur[i]
		})
	}

	w.next = w.next[:0]
	w.occ.Begin()
	w.grid.Regrow(w.rng, w.occ)

	w.births, w.deaths, w.drops = 0, 0, 0
	for k := range w.cur {
		s := w.cur[k]

		key := s.State ^ w.grid.Cells[w.grid.Index(s.X, s.Y)]
		w.runFunc(&s, int(s.Genome.Matrix[key]))
		s.State ^= s.RegA

		s.Age++
		s.Energy -= 0.1 + 0.001*float64(s.Age)

		w.updateMetabolism(&s)

		if s.Energy > 0 && s.Energy < EnergyCap {
			if !w.seat(&s) {
				w.deaths++
			}
		} else {
			w.deaths++
		}
	}

	w.compactNext()
	if len(w.next) == 0 {
		w.next = w.spawnInto(w.next, w.cfg.MinPopulation)
	}
	w.cur, w.next = w.next, w.cur
	w.tick++
}

// seat asks the occupancy arbiter to place s at its current cell in the
// next buffer. A contested cell damages both parties; the attacker takes
// over, in place, only when it survives with strictly more energy than the
// damaged occupant. Strict inequality keeps takeovers from oscillating.
func (w *World) seat(s *Spark) bool {
	i := w.grid.Index(s.X, s.Y)
	if !w.occ.Claimed(i) {
		if len(w.next) == cap(w.next) {
			w.drops++
			if glog.V(2) {
				glog.Infof("next buffer full, dropping spark at (%d,%d)", s.X, s.Y)
			}
			return false
		}
		w.next = append(w.next, *s)
		w.occ.claim(i, len(w.next)-1)
		return true
	}

	occ := &w.next[w.occ.Owner(i)]
	s.Energy -= CollisionCost
	occ.Energy -= CollisionCost
	if s.Energy > 0 && s.Energy > occ.Energy {
		w.deaths++ // the displaced occupant
		*occ = *s
		return true
	}
	return false
}

// updateMetabolism rewards displacement and bleeds energy out of loiterers.
// Displacement is measured on the torus against the previous tick.
func (w *World) updateMetabolism(s *Spark) {
	dx := toroidalDelta(s.X-s.LastX, w.grid.Size)
	dy := toroidalDelta(s.Y-s.LastY, w.grid.Size)
	disp := math.Sqrt(float64(dx*dx + dy*dy))
	if disp > 0.5 {
		s.Metabolism += 0.5 * disp
		if s.Metabolism > 100 {
			s.Metabolism = 100
		}
	} else {
		s.Metabolism -= 2
		if s.Metabolism < 0 {
			s.Metabolism = 0
		}
	}
	if s.Metabolism < 20 {
		s.Energy -= 0.15 * (20 - s.Metabolism)
	}
	s.LastX, s.LastY = s.X, s.Y
}

// toroidalDelta returns the signed shortest distance along one axis.
func toroidalDelta(d, size int) int {
	if d > size/2 {
		d -= size
	}
	if d < -size/2 {
		d += size
	}
	return d
}

// compactNext drops collision corpses so the swapped-in buffer only ever
// holds live sparks. Claims are per-tick and nothing reads owner indices
// after this point, so the stable in-place filter is safe.
func (w *World) compactNext() {
	live := w.next[:0]
	for k := range w.next {
		if w.next[k].Energy > 0 {
			live = append(live, w.next[k])
		} else {
			w.deaths++
		}
	}
	w.next = live
}

// spawnInto seeds up to n random sparks into buf. Every spark tries 16
// random cells for an unclaimed spot before settling for a possibly
// overlapping one; each placement claims its cell so later spawns avoid it.
func (w *World) spawnInto(buf []Spark, n int) []Spark {
	cells := uint32(w.grid.Size * w.grid.Size)
	for k := 0; k < n && len(buf) < cap(buf); k++ {
		i := -1
		for try := 0; try < 16; try++ {
			cand := int(w.rng.Bounded(cells))
			if !w.occ.Claimed(cand) {
				i = cand
				break
			}
		}
		if i < 0 {
			i = int(w.rng.Bounded(cells))
		}
		buf = append(buf, randomSpark(w.rng, i%w.grid.Size, i/w.grid.Size))
		w.occ.claim(i, len(buf)-1)
	}
	return buf
}

// Inject adds up to count randomly placed fresh sparks to the live
// population. Placement is unconstrained; contested cells sort themselves
// out at the next tick's arbitration.
func (w *World) Inject(count int) {
	cells := uint32(w.grid.Size * w.grid.Size)
	for k := 0; k < count && len(w.cur) < cap(w.cur); k++ {
		i := int(w.rng.Bounded(cells))
		w.cur = append(w.cur, randomSpark(w.rng, i%w.grid.Size, i/w.grid.Size))
	}
}

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 {
	return w.tick
}

// Population returns the live spark count.
func (w *World) Population() int {
	return len(w.cur)
}

// Size returns the grid edge length.
func (w *World) Size() int {
	return w.grid.Size
}

// Capacity returns the spark buffer capacity.
func (w *World) Capacity() int {
	return cap(w.cur)
}
