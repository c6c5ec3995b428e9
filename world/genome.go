package world

// Genome is a spark's heritable program: a decision matrix that picks one of
// the sixteen microcode functions from the current cell context, plus the
// microcode library itself. It is a fixed-size value type, so assignment is
// the deep copy children inherit.
type Genome struct {
	// Matrix maps an 8-bit key (internal state XOR grid value) to a
	// function index in [0, MicroFuncCount).
	Matrix [256]byte
	// Library holds MicroFuncCount functions of MicroFuncLen atoms each.
	Library [MicroFuncCount][MicroFuncLen]byte
}

// Randomize fills the genome uniformly. Fresh spawns start from noise;
// anything that persists has earned it.
func (g *Genome) Randomize(rng *RNG) {
	for i := range g.Matrix {
		g.Matrix[i] = byte(rng.Bounded(MicroFuncCount))
	}
	for f := range g.Library {
		for a := range g.Library[f] {
			g.Library[f][a] = byte(rng.Bounded(AtomCount))
		}
	}
}

// Mutate applies the reproduction operators, each rolled independently.
// All indices are drawn bounded, so a mutated genome can never hold an
// out-of-range function or atom id.
func (g *Genome) Mutate(rng *RNG) {
	// Point mutation: one random atom is rewritten.
	if rng.Bounded(100) < 30 {
		f := rng.Bounded(MicroFuncCount)
		a := rng.Bounded(MicroFuncLen)
		g.Library[f][a] = byte(rng.Bounded(AtomCount))
	}
	// Decision rewire: one matrix entry points at a new function.
	if rng.Bounded(100) < 20 {
		g.Matrix[rng.Byte()] = byte(rng.Bounded(MicroFuncCount))
	}
	// Gene duplication: one function overwrites a different slot.
	if rng.Bounded(100) < 10 {
		src := int(rng.Bounded(MicroFuncCount))
		dst := (src + 1 + int(rng.Bounded(MicroFuncCount-1))) % MicroFuncCount
		g.Library[dst] = g.Library[src]
	}
	// Frame shift: one function's atoms rotate left by one.
	if rng.Bounded(100) < 5 {
		fn := &g.Library[rng.Bounded(MicroFuncCount)]
		first := fn[0]
		copy(fn[:], fn[1:])
		fn[MicroFuncLen-1] = first
	}
}

// driftChannel nudges a color channel with 10% probability by a uniform
// delta in [-15, 15], clamped to [50, 255]. Small drift keeps lineages
// recognizable; the floor keeps sparks visible on the black frame.
func driftChannel(rng *RNG, c byte) byte {
	if rng.Bounded(100) >= 10 {
		return c
	}
	v := int(c) + rng.IntInclusive(-15, 15)
	if v < 50 {
		v = 50
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}
