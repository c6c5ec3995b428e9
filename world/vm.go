package world

// Atom ids. These are stable: genomes are plain byte arrays and every value
// below AtomCount has to keep meaning the same thing forever, or saved
// populations turn to noise.
const (
	OpNop        = 0  // no effect
	OpSetDXPos   = 1  // dx = 1
	OpSetDXNeg   = 2  // dx = -1
	OpSetDYPos   = 3  // dy = 1
	OpSetDYNeg   = 4  // dy = -1
	OpApplyMove  = 5  // attempt motion along the motor
	OpReadGrid   = 6  // regA = grid value at the current cell
	OpWriteGrid  = 7  // write regA to the current cell, costs CostWrite
	OpLoadEng    = 8  // regA = clamped energy reading
	OpTransfer   = 9  // universal environmental interaction
	OpSplitCond  = 10 // reproduce if energy clears SplitThreshold
	OpRegInc     = 11 // regA++ (mod 256)
	OpRegDec     = 12 // regA-- (mod 256)
	OpSwapRegs   = 13 // swap regA and regB
	OpJumpIf     = 14 // skip the next atom when regA > 128
	OpReset      = 15 // zero motor and registers
	OpConjugate  = 16 // horizontal gene transfer with a seated neighbor
	OpSenseAhead = 17 // peek at the cell ahead, 0x80 flags a claim
	OpCallFunc   = 18 // inline-expand the head of another function
	OpRandom     = 19 // regA = random byte
)

// runFunc interprets one microcode function against s. Every atom deducts
// CostAtom up front and execution halts as soon as energy is gone, whether
// from the atom tax or from an atom's own cost.
func (w *World) runFunc(s *Spark, fn int) {
	code := &s.Genome.Library[fn]
	for pc := 0; pc < MicroFuncLen; pc++ {
		s.Energy -= CostAtom
		if s.Energy <= 0 {
			return
		}
		switch code[pc] {
		case OpNop:
		case OpSetDXPos:
			s.DX = 1
		case OpSetDXNeg:
			s.DX = -1
		case OpSetDYPos:
			s.DY = 1
		case OpSetDYNeg:
			s.DY = -1
		case OpApplyMove:
			w.applyMove(s)
		case OpReadGrid:
			s.RegA = w.grid.Cells[w.grid.Index(s.X, s.Y)]
		case OpWriteGrid:
			if s.Energy > CostWrite {
				w.grid.Cells[w.grid.Index(s.X, s.Y)] = s.RegA
				s.Energy -= CostWrite
			}
		case OpLoadEng:
			s.RegA = clampByte(s.Energy * 1.275)
		case OpTransfer:
			w.transfer(s)
		case OpSplitCond:
			if s.Energy > SplitThreshold {
				w.split(s)
			}
		case OpRegInc:
			s.RegA++
		case OpRegDec:
			s.RegA--
		case OpSwapRegs:
			s.RegA, s.RegB = s.RegB, s.RegA
		case OpJumpIf:
			if s.RegA > 128 {
				pc++
			}
		case OpReset:
			s.DX, s.DY = 0, 0
			s.RegA, s.RegB = 0, 0
		case OpConjugate:
			w.conjugate(s)
		case OpSenseAhead:
			w.senseAhead(s)
		case OpCallFunc:
			w.callFunc(s)
		case OpRandom:
			s.RegA = w.rng.Byte()
		}
		if s.Energy <= 0 {
			return
		}
	}
}

// callFunc inline-expands the first four atoms of the function selected by
// regB. Only the motion, register and TRANSFER atoms run; anything else,
// including a nested call, is skipped. One bounded level instead of a call
// stack keeps per-spark cost O(1).
func (w *World) callFunc(s *Spark) {
	code := &s.Genome.Library[int(s.RegB)%MicroFuncCount]
	for i := 0; i < 4; i++ {
		s.Energy -= 0.5 * CostAtom
		if s.Energy <= 0 {
			return
		}
		switch code[i] {
		case OpSetDXPos:
			s.DX = 1
		case OpSetDXNeg:
			s.DX = -1
		case OpSetDYPos:
			s.DY = 1
		case OpSetDYNeg:
			s.DY = -1
		case OpApplyMove:
			w.applyMove(s)
		case OpRegInc:
			s.RegA++
		case OpRegDec:
			s.RegA--
		case OpSwapRegs:
			s.RegA, s.RegB = s.RegB, s.RegA
		case OpTransfer:
			w.transfer(s)
		}
		if s.Energy <= 0 {
			return
		}
	}
}

// applyMove advances the spark one cell along its motor with toroidal wrap.
// Walls do not consume the motion: an even wall value reflects the x motor,
// an odd one the y motor, and the spark stays put.
func (w *World) applyMove(s *Spark) {
	nx := w.grid.Wrap(s.X + s.DX)
	ny := w.grid.Wrap(s.Y + s.DY)
	v := w.grid.Cells[w.grid.Index(nx, ny)]
	if IsWall(v) {
		if v%2 == 0 {
			s.DX = -s.DX
		} else {
			s.DY = -s.DY
		}
		s.Energy -= 0.1
		return
	}
	s.X, s.Y = nx, ny
	s.Energy -= CostMove
}

// transfer is the universal environmental interaction at the current cell:
// solar cells are drained to VOID for energy, void dissipates a little, and
// everything else is inert. A max-value solar cell yields exactly
// 1 + SolarBonusMax.
func (w *World) transfer(s *Spark) {
	i := w.grid.Index(s.X, s.Y)
	v := w.grid.Cells[i]
	switch {
	case IsSolar(v):
		s.Energy += 1 + float64(v-SolarMin)/(SolarMax-SolarMin)*w.tun.SolarBonusMax
		if s.Energy > EnergyCap {
			s.Energy = EnergyCap
		}
		w.grid.Cells[i] = VoidMax
	case IsVoid(v):
		s.Energy -= 0.2
	}
}

// senseAhead peeks at the cell one step along the motor. regA receives the
// grid value with bit 0x80 set when that cell is already claimed for the
// next tick. The mid-tick view is deliberate: earlier sparks are visible,
// later ones are not.
func (w *World) senseAhead(s *Spark) {
	i := w.grid.Index(w.grid.Wrap(s.X+s.DX), w.grid.Wrap(s.Y+s.DY))
	s.RegA = w.grid.Cells[i]
	if w.occ.Claimed(i) {
		s.RegA |= 0x80
	}
}

// conjugate trades genetic material with the first cardinal neighbor already
// seated in the next buffer, scanned north, south, east, west. The library
// slot selected by regB and the matrix entry selected by regA swap between
// the two sparks, and one random color channel is averaged. Only one
// neighbor is engaged per invocation.
func (w *World) conjugate(s *Spark) {
	g := w.grid
	neighbors := [4]int{
		g.Index(s.X, g.Wrap(s.Y-1)),
		g.Index(s.X, g.Wrap(s.Y+1)),
		g.Index(g.Wrap(s.X+1), s.Y),
		g.Index(g.Wrap(s.X-1), s.Y),
	}
	for _, i := range neighbors {
		if !w.occ.Claimed(i) {
			continue
		}
		other := &w.next[w.occ.Owner(i)]
		slot := int(s.RegB) % MicroFuncCount
		s.Genome.Library[slot], other.Genome.Library[slot] =
			other.Genome.Library[slot], s.Genome.Library[slot]
		k := s.RegA
		s.Genome.Matrix[k], other.Genome.Matrix[k] =
			other.Genome.Matrix[k], s.Genome.Matrix[k]
		switch w.rng.Bounded(3) {
		case 0:
			mean := byte((int(s.R) + int(other.R)) / 2)
			s.R, other.R = mean, mean
		case 1:
			mean := byte((int(s.G) + int(other.G)) / 2)
			s.G, other.G = mean, mean
		default:
			mean := byte((int(s.B) + int(other.B)) / 2)
			s.B, other.B = mean, mean
		}
		s.Energy -= 0.5
		return
	}
}

// split buds a child off perpendicular to the parent's heading: the primary
// site is the left-hand cell, the fallback the right-hand one. If both are
// walls or already claimed, half the split cost is refunded and nothing
// happens. If the next buffer is full, the split cost stays spent, no child
// is made and a drop is counted. Otherwise the parent's remaining energy is
// shared evenly and the child seats immediately, claiming its cell for this
// tick.
func (w *World) split(s *Spark) {
	g := w.grid
	s.Energy -= CostSplit

	cx, cy := g.Wrap(s.X-s.DY), g.Wrap(s.Y+s.DX)
	dx, dy := -s.DY, s.DX
	if !w.splittable(cx, cy) {
		cx, cy = g.Wrap(s.X+s.DY), g.Wrap(s.Y-s.DX)
		dx, dy = s.DY, -s.DX
		if !w.splittable(cx, cy) {
			s.Energy += CostSplit / 2
			return
		}
	}
	if len(w.next) == cap(w.next) {
		w.drops++
		return
	}

	half := s.Energy / 2
	s.Energy = half

	child := Spark{
		X: cx, Y: cy,
		LastX: cx, LastY: cy,
		DX: dx, DY: dy,
		Energy:     half,
		Metabolism: 50,
		Generation: s.Generation + 1,
		State:      s.State,
		R:          driftChannel(w.rng, s.R),
		G:          driftChannel(w.rng, s.G),
		B:          driftChannel(w.rng, s.B),
		Genome:     s.Genome,
	}
	child.Genome.Mutate(w.rng)
	if w.rng.Bounded(100) < 15 {
		child.State ^= w.rng.Byte()
	}

	w.next = append(w.next, child)
	w.occ.claim(g.Index(cx, cy), len(w.next)-1)
	w.births++
}

// splittable reports whether (x, y) can receive a child this tick.
func (w *World) splittable(x, y int) bool {
	i := w.grid.Index(x, y)
	return !IsWall(w.grid.Cells[i]) && !w.occ.Claimed(i)
}

// clampByte maps a non-negative float onto [0, 255].
func clampByte(v float64) byte {
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return byte(v)
}
