package world

import (
	"math"
	"testing"
)

// newTestWorld builds a small empty world with an all-VOID (value 0) grid,
// ready for hand-placed sparks.
func newTestWorld(size int) *World {
	w := New(Config{
		Size:          size,
		Seed:          1,
		Capacity:      256,
		MinPopulation: 8,
		InitialSparks: 0,
	})
	for i := range w.grid.Cells {
		w.grid.Cells[i] = 0
	}
	return w
}

// testSpark returns a stationary spark whose decision matrix always selects
// function 0, with function 0 given by atoms (padded with NOP).
func testSpark(x, y int, energy float64, atoms ...byte) Spark {
	s := Spark{
		X: x, Y: y,
		LastX: x, LastY: y,
		Energy:     energy,
		Metabolism: 50,
		R:          128, G: 128, B: 128,
	}
	copy(s.Genome.Library[0][:], atoms)
	return s
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// Costs shared by every single-spark scenario below: eight atom taxes, the
// age cost at age 1, and no metabolism penalty (50 -> 48 while stationary).
const stepOverhead = 8*CostAtom + 0.1 + 0.001

func TestWallReflection(t *testing.T) {
	w := newTestWorld(32)
	w.grid.Cells[w.grid.Index(10, 10)] = 64 // even wall: reflects the x motor

	s := testSpark(9, 10, 100, OpApplyMove)
	s.DX = 1
	w.cur = append(w.cur, s)
	w.Step()

	if len(w.cur) != 1 {
		t.Fatalf("population = %d, want 1", len(w.cur))
	}
	got := w.cur[0]
	if got.X != 9 || got.Y != 10 {
		t.Fatalf("position = (%d,%d), want (9,10)", got.X, got.Y)
	}
	if got.DX != -1 {
		t.Fatalf("dx = %d, want -1 after reflecting off an even wall", got.DX)
	}
	if want := 100 - 0.1 - stepOverhead; !almostEqual(got.Energy, want) {
		t.Fatalf("energy = %v, want %v", got.Energy, want)
	}
}

func TestOddWallReflectsYMotor(t *testing.T) {
	w := newTestWorld(32)
	w.grid.Cells[w.grid.Index(10, 11)] = 65 // odd wall

	s := testSpark(10, 10, 100, OpApplyMove)
	s.DY = 1
	w.cur = append(w.cur, s)
	w.Step()

	got := w.cur[0]
	if got.X != 10 || got.Y != 10 || got.DY != -1 {
		t.Fatalf("got (%d,%d) dy=%d, want (10,10) dy=-1", got.X, got.Y, got.DY)
	}
}

func TestMoveWrapsToroidally(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(0, 0, 100, OpApplyMove)
	s.DX = -1
	w.cur = append(w.cur, s)
	w.Step()

	got := w.cur[0]
	if got.X != 31 || got.Y != 0 {
		t.Fatalf("position = (%d,%d), want (31,0)", got.X, got.Y)
	}
	// Displacement of one cell feeds metabolism instead of draining it.
	if !almostEqual(got.Metabolism, 50.5) {
		t.Fatalf("metabolism = %v, want 50.5", got.Metabolism)
	}
}

func TestSolarAbsorptionDrainsTile(t *testing.T) {
	w := newTestWorld(32)
	w.Tun.SolarBonusMax = 15
	w.grid.Cells[w.grid.Index(5, 5)] = 191 // max solar

	w.cur = append(w.cur, testSpark(5, 5, 60, OpTransfer))
	w.Step()

	if v := w.grid.Cells[w.grid.Index(5, 5)]; v != 63 {
		t.Fatalf("cell = %d, want 63 (drained to max VOID)", v)
	}
	got := w.cur[0]
	if want := 60 + 16 - stepOverhead; !almostEqual(got.Energy, want) {
		t.Fatalf("energy = %v, want %v", got.Energy, want)
	}
}

func TestTransferInVoidDissipates(t *testing.T) {
	w := newTestWorld(32)
	// Regrowth runs before the sparks act and turns some VOID cells to
	// SOLAR; with this seed it leaves (5,4) VOID.
	w.cur = append(w.cur, testSpark(5, 4, 60, OpTransfer))
	w.Step()

	// A regrown cell would have been drained to 63 by the transfer.
	if v := w.grid.Cells[w.grid.Index(5, 4)]; v != 0 {
		t.Fatalf("cell = %d, want 0 (VOID when the transfer ran)", v)
	}
	got := w.cur[0]
	if want := 60 - 0.2 - stepOverhead; !almostEqual(got.Energy, want) {
		t.Fatalf("energy = %v, want %v", got.Energy, want)
	}
}

func TestTransferCapsEnergy(t *testing.T) {
	w := newTestWorld(32)
	w.Tun.SolarBonusMax = 15
	w.grid.Cells[w.grid.Index(5, 5)] = 191

	w.cur = append(w.cur, testSpark(5, 5, EnergyCap-1, OpTransfer))
	w.Step()

	got := w.cur[0]
	if want := EnergyCap - stepOverhead + CostAtom; !almostEqual(got.Energy, want) {
		// The clamp lands exactly on the cap after the first atom tax, then
		// the remaining seven taxes and the age cost pull it back down.
		t.Fatalf("energy = %v, want %v", got.Energy, want)
	}
	if got.Energy >= EnergyCap {
		t.Fatalf("energy %v not below the cap", got.Energy)
	}
}

func TestWriteRequiresStrictlyMoreThanCost(t *testing.T) {
	w := newTestWorld(32)
	// A DATA cell: regrowth only touches VOID, so any change is the write.
	w.grid.Cells[w.grid.Index(2, 2)] = 220
	s := testSpark(2, 2, CostWrite, OpWriteGrid)
	s.RegA = 200
	w.cur = append(w.cur, s)
	w.Step()

	if v := w.grid.Cells[w.grid.Index(2, 2)]; v != 220 {
		t.Fatalf("cell = %d, write must not happen at energy == cost", v)
	}
	// Only the atom taxes and the age cost were paid.
	got := w.cur[0]
	if want := CostWrite - stepOverhead; !almostEqual(got.Energy, want) {
		t.Fatalf("energy = %v, want %v", got.Energy, want)
	}
}

func TestWriteSpendsEnergyAndMutatesCell(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(2, 2, 60, OpWriteGrid)
	s.RegA = 200
	w.cur = append(w.cur, s)
	w.Step()

	if v := w.grid.Cells[w.grid.Index(2, 2)]; v != 200 {
		t.Fatalf("cell = %d, want 200", v)
	}
	got := w.cur[0]
	if want := 60 - CostWrite - stepOverhead; !almostEqual(got.Energy, want) {
		t.Fatalf("energy = %v, want %v", got.Energy, want)
	}
}

func TestLoadEngClamps(t *testing.T) {
	w := newTestWorld(32)
	w.cur = append(w.cur, testSpark(3, 3, 1000, OpLoadEng))
	w.Step()
	// 1000 * 1.275 clamps to 255; the post-run state XOR folds regA into
	// the internal state, so check both.
	got := w.cur[0]
	if got.RegA != 255 {
		t.Fatalf("regA = %d, want 255", got.RegA)
	}
	if got.State != 255 {
		t.Fatalf("state = %d, want 255 after XOR", got.State)
	}
}

func TestResetThenSetMotor(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(3, 3, 100, OpSetDYPos, OpReset, OpSetDXPos)
	s.RegA, s.RegB = 9, 9
	w.cur = append(w.cur, s)
	w.Step()

	got := w.cur[0]
	if got.DX != 1 || got.DY != 0 {
		t.Fatalf("motor = (%d,%d), want (1,0)", got.DX, got.DY)
	}
	if got.RegA != 0 || got.RegB != 0 {
		t.Fatalf("registers = (%d,%d), want zero", got.RegA, got.RegB)
	}
}

func TestSwapRegsTwiceIsIdentity(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(3, 3, 100, OpSwapRegs, OpSwapRegs)
	s.RegA, s.RegB = 11, 22
	w.cur = append(w.cur, s)
	w.Step()

	got := w.cur[0]
	if got.RegA != 11 || got.RegB != 22 {
		t.Fatalf("registers = (%d,%d), want (11,22)", got.RegA, got.RegB)
	}
}

func TestJumpIfSkipsNextAtom(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(3, 3, 100, OpJumpIf, OpSetDXPos, OpSetDYPos)
	s.RegA = 200
	w.cur = append(w.cur, s)
	w.Step()

	got := w.cur[0]
	if got.DX != 0 {
		t.Fatal("jump did not skip the next atom")
	}
	if got.DY != 1 {
		t.Fatal("atom after the skipped one did not run")
	}
}

func TestJumpIfFallsThroughAt128(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(3, 3, 100, OpJumpIf, OpSetDXPos)
	s.RegA = 128 // strict >, so no skip
	w.cur = append(w.cur, s)
	w.Step()

	if got := w.cur[0]; got.DX != 1 {
		t.Fatal("regA == 128 must not skip")
	}
}

func TestRegIncDecWrap(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(3, 3, 100, OpRegInc)
	s.RegA = 255
	w.cur = append(w.cur, s)
	w.Step()
	if got := w.cur[0]; got.RegA != 0 {
		t.Fatalf("regA = %d, want wrap to 0", got.RegA)
	}

	w = newTestWorld(32)
	s = testSpark(3, 3, 100, OpRegDec)
	w.cur = append(w.cur, s)
	w.Step()
	if got := w.cur[0]; got.RegA != 255 {
		t.Fatalf("regA = %d, want wrap to 255", got.RegA)
	}
}

func TestCallFuncInlinesSafeSubset(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(3, 3, 100, OpCallFunc)
	s.RegB = 1
	// Head of function 1: motor set, two increments, then an atom outside
	// the safe subset that must be ignored.
	copy(s.Genome.Library[1][:], []byte{OpSetDXPos, OpRegInc, OpRegInc, OpSplitCond})
	w.cur = append(w.cur, s)
	w.Step()

	if len(w.cur) != 1 {
		t.Fatalf("population = %d, the inlined SPLIT_COND must not run", len(w.cur))
	}
	got := w.cur[0]
	if got.DX != 1 || got.RegA != 2 {
		t.Fatalf("dx=%d regA=%d, want dx=1 regA=2", got.DX, got.RegA)
	}
	want := 100 - 8*CostAtom - 4*0.5*CostAtom - 0.1 - 0.001
	if !almostEqual(got.Energy, want) {
		t.Fatalf("energy = %v, want %v (sub-atoms at half cost)", got.Energy, want)
	}
}

func TestSenseAheadSetsClaimBit(t *testing.T) {
	w := newTestWorld(32)
	// First spark seats at (5,5); the second, later in order, senses it.
	// The cell holds an odd WALL value, which regrowth never touches.
	w.grid.Cells[w.grid.Index(5, 5)] = 77
	w.cur = append(w.cur, testSpark(5, 5, 100))
	s := testSpark(5, 6, 100, OpSenseAhead)
	s.DY = -1
	w.cur = append(w.cur, s)
	w.Step()

	var sensed *Spark
	for k := range w.cur {
		if w.cur[k].Y == 6 {
			sensed = &w.cur[k]
		}
	}
	if sensed == nil {
		t.Fatal("sensing spark did not survive")
	}
	if sensed.RegA != 77|0x80 {
		t.Fatalf("regA = 0x%02x, want 0x%02x (WALL value 77 with the claim bit)", sensed.RegA, 77|0x80)
	}
}

func TestSenseAheadWithoutClaim(t *testing.T) {
	w := newTestWorld(32)
	w.grid.Cells[w.grid.Index(5, 4)] = 77
	s := testSpark(5, 5, 100, OpSenseAhead)
	s.DY = -1
	w.cur = append(w.cur, s)
	w.Step()

	if got := w.cur[0]; got.RegA != 77 {
		t.Fatalf("regA = %d, want the raw grid value 77", got.RegA)
	}
}

func TestConjugateSwapsGeneticMaterial(t *testing.T) {
	w := newTestWorld(32)

	a := testSpark(5, 5, 100)
	copy(a.Genome.Library[2][:], []byte{1, 1, 1, 1, 1, 1, 1, 1})
	a.Genome.Matrix[42] = 3

	b := testSpark(5, 6, 100, OpConjugate)
	b.RegA = 42
	b.RegB = 2
	copy(b.Genome.Library[2][:], []byte{4, 4, 4, 4, 4, 4, 4, 4})
	b.Genome.Matrix[42] = 9

	w.cur = append(w.cur, a, b)
	w.Step()

	if len(w.cur) != 2 {
		t.Fatalf("population = %d, want 2", len(w.cur))
	}
	var gotA, gotB *Spark
	for k := range w.cur {
		switch w.cur[k].Y {
		case 5:
			gotA = &w.cur[k]
		case 6:
			gotB = &w.cur[k]
		}
	}
	if gotA == nil || gotB == nil {
		t.Fatal("sparks moved unexpectedly")
	}
	if gotA.Genome.Library[2][0] != 4 || gotB.Genome.Library[2][0] != 1 {
		t.Fatal("library slot 2 was not exchanged")
	}
	if gotA.Genome.Matrix[42] != 9 || gotB.Genome.Matrix[42] != 3 {
		t.Fatal("matrix entry 42 was not exchanged")
	}
	want := 100 - 0.5 - stepOverhead
	if !almostEqual(gotB.Energy, want) {
		t.Fatalf("acting spark energy = %v, want %v", gotB.Energy, want)
	}
	if !almostEqual(gotA.Energy, 100-stepOverhead) {
		t.Fatalf("passive spark energy = %v, conjugation must cost it nothing", gotA.Energy)
	}
}

func TestConjugateWithoutNeighborIsInert(t *testing.T) {
	w := newTestWorld(32)
	s := testSpark(5, 5, 100, OpConjugate)
	before := s.Genome
	w.cur = append(w.cur, s)
	w.Step()

	got := w.cur[0]
	if got.Genome != before {
		t.Fatal("lone conjugation mutated the genome")
	}
	if want := 100 - stepOverhead; !almostEqual(got.Energy, want) {
		t.Fatalf("energy = %v, want %v (no 0.5 fee without a partner)", got.Energy, want)
	}
}

func TestMicrocodeHaltsWhenEnergyRunsOut(t *testing.T) {
	w := newTestWorld(32)
	// Enough energy for a few atom taxes but not the move cost: the spark
	// dies mid-function and must not reach the register increment.
	s := testSpark(3, 3, 0.005, OpApplyMove, OpRegInc)
	s.DX = 1
	probe := s
	w.runFunc(&probe, 0)
	if probe.RegA != 0 {
		t.Fatalf("regA = %d, execution ran past the move that used up the energy", probe.RegA)
	}
	w.cur = append(w.cur, s)
	w.Step()

	// The spark died; the safeguard reseeded the world.
	if len(w.cur) != w.cfg.MinPopulation {
		t.Fatalf("population = %d, want the safeguard's %d", len(w.cur), w.cfg.MinPopulation)
	}
}
