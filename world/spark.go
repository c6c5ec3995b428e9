package world

import "math"

// Spark is a living agent on the grid.
type Spark struct {
	X, Y         int // current cell, always in bounds
	DX, DY       int // motor heading, each in {-1, 0, 1}
	LastX, LastY int // position at the previous tick, for displacement

	Energy     float64 // alive iff > 0, capped at EnergyCap
	Metabolism float64 // anti-oscillation fuel in [0, 100]
	Age        uint32  // ticks since birth
	Generation uint32

	RegA, RegB byte
	State      byte // internal state, XORed with the grid value as the decision key

	R, G, B byte // lineage color, each channel in [50, 255]

	Genome Genome
}

// randomSpark spawns a fresh spark at (x, y) with a noise genome, a random
// bright lineage color and a non-zero motor.
func randomSpark(rng *RNG, x, y int) Spark {
	s := Spark{
		X: x, Y: y,
		LastX: x, LastY: y,
		Energy:     50 + 30*rng.Float64(),
		Metabolism: 50,
	}
	s.DX, s.DY = rng.Dir3(), rng.Dir3()
	for s.DX == 0 && s.DY == 0 {
		s.DX, s.DY = rng.Dir3(), rng.Dir3()
	}
	s.R, s.G, s.B = hueColor(rng)
	s.Genome.Randomize(rng)
	return s
}

// hueColor draws a random hue at fixed saturation 0.8 and value 1.0. With
// those settings the smallest possible channel is 50 (the float product
// 0.2*255 lands just under 51 and the byte conversion truncates), which keeps
// every fresh lineage at or above the visibility floor.
func hueColor(rng *RNG) (byte, byte, byte) {
	h := float64(rng.Bounded(360))
	const s, v = 0.8, 1.0
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = c, x, 0
	case h < 120:
		rf, gf, bf = x, c, 0
	case h < 180:
		rf, gf, bf = 0, c, x
	case h < 240:
		rf, gf, bf = 0, x, c
	case h < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	return byte((rf + m) * 255), byte((gf + m) * 255), byte((bf + m) * 255)
}
