package world

// Census is a read-only aggregate of the live world, taken between steps.
// It feeds the stats logging, the audio hum and the websocket feed.
type Census struct {
	Tick          uint64  `json:"tick"`
	Population    int     `json:"population"`
	MeanEnergy    float64 `json:"meanEnergy"`
	MaxEnergy     float64 `json:"maxEnergy"`
	MaxGeneration uint32  `json:"maxGeneration"`
	Births        int     `json:"births"`
	Deaths        int     `json:"deaths"`
	Drops         int     `json:"drops"`
	SolarCells    int     `json:"solarCells"`
}

// Census walks the population and the grid. O(sparks + cells), so callers
// that only want it occasionally should only call it occasionally.
func (w *World) Census() Census {
	c := Census{
		Tick:       w.tick,
		Population: len(w.cur),
		Births:     w.births,
		Deaths:     w.deaths,
		Drops:      w.drops,
	}
	var total float64
	for k := range w.cur {
		s := &w.cur[k]
		total += s.Energy
		if s.Energy > c.MaxEnergy {
			c.MaxEnergy = s.Energy
		}
		if s.Generation > c.MaxGeneration {
			c.MaxGeneration = s.Generation
		}
	}
	if c.Population > 0 {
		c.MeanEnergy = total / float64(c.Population)
	}
	for _, v := range w.grid.Cells {
		if IsSolar(v) {
			c.SolarCells++
		}
	}
	return c
}
