package world

import "image"

// Render writes the live population into buf, one pixel per cell: black
// background, lineage color wherever a spark sits. Pure read of the world;
// call it between steps only. buf must be Size x Size.
func (w *World) Render(buf *image.RGBA) {
	pix := buf.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = 0
		pix[i+1] = 0
		pix[i+2] = 0
		pix[i+3] = 0xFF
	}
	for k := range w.cur {
		s := &w.cur[k]
		o := w.grid.Index(s.X, s.Y) * 4
		pix[o] = s.R
		pix[o+1] = s.G
		pix[o+2] = s.B
		pix[o+3] = 0xFF
	}
}

// Frame renders into the world-owned buffer and returns it. The buffer is
// reused across calls; copy it if it must outlive the next Frame.
func (w *World) Frame() *image.RGBA {
	w.Render(w.frame)
	return w.frame
}
