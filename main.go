// Command sparkgrid runs the spark world: headless, windowed, or either with
// a live websocket stats feed.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	"sparkgrid/server"
	"sparkgrid/ui"
	"sparkgrid/world"
)

func main() {
	size := flag.Int("size", world.GridSize, "grid size (N x N)")
	seed := flag.Uint("seed", 1, "world seed")
	count := flag.Int("count", world.SparkCountMin, "initial spark count")
	steps := flag.Int("steps", 0, "headless steps to run (0 = run until killed)")
	statsEvery := flag.Int("statsEvery", 0, "log a census every N ticks (0 = never)")
	gui := flag.Bool("gui", false, "show the world in a window")
	audio := flag.Bool("audio", false, "enable the population hum (GUI only)")
	serveAddr := flag.String("serve", "", "address for the live stats feed (empty = off)")
	solarBonus := flag.Float64("solarBonus", 15, "solar yield bonus at zero population pressure")
	flag.Parse()

	if *size <= 0 {
		glog.Fatalf("size must be > 0, got %d", *size)
	}
	if *count < 0 || *count > world.SparkCap {
		glog.Fatalf("count must be in [0, %d], got %d", world.SparkCap, *count)
	}
	if *steps < 0 {
		glog.Fatalf("steps must be >= 0, got %d", *steps)
	}
	if *solarBonus < 0 {
		glog.Fatalf("solarBonus must be >= 0, got %v", *solarBonus)
	}

	cfg := world.DefaultConfig()
	cfg.Size = *size
	cfg.Seed = uint32(*seed)
	cfg.InitialSparks = *count
	w := world.New(cfg)
	w.Tun.SolarBonusMax = *solarBonus

	glog.Infof("world size=%d seed=%d sparks=%d gui=%t serve=%q",
		*size, *seed, w.Population(), *gui, *serveAddr)

	var census chan world.Census
	if *serveAddr != "" {
		census = make(chan world.Census, 8)
		srv := server.New(*serveAddr, census)
		go func() {
			if err := srv.Serve(context.Background()); err != nil {
				glog.Fatalf("stats server: %v", err)
			}
		}()
	}

	if *gui {
		opts := ui.Options{
			Seed:       cfg.Seed,
			Audio:      *audio,
			SolarBonus: *solarBonus,
			Census:     census,
		}
		if err := ui.Start(w, opts); err != nil {
			glog.Fatalf("ui: %v", err)
		}
		return
	}

	start := time.Now()
	for i := 0; *steps == 0 || i < *steps; i++ {
		// Population pressure throttles the solar yield, same as the GUI.
		frac := float64(w.Population()) / float64(w.Capacity())
		w.Tun.SolarBonusMax = *solarBonus * (1 - frac)
		w.Step()

		if census != nil || (*statsEvery > 0 && int(w.Tick())%*statsEvery == 0) {
			c := w.Census()
			if *statsEvery > 0 && int(w.Tick())%*statsEvery == 0 {
				glog.Infof("tick=%d population=%d meanEnergy=%.1f maxGen=%d births=%d deaths=%d solar=%d",
					c.Tick, c.Population, c.MeanEnergy, c.MaxGeneration, c.Births, c.Deaths, c.SolarCells)
			}
			if census != nil {
				select {
				case census <- c:
				default:
				}
			}
		}
	}
	glog.Infof("done: %d steps in %v, final population %d", *steps, time.Since(start), w.Population())
}
