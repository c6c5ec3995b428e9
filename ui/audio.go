package ui

import (
	"fmt"
	"math"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate    = 44100
	framesPerPump = 60 // pump is called once per display frame
	humBaseFreq   = 110
	humOctaveSpan = 2
)

// audio renders the world as a quiet hum: pitch rises with the share of the
// spark buffer in use. Samples are pushed through a buffered channel and the
// stream callback drains it, emitting silence when the world falls behind.
type audio struct {
	stream  *portaudio.Stream
	channel chan float32
	phase   float64
}

func newAudio() *audio {
	return &audio{channel: make(chan float32, sampleRate)}
}

func (a *audio) start() error {
	portaudio.Initialize()
	cb := func(out []float32) {
		for i := range out {
			select {
			case x := <-a.channel:
				out[i] = x * 0.05
			default:
				out[i] = 0
			}
		}
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, 0, cb)
	if err != nil {
		return fmt.Errorf("failed to open the audio stream: %w", err)
	}
	a.stream = stream
	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start the audio stream: %w", err)
	}
	return nil
}

// pump synthesizes one display frame of sine samples. populationFrac in
// [0, 1] sweeps the pitch across humOctaveSpan octaves above the base.
func (a *audio) pump(populationFrac float64) {
	freq := humBaseFreq * math.Pow(2, humOctaveSpan*populationFrac)
	for i := 0; i < sampleRate/framesPerPump; i++ {
		a.phase += 2 * math.Pi * freq / sampleRate
		if a.phase > 2*math.Pi {
			a.phase -= 2 * math.Pi
		}
		select {
		case a.channel <- float32(math.Sin(a.phase)):
		default:
			return
		}
	}
}

func (a *audio) terminate() {
	portaudio.Terminate()
	a.stream.Close()
}
