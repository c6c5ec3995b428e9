package ui

import "github.com/go-gl/glfw/v3.3/glfw"

// controls is one polled snapshot of the keyboard.
//
//	Space  pause / resume
//	N      single step while paused
//	I      inject a burst of random sparks
//	R      reseed the world
//	Up     raise the solar bonus
//	Down   lower the solar bonus
//	Esc    quit
type controls struct {
	pause     bool
	step      bool
	inject    bool
	reseed    bool
	bonusUp   bool
	bonusDown bool
	quit      bool
}

// readControls polls the current key state.
func readControls(window *glfw.Window) controls {
	press := func(k glfw.Key) bool { return window.GetKey(k) == glfw.Press }
	return controls{
		pause:     press(glfw.KeySpace),
		step:      press(glfw.KeyN),
		inject:    press(glfw.KeyI),
		reseed:    press(glfw.KeyR),
		bonusUp:   press(glfw.KeyUp),
		bonusDown: press(glfw.KeyDown),
		quit:      press(glfw.KeyEscape),
	}
}

// rising keeps only the keys that went down since the previous snapshot, so
// holding a key does not repeat its action every frame.
func (c controls) rising(prev controls) controls {
	return controls{
		pause:     c.pause && !prev.pause,
		step:      c.step && !prev.step,
		inject:    c.inject && !prev.inject,
		reseed:    c.reseed && !prev.reseed,
		bonusUp:   c.bonusUp && !prev.bonusUp,
		bonusDown: c.bonusDown && !prev.bonusDown,
		quit:      c.quit && !prev.quit,
	}
}
