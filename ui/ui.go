// Package ui displays a world in a GLFW window and owns the interactive
// surface around the core: pacing, pause, spark injection, reseeding and
// solar tuning. The core only ever sees the resolved numeric effects.
package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/golang/glog"

	"sparkgrid/world"
)

// Shaders for a 2D texture.
const (
	vertexShader = `
  #version 330

  attribute vec3 position;
  attribute vec2 uv;
  varying vec2 vuv;
  void main(void){
    gl_Position = vec4(position, 1.0);
    vuv = uv;
  }
  ` + "\x00"

	fragmentShader = `
  #version 330

  varying vec2 vuv;
  uniform sampler2D texture;
  void main(void){
    gl_FragColor = texture2D(texture, vuv);
  }
  ` + "\x00"
)

var vertexPosition = []float32{
	1, 1,
	-1, 1,
	-1, -1,
	1, -1,
}

var vertexUV = []float32{
	1, 0,
	0, 0,
	0, 1,
	1, 1,
}

// compileShader compiles a shader.
func compileShader(code string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	ccode := gl.Str(code)
	gl.ShaderSource(shader, 1, &ccode, nil)
	gl.CompileShader(shader)
	var result int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &result)
	if result == gl.FALSE {
		var length int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetShaderInfoLog(shader, length, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to compile a shader: %v\n %v", code, log)
	}
	return shader, nil
}

// newProgram links the texture program.
func newProgram() (uint32, error) {
	vs, err := compileShader(vertexShader, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragmentShader, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	var result int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &result)
	if result == gl.FALSE {
		var length int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetProgramInfoLog(program, length, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to link a program: %v", log)
	}
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)
	return program, nil
}

// updateTexture uploads the frame and draws the quad.
func updateTexture(program uint32, frame *image.RGBA) {
	var textureId uint32
	gl.GenTextures(1, &textureId)
	gl.BindTexture(gl.TEXTURE_2D, textureId)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(frame.Rect.Size().X), int32(frame.Rect.Size().Y),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	positionLocation := uint32(gl.GetAttribLocation(program, gl.Str("position\x00")))
	uvLocation := uint32(gl.GetAttribLocation(program, gl.Str("uv\x00")))
	textureLocation := gl.GetUniformLocation(program, gl.Str("texture\x00"))
	gl.EnableVertexAttribArray(positionLocation)
	gl.EnableVertexAttribArray(uvLocation)
	gl.Uniform1i(textureLocation, 0)
	gl.VertexAttribPointer(positionLocation, 2, gl.FLOAT, false, 0, gl.Ptr(vertexPosition))
	gl.VertexAttribPointer(uvLocation, 2, gl.FLOAT, false, 0, gl.Ptr(vertexUV))
	gl.BindTexture(gl.TEXTURE_2D, textureId)
	gl.DrawArrays(gl.TRIANGLE_FAN, 0, 4)
	gl.DeleteTextures(1, &textureId)
}

// Options configures a UI session.
type Options struct {
	Seed       uint32              // base seed, bumped on every manual reseed
	Audio      bool                // enable the population hum
	SolarBonus float64             // solar yield at zero population pressure
	Census     chan<- world.Census // optional per-tick stats sink, never blocked on
}

// Start opens the window and runs the world until the window closes.
func Start(w *world.World, opts Options) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to init glfw: %w", err)
	}
	defer glfw.Terminate()
	window, err := glfw.CreateWindow(w.Size(), w.Size(), "sparkgrid", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create a window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to init gl: %w", err)
	}
	program, err := newProgram()
	if err != nil {
		return err
	}
	gl.UseProgram(program)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)

	var snd *audio
	if opts.Audio {
		snd = newAudio()
		if err := snd.start(); err != nil {
			glog.Errorf("audio disabled: %v", err)
			snd = nil
		} else {
			defer snd.terminate()
		}
	}

	base := opts.SolarBonus
	seed := opts.Seed
	paused := false
	var prev controls
	for !window.ShouldClose() {
		time.Sleep(1 * time.Millisecond)
		now := readControls(window)
		edge := now.rising(prev)
		prev = now

		switch {
		case edge.quit:
			window.SetShouldClose(true)
		case edge.pause:
			paused = !paused
		case edge.inject:
			w.Inject(2000)
		case edge.reseed:
			seed++
			w.Reseed(seed)
		case edge.bonusUp:
			base++
		case edge.bonusDown && base > 1:
			base--
		}

		if !paused || edge.step {
			// Population pressure throttles the solar yield.
			frac := float64(w.Population()) / float64(w.Capacity())
			w.Tun.SolarBonusMax = base * (1 - frac)
			w.Step()
			c := w.Census()
			if opts.Census != nil {
				select {
				case opts.Census <- c:
				default:
				}
			}
			if snd != nil {
				snd.pump(float64(c.Population) / float64(w.Capacity()))
			}
		}

		updateTexture(program, w.Frame())
		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}
