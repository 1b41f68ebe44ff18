package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/gekko3d/volcast"
	"github.com/gekko3d/volcast/volrt/rt/app"
	"github.com/gekko3d/volcast/volrt/rt/core"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	debug := flag.Bool("debug", false, "Show the HUD and debug logging")
	blend := flag.String("blend", "", "Blend mode: composite or additive")
	bench := flag.Bool("bench", false, "Measure FPS after warm-up frames and exit")
	flag.Parse()

	log := volcast.NewDefaultLogger("volrt", *debug)

	settings, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}
	if *debug {
		settings.Debug = true
	}
	if *blend != "" {
		mode, err := core.ParseBlendMode(*blend)
		if err != nil {
			log.Errorf("%v", err)
			os.Exit(2)
		}
		settings.Mapper.BlendMode = mode
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(settings.Window.Width, settings.Window.Height, settings.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, settings, log)
	defer application.Release()
	if err := application.Init(); err != nil {
		log.Errorf("init: %v", err)
		return
	}
	if *bench {
		application.Bench = app.NewFPSMeter(settings.Bench.WarmupFrames, settings.Bench.Frames)
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		if err := application.Render(); err != nil {
			log.Errorf("render: %v", err)
			if application.Mapper.Err() != nil {
				return
			}
		}
		if application.Bench != nil && application.Bench.Done() {
			log.Infof("FPS: %.2f over %d frames", application.Bench.FPS(), application.Bench.Frames)
			log.Debugf("\n%s", application.Profiler.StatsString())
			return
		}
	}
}
