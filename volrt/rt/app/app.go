package app

import (
	"fmt"

	"github.com/gekko3d/volcast"
	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/gpu"
	"github.com/gekko3d/volcast/volrt/rt/volume"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Settings Config
	Log      volcast.Logger

	Backend *gpu.Backend
	Mapper  *volcast.VolumeMapper
	Grid    *volume.Grid
	Camera  *core.Camera

	TextRenderer *core.TextRenderer
	HUD          *gpu.HUDPass
	TextItems    []core.TextItem

	Profiler *Profiler
	FPS      RollingFPS
	Bench    *FPSMeter
}

func NewApp(window *glfw.Window, settings Config, log volcast.Logger) *App {
	if log == nil {
		log = volcast.NewNopLogger()
	}
	return &App{
		Window:   window,
		Settings: settings,
		Log:      log,
		Camera:   core.NewCamera(),
		Profiler: NewProfiler(),
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)
	a.Log.Infof("surface %dx%d, format %v", width, height, format)

	a.Backend, err = gpu.NewBackend(a.Device, format)
	if err != nil {
		return err
	}

	a.Mapper, err = volcast.NewVolumeMapper(a.Backend, a.Settings.Mapper, a.Log)
	if err != nil {
		return err
	}
	color, alpha, err := a.Settings.TransferKnots()
	if err != nil {
		return err
	}
	if err := a.Mapper.SetColorKnots(color); err != nil {
		return err
	}
	if err := a.Mapper.SetAlphaKnots(alpha); err != nil {
		return err
	}

	a.Grid, err = a.Settings.BuildSource()
	if err != nil {
		return err
	}
	if err := a.Mapper.SetInput(a.Grid); err != nil {
		return err
	}
	a.Log.Infof("volume %v %s, %d samples", a.Grid.Dimensions(), a.Grid.Kind, a.Grid.NumSamples())

	lo, hi := a.Grid.Bounds()
	a.Camera.ResetCamera(
		mgl32.Vec3{float32(lo[0]), float32(lo[1]), float32(lo[2])},
		mgl32.Vec3{float32(hi[0]), float32(hi[1]), float32(hi[2])},
	)

	if a.Settings.Debug {
		a.TextRenderer, err = core.NewDefaultTextRenderer(20)
		if err != nil {
			a.Log.Warnf("text renderer unavailable: %v", err)
		} else if a.HUD, err = gpu.NewHUDPass(a.Device, format, a.TextRenderer); err != nil {
			a.Log.Warnf("HUD unavailable: %v", err)
			a.HUD = nil
		}
	}
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

func (a *App) Update() {
	a.Camera.Azimuth(a.Settings.AzimuthPerFrame)

	a.TextItems = a.TextItems[:0]
	if a.HUD == nil {
		return
	}
	a.DrawText(fmt.Sprintf("FPS %.1f", a.FPS.FPS), 10, 10, 1, [4]float32{1, 1, 0, 1})
	a.DrawText(fmt.Sprintf("%s %s", a.Mapper.BlendMode(), a.Mapper.State()), 10, 10+a.TextRenderer.LineHeight(1), 1, [4]float32{1, 1, 1, 1})
}

func (a *App) DrawText(text string, x, y float32, scale float32, color [4]float32) {
	a.TextItems = append(a.TextItems, core.TextItem{
		Text:     text,
		Position: [2]float32{x, y},
		Scale:    scale,
		Color:    color,
	})
}

// Render draws one frame and presents it.
func (a *App) Render() error {
	a.Profiler.BeginScope("Frame")
	defer a.Profiler.EndScope("Frame")

	next, err := a.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer next.Release()

	view, err := next.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create view: %w", err)
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	clearPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Clear Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	err = clearPass.End()
	clearPass.Release()
	if err != nil {
		return fmt.Errorf("clear pass: %w", err)
	}

	width, height := int(a.Config.Width), int(a.Config.Height)
	if err := a.Backend.BeginFrame(encoder, view, width, height); err != nil {
		return err
	}
	a.Profiler.BeginScope("Volume")
	renderErr := a.Mapper.Render(a.Camera)
	a.Profiler.EndScope("Volume")
	a.Backend.EndFrame()
	if renderErr != nil {
		return renderErr
	}

	if a.HUD != nil {
		if err := a.HUD.Update(a.TextItems, width, height); err != nil {
			a.Log.Warnf("HUD update: %v", err)
		} else if err := a.HUD.Draw(encoder, view); err != nil {
			return fmt.Errorf("HUD pass: %w", err)
		}
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	defer cmd.Release()
	a.Queue.Submit(cmd)
	a.Surface.Present()

	now := glfw.GetTime()
	a.FPS.Frame(now)
	if a.Bench != nil {
		a.Bench.Frame(now)
	}
	a.Profiler.SetCount("Frames", a.Profiler.Counts["Frames"]+1)
	return nil
}

func (a *App) Release() {
	if a.Mapper != nil {
		a.Mapper.Release()
	}
	if a.HUD != nil {
		a.HUD.Release()
	}
	if a.Backend != nil {
		a.Backend.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}
