// Command oxy-ct opens a CT scan and shows a rotating pseudo-3D view of the object, reconstructed
// on the fly from its projection images.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/config"
	"github.com/Carmen-Shannon/oxy-ct/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/Carmen-Shannon/oxy-ct/engine/viewer"
	"github.com/Carmen-Shannon/oxy-ct/engine/volume"
	"github.com/Carmen-Shannon/oxy-ct/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// thresholdNudge is the threshold change per Up/Down key press.
const thresholdNudge = 0.01

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "oxy-ct.yaml", "path to the YAML configuration file")
	headless := flag.Bool("headless", false, "render with the CPU compositor instead of opening a window")
	frames := flag.Int("frames", 0, "quit after this many frames (0 runs until quit)")
	out := flag.String("out", "", "headless only: write the last frame to this PNG file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [scan.json]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configPath, *headless, *frames, *out, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, headless bool, frames int, out, scanPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if headless {
		cfg.Render.Headless = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	level, _ := cfg.LogLevel()
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	loader := scan.NewLoader(
		scan.WithWorkers(cfg.Loader.Workers),
		scan.WithQueueSize(cfg.Loader.QueueSize),
	)
	cam := camera.NewCamera(
		camera.WithRadius(cfg.Viewer.OrbitRadius),
		camera.WithDimensions(cfg.Viewer.ViewportWidth, cfg.Viewer.ViewportHeight),
		camera.WithSamplingInterval(cfg.Viewer.SamplingInterval),
	)

	var (
		win     window.Window
		target  engine.FrameTarget
		backend volume.Backend
		canvas  *volume.Canvas
	)
	if cfg.Render.Headless {
		canvas = volume.NewCanvas(cfg.Window.Width, cfg.Window.Height, cfg.Background())
		target = canvas
		backend = volume.NewSoftwareBackend(canvas.Image())
	} else {
		win = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
			window.WithSizeLimits(cfg.Window.MinWidth, cfg.Window.MinHeight, cfg.Window.MaxWidth, cfg.Window.MaxHeight),
		)
		defer win.Close()

		mode, _ := renderer.ParsePresentMode(cfg.Render.PresentMode)
		bg := cfg.Render.ClearColor
		r := renderer.NewRenderer(
			renderer.BackendTypeWGPU,
			win,
			renderer.WithPresentMode(mode),
			renderer.WithForceSoftwareRenderer(cfg.Render.ForceSoftwareAdapter),
			renderer.WithClearColor(wgpu.Color{R: bg[0], G: bg[1], B: bg[2], A: 1}),
		)
		target = r
		backend = volume.NewGPUBackend(r)
	}

	title := cfg.Window.Title
	v := viewer.NewViewer(loader, backend,
		viewer.WithCamera(cam),
		viewer.WithThreshold(cfg.Viewer.Threshold),
		viewer.WithRotationStep(cfg.Viewer.RotationStep),
		viewer.WithStatusCallback(func(status string) {
			common.Logger().Info("status", "text", status)
			if win != nil {
				win.SetTitle(title + " - " + status)
			}
		}),
	)
	defer v.Close()

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithFrameTarget(target),
		engine.WithTickRate(float64(cfg.Render.FrameRate)),
		engine.WithProfiling(cfg.Profiler.Enabled),
		engine.WithFrameLimit(frames),
	)
	eng.SetTickCallback(func(float32) { v.Step() })
	eng.SetDrawCallback(v.Render)

	if win != nil {
		win.SetTitle(title + " - " + v.Status())
		win.SetDropCallback(func(paths []string) {
			v.Send(viewer.OpenRequested{Picker: viewer.Path(paths[0])})
		})
		win.SetKeyDownCallback(func(keyCode uint32) {
			switch keyCode {
			case common.KeyUp:
				v.Send(viewer.ThresholdEdited{Text: formatThreshold(v.Threshold() + thresholdNudge)})
			case common.KeyDown:
				v.Send(viewer.ThresholdEdited{Text: formatThreshold(v.Threshold() - thresholdNudge)})
			}
		})
	}

	con := &console{viewer: v, out: os.Stdout, quit: eng.Quit}
	go con.run(os.Stdin)

	if scanPath != "" {
		v.Send(viewer.OpenRequested{Picker: viewer.Path(scanPath)})
	}

	runErr := eng.Run()

	if canvas != nil && out != "" {
		if err := writePNG(out, canvas); err != nil {
			return err
		}
		common.Logger().Info("wrote frame", "path", out, "frames", canvas.Frames())
	}
	return runErr
}

func formatThreshold(t float32) string {
	return strconv.FormatFloat(float64(t), 'f', 2, 32)
}

func writePNG(path string, canvas *volume.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, canvas.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
