// Package config loads and saves the viewer configuration as YAML.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the viewer configuration.
type Config struct {
	Window struct {
		// Title is the window title shown before a scan is loaded.
		Title  string `yaml:"title"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		// The window can be resized within these limits.
		MinWidth  int `yaml:"minWidth"`
		MinHeight int `yaml:"minHeight"`
		MaxWidth  int `yaml:"maxWidth"`
		MaxHeight int `yaml:"maxHeight"`
	} `yaml:"window"`

	Render struct {
		// FrameRate is the number of ticks per second. Every tick rotates the scan and renders a frame.
		FrameRate int `yaml:"frameRate"`
		// PresentMode is "vsync" or "uncapped".
		PresentMode string `yaml:"presentMode"`
		// ForceSoftwareAdapter requests the fallback (CPU) WebGPU adapter.
		ForceSoftwareAdapter bool `yaml:"forceSoftwareAdapter"`
		// Headless renders with the CPU compositor into memory instead of a window.
		Headless bool `yaml:"headless"`
		// ClearColor is the RGB background behind the volume, each channel in [0, 1].
		ClearColor [3]float64 `yaml:"clearColor,flow"`
	} `yaml:"render"`

	Viewer struct {
		OrbitRadius      float32 `yaml:"orbitRadius"`
		ViewportWidth    float32 `yaml:"viewportWidth"`
		ViewportHeight   float32 `yaml:"viewportHeight"`
		SamplingInterval float32 `yaml:"samplingInterval"`
		// Threshold is the starting normalized absorbance threshold.
		Threshold float32 `yaml:"threshold"`
		// RotationStep is the orbit angle added per tick, in radians.
		RotationStep float32 `yaml:"rotationStep"`
	} `yaml:"viewer"`

	Loader struct {
		Workers   int `yaml:"workers"`
		QueueSize int `yaml:"queueSize"`
	} `yaml:"loader"`

	Log struct {
		// Level is one of debug, info, warn or error.
		Level string `yaml:"level"`
	} `yaml:"log"`

	Profiler struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"profiler"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Window.Title = "oxy-ct"
	cfg.Window.Width = 800
	cfg.Window.Height = 800
	cfg.Window.MinWidth = 320
	cfg.Window.MinHeight = 240
	cfg.Window.MaxWidth = 3840
	cfg.Window.MaxHeight = 2160

	cfg.Render.FrameRate = 30
	cfg.Render.PresentMode = "vsync"
	cfg.Render.ClearColor = [3]float64{0.1, 0.1, 0.1}

	cfg.Viewer.OrbitRadius = 40
	cfg.Viewer.ViewportWidth = 70
	cfg.Viewer.ViewportHeight = 70
	cfg.Viewer.SamplingInterval = 0.5
	cfg.Viewer.Threshold = 0.71
	cfg.Viewer.RotationStep = math.Pi / 16

	cfg.Loader.Workers = runtime.NumCPU()
	cfg.Loader.QueueSize = 256

	cfg.Log.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Window.MinWidth <= 0 || c.Window.MinHeight <= 0:
		return fmt.Errorf("minimum window size %dx%d must be positive", c.Window.MinWidth, c.Window.MinHeight)
	case c.Window.MaxWidth < c.Window.MinWidth || c.Window.MaxHeight < c.Window.MinHeight:
		return fmt.Errorf("maximum window size %dx%d is below the minimum %dx%d",
			c.Window.MaxWidth, c.Window.MaxHeight, c.Window.MinWidth, c.Window.MinHeight)
	case c.Render.FrameRate <= 0:
		return fmt.Errorf("frame rate %d must be positive", c.Render.FrameRate)
	case c.Render.PresentMode != "vsync" && c.Render.PresentMode != "uncapped":
		return fmt.Errorf("unknown present mode %q", c.Render.PresentMode)
	case !unitRange(c.Render.ClearColor):
		return fmt.Errorf("clear color %v must have channels in [0, 1]", c.Render.ClearColor)
	case c.Viewer.OrbitRadius <= 0:
		return fmt.Errorf("orbit radius %g must be positive", c.Viewer.OrbitRadius)
	case c.Viewer.ViewportWidth <= 0 || c.Viewer.ViewportHeight <= 0:
		return fmt.Errorf("viewport %gx%g must be positive", c.Viewer.ViewportWidth, c.Viewer.ViewportHeight)
	case c.Viewer.SamplingInterval <= 0:
		return fmt.Errorf("sampling interval %g must be positive", c.Viewer.SamplingInterval)
	case !isFinite(c.Viewer.Threshold) || !isFinite(c.Viewer.RotationStep):
		return errors.New("threshold and rotation step must be finite")
	case c.Loader.Workers < 1 || c.Loader.QueueSize < 1:
		return fmt.Errorf("loader needs at least one worker and one queue slot, got %d and %d", c.Loader.Workers, c.Loader.QueueSize)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return level, nil
}

// Background returns the clear color as an opaque 8-bit color.
func (c *Config) Background() color.RGBA {
	ch := func(v float64) uint8 { return uint8(math.Round(v * 255)) }
	return color.RGBA{R: ch(c.Render.ClearColor[0]), G: ch(c.Render.ClearColor[1]), B: ch(c.Render.ClearColor[2]), A: 255}
}

func unitRange(rgb [3]float64) bool {
	for _, v := range rgb {
		if !(v >= 0 && v <= 1) {
			return false
		}
	}
	return true
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
