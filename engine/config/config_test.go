package config

import (
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Viewer.Threshold != 0.71 {
		t.Errorf("default threshold %v, want 0.71", cfg.Viewer.Threshold)
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelInfo {
		t.Errorf("default log level %v", level)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should give defaults: %v", err)
	}
	if cfg.Window.Width != 800 {
		t.Errorf("width %d", cfg.Window.Width)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "oxy-ct.yaml")
	cfg := DefaultConfig()
	cfg.Viewer.Threshold = 0.4
	cfg.Render.PresentMode = "uncapped"
	cfg.Log.Level = "debug"
	cfg.Render.ClearColor = [3]float64{0, 0.5, 1}
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Viewer.Threshold != 0.4 || loaded.Render.PresentMode != "uncapped" {
		t.Errorf("loaded %+v", loaded)
	}
	if level, _ := loaded.LogLevel(); level != slog.LevelDebug {
		t.Errorf("log level %v", level)
	}
	if got := loaded.Background(); got != (color.RGBA{R: 0, G: 128, B: 255, A: 255}) {
		t.Errorf("background %v", got)
	}
}

func TestDefaultBackground(t *testing.T) {
	if got := DefaultConfig().Background(); got != (color.RGBA{R: 26, G: 26, B: 26, A: 255}) {
		t.Errorf("background %v", got)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("viewer:\n  threshold: 0.2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Viewer.Threshold != 0.2 {
		t.Errorf("threshold %v", cfg.Viewer.Threshold)
	}
	if cfg.Viewer.OrbitRadius != 40 || cfg.Render.FrameRate != 30 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadFiles(t *testing.T) {
	for name, body := range map[string]string{
		"syntax":        "window: [",
		"present mode":  "render:\n  presentMode: sometimes\n",
		"frame rate":    "render:\n  frameRate: 0\n",
		"log level":     "log:\n  level: loud\n",
		"workers":       "loader:\n  workers: 0\n",
		"clear color":   "render:\n  clearColor: [0.1, 1.5, 0]\n",
		"min size":      "window:\n  minWidth: 0\n",
		"max below min": "window:\n  minHeight: 600\n  maxHeight: 480\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
