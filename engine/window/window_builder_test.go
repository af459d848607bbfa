package window

import "testing"

func TestWindowBuilderOptions(t *testing.T) {
	w := &engineWindow{minWidth: 320, minHeight: 240, maxWidth: 3840, maxHeight: 2160}
	for _, opt := range []WindowBuilderOption{
		WithTitle("scan"),
		WithSize(1024, 768),
		WithSizeLimits(640, 0, 1920, 1080),
	} {
		opt(w)
	}

	if w.title != "scan" {
		t.Errorf("title = %q", w.title)
	}
	if w.width != 1024 || w.height != 768 {
		t.Errorf("size = %dx%d, want 1024x768", w.width, w.height)
	}
	if w.minWidth != 640 || w.minHeight != 240 {
		t.Errorf("min = %dx%d, want 640x240 (zero keeps the default)", w.minWidth, w.minHeight)
	}
	if w.maxWidth != 1920 || w.maxHeight != 1080 {
		t.Errorf("max = %dx%d, want 1920x1080", w.maxWidth, w.maxHeight)
	}
}
