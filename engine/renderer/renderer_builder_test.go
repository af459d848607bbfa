package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestRendererBuilderOptions(t *testing.T) {
	r := &renderer{}
	for _, opt := range []RendererBuilderOption{
		WithClearColor(wgpu.Color{R: 0.2, G: 0.3, B: 0.4, A: 1}),
		WithPresentMode(PresentModeVSync),
		WithForceSoftwareRenderer(true),
	} {
		opt(r)
	}

	if r.clearColor != (wgpu.Color{R: 0.2, G: 0.3, B: 0.4, A: 1}) {
		t.Errorf("clearColor = %+v", r.clearColor)
	}
	if r.pendingPresentMode == nil || *r.pendingPresentMode != PresentModeVSync {
		t.Errorf("pendingPresentMode = %v, want VSync", r.pendingPresentMode)
	}
	if !r.forceFallbackAdapter {
		t.Error("forceFallbackAdapter not set")
	}
}
