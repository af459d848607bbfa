package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const testVertexSource = `struct VertexInput {
    @location(0) position: vec2<f32>,
    @location(1) cam_coords: vec2<f32>,
};

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) cam_coords: vec2<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = vec4<f32>(in.position, 0.0, 1.0);
    out.cam_coords = in.cam_coords;
    return out;
}
`

const testFragmentSource = `//@oxy:include camera
//@oxy:include projection

//@oxy:provider 0 0 projections projection_images
@group(0) @binding(0) var projection_images: texture_2d_array<f32>;
//@oxy:provider 0 1 projections projection_sampler
@group(0) @binding(1) var projection_sampler: sampler;
//@oxy:group 0 2 storage_read projections array<projection>
//@oxy:group 1 0 storage_uniform camera camera

@fragment
fn fs_main(@location(0) cam_coords: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(cam_coords, 0.0, 1.0);
}
`

func TestVertexLayout(t *testing.T) {
	s := NewShader("test_vert", ShaderTypeVertex, testVertexSource)
	if s.EntryPoint() != "vs_main" {
		t.Fatalf("entry point %q", s.EntryPoint())
	}
	layouts := s.VertexLayouts()
	if len(layouts) != 1 {
		t.Fatalf("expected one vertex layout, got %d", len(layouts))
	}
	l := s.VertexLayout(0)[0]
	if l.ArrayStride != 16 {
		t.Errorf("stride %d, want 16", l.ArrayStride)
	}
	if len(l.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(l.Attributes))
	}
	if l.Attributes[1].Offset != 8 || l.Attributes[1].ShaderLocation != 1 {
		t.Errorf("second attribute %+v", l.Attributes[1])
	}
	if len(s.BindGroupLayoutDescriptors()) != 0 {
		t.Errorf("vertex shader should declare no bind groups")
	}
}

func TestFragmentBindGroups(t *testing.T) {
	s := NewShader("test_frag", ShaderTypeFragment, testFragmentSource, WithNonFilteringSamplers())
	if s.EntryPoint() != "fs_main" {
		t.Fatalf("entry point %q", s.EntryPoint())
	}

	g0 := s.BindGroupLayoutDescriptor(0).Entries
	if len(g0) != 3 {
		t.Fatalf("group 0 has %d entries, want 3", len(g0))
	}
	if g0[0].Texture.SampleType != wgpu.TextureSampleTypeUnfilterableFloat {
		t.Errorf("texture sample type %v", g0[0].Texture.SampleType)
	}
	if g0[0].Texture.ViewDimension != wgpu.TextureViewDimension2DArray {
		t.Errorf("texture view dimension %v", g0[0].Texture.ViewDimension)
	}
	if g0[1].Sampler.Type != wgpu.SamplerBindingTypeNonFiltering {
		t.Errorf("sampler type %v", g0[1].Sampler.Type)
	}
	if g0[2].Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage || g0[2].Buffer.MinBindingSize != 96 {
		t.Errorf("projection buffer %+v", g0[2].Buffer)
	}
	if g0[2].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("visibility %v", g0[2].Visibility)
	}

	g1 := s.BindGroupLayoutDescriptor(1).Entries
	if len(g1) != 1 {
		t.Fatalf("group 1 has %d entries, want 1", len(g1))
	}
	if g1[0].Buffer.Type != wgpu.BufferBindingTypeUniform || g1[0].Buffer.MinBindingSize != 64 {
		t.Errorf("camera buffer %+v", g1[0].Buffer)
	}

	if s.BindGroupVarName(0, 2) != "projections" || s.BindGroupVarName(1, 0) != "camera" {
		t.Errorf("var names %v", s.BindGroupVarNames())
	}
}

func TestFilteringDefault(t *testing.T) {
	s := NewShader("test_frag", ShaderTypeFragment, testFragmentSource)
	g0 := s.BindGroupLayoutDescriptor(0).Entries
	if g0[0].Texture.SampleType != wgpu.TextureSampleTypeFloat {
		t.Errorf("texture sample type %v", g0[0].Texture.SampleType)
	}
	if g0[1].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("sampler type %v", g0[1].Sampler.Type)
	}
}

func TestDeclarations(t *testing.T) {
	s := NewShader("test_frag", ShaderTypeFragment, testFragmentSource)
	if got := len(s.Declarations()); got != 4 {
		t.Fatalf("expected 4 declarations, got %d", got)
	}

	images, ok := s.FindDeclaration(AnnotationArgProjectionImages)
	if !ok || *images.Group != 0 || *images.Binding != 0 {
		t.Errorf("projection images declaration %+v", images)
	}
	proj, ok := s.FindDeclaration(AnnotationArgProjection)
	if !ok || *proj.Binding != 2 {
		t.Errorf("projection declaration %+v", proj)
	}
	cam, ok := s.FindDeclaration(AnnotationArgCamera)
	if !ok || *cam.Group != 1 {
		t.Errorf("camera declaration %+v", cam)
	}

	if strings.Contains(s.Source(), "@oxy:group") {
		t.Errorf("group annotations should be replaced in the processed source")
	}
	if strings.Count(s.Source(), "struct Projection") != 1 {
		t.Errorf("projection struct should be injected exactly once")
	}
	if !strings.Contains(s.Source(), "@group(0) @binding(2) var<storage, read> projections: array<Projection>;") {
		t.Errorf("missing generated projection declaration:\n%s", s.Source())
	}
}

func TestPreProcessorIncludeOnce(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:include camera\n//@oxy:include camera\n")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "struct CameraUniform") != 1 {
		t.Errorf("camera struct included %d times", strings.Count(out, "struct CameraUniform"))
	}
}

func TestAnnotationErrors(t *testing.T) {
	bad := []string{
		"//@oxy:",
		"//@oxy:include",
		"//@oxy:include light",
		"//@oxy:group 0 0 storage_uniform camera",
		"//@oxy:group x 0 storage_uniform camera camera",
		"//@oxy:group 0 -1 storage_uniform camera camera",
		"//@oxy:group 0 0 private camera camera",
		"//@oxy:group 0 0 storage_uniform camera model",
		"//@oxy:provider 0 0",
		"//@oxy:provider 0 0 shadow",
		"//@oxy:provider 0 0 projections depth",
		"//@oxy:bind 0 0",
	}
	for _, line := range bad {
		if _, err := parseAnnotation(line, 1); err == nil {
			t.Errorf("%q: expected an error", line)
		}
	}

	for _, line := range []string{"var x: f32; // @oxy:include camera", "// plain comment", ""} {
		a, err := parseAnnotation(line, 1)
		if err != nil || a != nil {
			t.Errorf("%q: expected no annotation, got %+v %v", line, a, err)
		}
	}
}

func TestNewShaderPanics(t *testing.T) {
	for name, src := range map[string]string{
		"empty":       "",
		"no entry":    "struct A { x: f32, };",
		"bad include": "//@oxy:include light\n@fragment fn fs_main() {}",
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected a panic")
				}
			}()
			NewShader(name, ShaderTypeFragment, src)
		})
	}
}

func TestStructLayouts(t *testing.T) {
	src := `struct Outer { inner: Inner, scale: f32, };
struct Inner { axis: vec3<f32>, rows: array<vec4<f32>, 2>, };
// struct Ignored { x: f32, };`
	sizes := computeStructSizes(parseStructBlocks(stripComments(src)))
	if got := sizes["Inner"]; got != (wgslTypeLayout{48, 16}) {
		t.Errorf("Inner layout %+v, want {48 16}", got)
	}
	if got := sizes["Outer"]; got != (wgslTypeLayout{64, 16}) {
		t.Errorf("Outer layout %+v, want {64 16}", got)
	}
	if _, ok := sizes["Ignored"]; ok {
		t.Error("commented-out struct was parsed")
	}

	if got, ok := resolveTypeLayout("array<Inner>", sizes); !ok || got.size != 48 {
		t.Errorf("runtime array layout %+v %v, want one 48-byte stride", got, ok)
	}
	if _, ok := resolveTypeLayout("array<bool, 2>", sizes); ok {
		t.Error("unknown element type resolved")
	}
}

func TestVertexLayoutSkipsUnknownFormats(t *testing.T) {
	src := `struct Packed { @location(0) id: vec2<u32>, };
@vertex fn vs_main(in: Packed) -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }`
	if got := parseVertexLayouts(src); len(got) != 0 {
		t.Errorf("layouts %+v, want none", got)
	}
}
