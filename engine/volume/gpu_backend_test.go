package volume

import (
	"errors"
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ct/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeGPU records the calls the GPU backend makes and can fail one of them.
type fakeGPU struct {
	failOn string

	registered   []string
	pipelines    []pipeline.Pipeline
	unregistered []string
	textures     []common.TextureStagingData
	sizes        []map[int]uint64
	writes       []bind_group_provider.BufferWrite
	draws        int
	lastGroups   []bind_group_provider.BindGroupProvider
	lastMesh     bind_group_provider.BindGroupProvider
}

var errInjected = errors.New("injected failure")

func (f *fakeGPU) fail(op string) error {
	if f.failOn == op {
		return errInjected
	}
	return nil
}

func (f *fakeGPU) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	if err := f.fail("pipeline"); err != nil {
		return err
	}
	for _, p := range pipelines {
		f.registered = append(f.registered, p.PipelineKey())
		f.pipelines = append(f.pipelines, p)
	}
	return nil
}

func (f *fakeGPU) UnregisterPipeline(key string) {
	f.unregistered = append(f.unregistered, key)
}

func (f *fakeGPU) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if err := f.fail("mesh"); err != nil {
		return err
	}
	provider.SetIndexCount(indexCount)
	return nil
}

func (f *fakeGPU) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, sizes map[int]uint64) error {
	if err := f.fail("bind group " + provider.Label()); err != nil {
		return err
	}
	f.sizes = append(f.sizes, sizes)
	return nil
}

func (f *fakeGPU) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	if err := f.fail("texture"); err != nil {
		return err
	}
	f.textures = append(f.textures, stagingData)
	return nil
}

func (f *fakeGPU) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return f.fail("sampler")
}

func (f *fakeGPU) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeGPU) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, viewport common.Viewport, bindGroups []bind_group_provider.BindGroupProvider) error {
	f.draws++
	f.lastMesh = meshProvider
	f.lastGroups = bindGroups
	return nil
}

func TestResolveBindings(t *testing.T) {
	bs, err := resolveBindings(NewFragmentShader())
	if err != nil {
		t.Fatal(err)
	}
	want := bindings{projectionsGroup: 0, images: 0, sampler: 1, transforms: 2, cameraGroup: 1, camera: 0}
	if bs != want {
		t.Errorf("bindings = %+v, want %+v", bs, want)
	}
}

func TestGPUBackendBuild(t *testing.T) {
	gpu := &fakeGPU{}
	b := NewGPUBackend(gpu)
	in := testInput(testScan(4, 8, opaque))

	res, err := b.Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(gpu.registered) != 1 {
		t.Fatalf("registered %v", gpu.registered)
	}
	p := gpu.pipelines[0]
	if p.Topology() != wgpu.PrimitiveTopologyTriangleList || p.FrontFace() != wgpu.FrontFaceCCW || p.CullMode() != wgpu.CullModeNone {
		t.Errorf("pipeline primitive state %v %v %v", p.Topology(), p.FrontFace(), p.CullMode())
	}
	if p.WriteMask() != wgpu.ColorWriteMaskAll || p.BlendState().Color.DstFactor != wgpu.BlendFactorZero {
		t.Errorf("pipeline blend %+v mask %v", p.BlendState(), p.WriteMask())
	}
	if len(gpu.textures) != 1 || gpu.textures[0].Format != wgpu.TextureFormatR32Float || gpu.textures[0].Layers != 4 {
		t.Errorf("texture staging %+v", gpu.textures)
	}
	if len(gpu.sizes) != 2 || gpu.sizes[0][2] != 4*96 {
		t.Errorf("projection buffer sizes %v", gpu.sizes)
	}
	if len(gpu.writes) != 1 || len(gpu.writes[0].Data) != 4*96 || gpu.writes[0].Binding != 2 {
		t.Fatalf("transform upload %+v", gpu.writes)
	}

	res.UpdateCamera(camera.NewCamera().Uniform(0, 0.5))
	if len(gpu.writes) != 2 || len(gpu.writes[1].Data) != 64 || gpu.writes[1].Provider.Label() != "camera" {
		t.Errorf("camera write %+v", gpu.writes)
	}

	if err := res.Draw(common.Viewport{Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}
	if gpu.draws != 1 || gpu.lastMesh.IndexCount() != 6 || gpu.lastMesh.IndexFormat() != wgpu.IndexFormatUint16 {
		t.Errorf("draw call mesh %v count %d", gpu.lastMesh, gpu.draws)
	}
	if len(gpu.lastGroups) != 2 || gpu.lastGroups[0].Label() != "projections" || gpu.lastGroups[1].Label() != "camera" {
		t.Errorf("bind groups out of order")
	}

	res.Release()
	res.Release()
	if len(gpu.unregistered) != 1 || gpu.unregistered[0] != gpu.registered[0] {
		t.Errorf("unregistered %v, registered %v", gpu.unregistered, gpu.registered)
	}
}

func TestGPUBackendUniquePipelines(t *testing.T) {
	gpu := &fakeGPU{}
	b := NewGPUBackend(gpu)
	in := testInput(testScan(2, 8, opaque))
	for range 2 {
		if _, err := b.Build(in); err != nil {
			t.Fatal(err)
		}
	}
	if gpu.registered[0] == gpu.registered[1] {
		t.Errorf("pipeline key %q reused", gpu.registered[0])
	}
}

func TestGPUBackendBuildFailureReleases(t *testing.T) {
	for _, op := range []string{"pipeline", "mesh", "texture", "sampler", "bind group projections", "bind group camera"} {
		t.Run(op, func(t *testing.T) {
			gpu := &fakeGPU{failOn: op}
			res, err := NewGPUBackend(gpu).Build(testInput(testScan(2, 8, opaque)))
			if res != nil {
				t.Error("partial resources returned")
			}
			var rerr *ResourceError
			if !errors.As(err, &rerr) {
				t.Fatalf("error %v is not a *ResourceError", err)
			}
			if !errors.Is(err, errInjected) {
				t.Errorf("error %v does not wrap the cause", err)
			}
			if len(gpu.unregistered) != len(gpu.registered) {
				t.Errorf("registered %v but unregistered %v", gpu.registered, gpu.unregistered)
			}
		})
	}
}

func TestGPUBackendRejectsInconsistentScan(t *testing.T) {
	gpu := &fakeGPU{}
	s := testScan(2, 8, opaque)
	s.Images[1].Width = 4
	_, err := NewGPUBackend(gpu).Build(testInput(s))
	var rerr *ResourceError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a *ResourceError, got %v", err)
	}
	if len(gpu.registered) != 0 {
		t.Error("no GPU work should happen for an invalid scan")
	}
}

func TestSoftwareBackend(t *testing.T) {
	background := color.RGBA{A: 255}
	canvas := NewCanvas(16, 16, background)
	res, err := NewSoftwareBackend(canvas.Image()).Build(testInput(testScan(4, 32, opaque)))
	if err != nil {
		t.Fatal(err)
	}

	res.UpdateCamera(camera.NewCamera().Uniform(0, 0.5))
	if err := canvas.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := res.Draw(canvas.Viewport()); err != nil {
		t.Fatal(err)
	}
	canvas.EndFrame()
	canvas.Present()

	if got := canvas.Image().RGBAAt(8, 8); got.R != 255 {
		t.Errorf("center pixel = %v, want white", got)
	}
	if canvas.Frames() != 1 {
		t.Errorf("frames = %d", canvas.Frames())
	}

	res.Release()
	if err := canvas.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := res.Draw(canvas.Viewport()); err != nil {
		t.Fatal(err)
	}
	if got := canvas.Image().RGBAAt(8, 8); got != background {
		t.Errorf("released resources should not draw, got %v", got)
	}
}
