package volume

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/projection"
	"github.com/Carmen-Shannon/oxy-ct/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ct/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ct/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// GPU is the part of renderer.Renderer the GPU backend drives.
type GPU interface {
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	UnregisterPipeline(key string)
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, viewport common.Viewport, bindGroups []bind_group_provider.BindGroupProvider) error
}

// bindings holds the group and binding indices the fragment shader declares.
type bindings struct {
	projectionsGroup int
	images           int
	sampler          int
	transforms       int
	cameraGroup      int
	camera           int
}

// gpuBackend builds resource sets on a WebGPU renderer.
type gpuBackend struct {
	gpu      GPU
	vertex   shader.Shader
	fragment shader.Shader
	bindings bindings
	builds   atomic.Uint64
}

// NewGPUBackend creates a Backend that uploads scans to the GPU behind gpu.
// It panics if the embedded shaders do not declare the bindings the backend fills in.
//
// Parameters:
//   - gpu: the renderer to create resources on, usually a renderer.Renderer
//
// Returns:
//   - Backend: the GPU backend
func NewGPUBackend(gpu GPU) Backend {
	b := &gpuBackend{
		gpu:      gpu,
		vertex:   NewVertexShader(),
		fragment: NewFragmentShader(),
	}
	bs, err := resolveBindings(b.fragment)
	if err != nil {
		panic(fmt.Sprintf("volume: %v", err))
	}
	b.bindings = bs
	return b
}

// resolveBindings reads binding indices from the shader's @oxy: declarations.
func resolveBindings(s shader.Shader) (bindings, error) {
	find := func(arg shader.AnnotationArg) (shader.Annotation, error) {
		decl, ok := s.FindDeclaration(arg)
		if !ok || decl.Group == nil || decl.Binding == nil {
			return shader.Annotation{}, fmt.Errorf("shader %s declares no %s binding", s.Key(), arg)
		}
		return decl, nil
	}

	images, err := find(shader.AnnotationArgProjectionImages)
	if err != nil {
		return bindings{}, err
	}
	sampler, err := find(shader.AnnotationArgProjectionSampler)
	if err != nil {
		return bindings{}, err
	}
	transforms, err := find(shader.AnnotationArgProjection)
	if err != nil {
		return bindings{}, err
	}
	cam, err := find(shader.AnnotationArgCamera)
	if err != nil {
		return bindings{}, err
	}

	group := *images.Group
	if *sampler.Group != group || *transforms.Group != group {
		return bindings{}, errors.New("projection bindings must share one group")
	}
	if *cam.Group == group {
		return bindings{}, errors.New("camera must have its own group")
	}
	return bindings{
		projectionsGroup: group,
		images:           *images.Binding,
		sampler:          *sampler.Binding,
		transforms:       *transforms.Binding,
		cameraGroup:      *cam.Group,
		camera:           *cam.Binding,
	}, nil
}

func (b *gpuBackend) Build(in Input) (Resources, error) {
	if err := in.Validate(); err != nil {
		return nil, &ResourceError{Resource: "input", Err: err}
	}

	res := &gpuResources{
		gpu:         b.gpu,
		pipelineKey: fmt.Sprintf("volume_%d", b.builds.Add(1)),
		projections: bind_group_provider.NewBindGroupProvider("projections"),
		camera:      bind_group_provider.NewBindGroupProvider("camera"),
		quad:        bind_group_provider.NewBindGroupProvider("quad", bind_group_provider.WithIndexFormat(wgpu.IndexFormatUint16)),
		cameraBind:  b.bindings.camera,
	}
	built := false
	defer func() {
		if !built {
			res.Release()
		}
	}()

	p := pipeline.NewPipeline(res.pipelineKey,
		pipeline.WithVertexShader(b.vertex),
		pipeline.WithFragmentShader(b.fragment),
		// One screen quad; the ray march runs per fragment, so both faces must reach the shader.
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleList),
		pipeline.WithFrontFace(wgpu.FrontFaceCCW),
		pipeline.WithCullMode(wgpu.CullModeNone),
		// Hits are opaque and misses discard, so the target keeps whatever was there before.
		pipeline.WithBlendState(pipeline.ReplaceBlendState()),
		pipeline.WithWriteMask(wgpu.ColorWriteMaskAll),
	)
	if err := b.gpu.RegisterPipelines(p); err != nil {
		return nil, &ResourceError{Resource: "render pipeline", Err: err}
	}
	res.registered = true

	vertices, indices := QuadVertexBytes(), QuadIndexBytes()
	if err := b.gpu.InitMeshBuffers(res.quad, vertices, indices, len(QuadIndices)); err != nil {
		return nil, &ResourceError{Resource: "quad buffers", Err: err}
	}

	bs := b.bindings
	if err := b.gpu.InitTextureView(res.projections, bs.images, TextureStagingData(in.Scan)); err != nil {
		return nil, &ResourceError{Resource: "projection texture", Err: err}
	}
	if err := b.gpu.InitSampler(res.projections, bs.sampler, common.NearestClampSampler()); err != nil {
		return nil, &ResourceError{Resource: "projection sampler", Err: err}
	}

	transforms := projection.MarshalAll(in.Transforms)
	sizes := map[int]uint64{bs.transforms: uint64(len(transforms))}
	if err := b.gpu.InitBindGroup(res.projections, b.fragment.BindGroupLayoutDescriptor(bs.projectionsGroup), nil, sizes); err != nil {
		return nil, &ResourceError{Resource: "projection bind group", Err: err}
	}
	if err := b.gpu.InitBindGroup(res.camera, b.fragment.BindGroupLayoutDescriptor(bs.cameraGroup), nil, nil); err != nil {
		return nil, &ResourceError{Resource: "camera bind group", Err: err}
	}

	b.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: res.projections,
		Binding:  bs.transforms,
		Data:     transforms,
	}})

	res.groups = make([]bind_group_provider.BindGroupProvider, max(bs.projectionsGroup, bs.cameraGroup)+1)
	res.groups[bs.projectionsGroup] = res.projections
	res.groups[bs.cameraGroup] = res.camera

	built = true
	common.Logger().Debug("volume resources built",
		"scan", in.Scan.Name,
		"projections", in.Scan.Count(),
		"pipeline", res.pipelineKey,
	)
	return res, nil
}

// gpuResources is one scan's arena of GPU objects.
type gpuResources struct {
	gpu         GPU
	pipelineKey string
	registered  bool

	projections bind_group_provider.BindGroupProvider
	camera      bind_group_provider.BindGroupProvider
	quad        bind_group_provider.BindGroupProvider
	groups      []bind_group_provider.BindGroupProvider
	cameraBind  int

	releaseOnce sync.Once
}

func (r *gpuResources) UpdateCamera(uniform camera.GPUCameraUniform) {
	r.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: r.camera,
		Binding:  r.cameraBind,
		Data:     uniform.Marshal(),
	}})
}

func (r *gpuResources) Draw(viewport common.Viewport) error {
	return r.gpu.DrawCall(r.pipelineKey, r.quad, viewport, r.groups)
}

func (r *gpuResources) Release() {
	r.releaseOnce.Do(func() {
		if r.registered {
			r.gpu.UnregisterPipeline(r.pipelineKey)
		}
		r.quad.Release()
		r.camera.Release()
		r.projections.Release()
	})
}
