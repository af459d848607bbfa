package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslLayouts holds size and alignment of the host-shareable types the camera and projection
// structs are built from. See https://www.w3.org/TR/WGSL/#alignment-and-size.
var wgslLayouts = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec3<f32>":   {12, 16},
	"vec4<f32>":   {16, 16},
	"mat3x2<f32>": {24, 8},
	"mat3x3<f32>": {48, 16},
}

// roundUpAlign rounds value up to a multiple of the power-of-two alignment.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout looks a type up among the primitives and the known structs. array<T, N>
// resolves to N strides of T; a runtime-sized array<T> resolves to a single stride, the
// smallest buffer that can back it.
//
// Parameters:
//   - typeName: WGSL type, e.g. "CameraUniform" or "array<vec4<f32>, 2>"
//   - known: struct layouts computed so far
//
// Returns:
//   - wgslTypeLayout: size and alignment
//   - bool: false for unknown types
func resolveTypeLayout(typeName string, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslLayouts[typeName]; ok {
		return layout, true
	}
	if layout, ok := known[typeName]; ok {
		return layout, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return wgslTypeLayout{}, false
	}
	elem, count, sized := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	elemLayout, ok := resolveTypeLayout(strings.TrimSpace(elem), known)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elemLayout.align, elemLayout.size)
	if !sized {
		return wgslTypeLayout{stride, elemLayout.align}, true
	}
	n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{n * stride, elemLayout.align}, true
}

// layout places each field at its aligned offset and rounds the total up to the largest
// alignment. Builtin fields are not part of any buffer and are skipped.
func (ps parsedStruct) layout(known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(f.typeName, known)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		align = max(align, fl.align)
	}
	return wgslTypeLayout{roundUpAlign(align, offset), align}, true
}

// computeStructSizes resolves every struct whose fields are known, repeating until a pass
// resolves nothing new so structs may refer to structs declared after them.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	for progress := true; progress; {
		progress = false
		for _, ps := range structs {
			if _, done := resolved[ps.name]; done {
				continue
			}
			if layout, ok := ps.layout(resolved); ok {
				resolved[ps.name] = layout
				progress = true
			}
		}
	}
	return resolved
}

// classifyResource builds the layout entry for one resource declaration. Buffers are told
// apart by address space and handles by type. With nonFiltering set, samplers are
// non-filtering and f32 textures unfilterable-float, which is what WebGPU requires to sample
// r32float textures without the float32-filterable feature.
//
// Parameters:
//   - binding: the @binding index
//   - visibility: stage flag for the entry
//   - addressSpace: "uniform", "storage, read" or "storage, read_write"; empty for handles
//   - typeName: the declared type
//   - nonFiltering: see above
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the populated entry
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string, nonFiltering bool) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.Contains(addressSpace, "read_write"):
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case typeName == "sampler" && nonFiltering:
		entry.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case strings.HasPrefix(typeName, "texture_"):
		base, param, _ := strings.Cut(strings.TrimSuffix(typeName, ">"), "<")
		entry.Texture.ViewDimension = wgslTextureDimensions[base]
		if strings.TrimSpace(param) == "f32" {
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			if nonFiltering {
				entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
			}
		}
	}
	return entry
}

// stripComments drops // comments, the only kind the shaders and the annotation syntax use.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	for line := range strings.SplitSeq(source, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// isVertexInput reports whether the struct feeds vertex attributes: at least one @location
// field and no @builtin, which rules out the vertex output struct.
func (ps parsedStruct) isVertexInput() bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		hasLocation = hasLocation || f.location >= 0
	}
	return hasLocation
}

// vertexBufferLayout packs the fields tightly in declaration order.
func (ps parsedStruct) vertexBufferLayout() (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(ps.fields))
	var offset uint64
	for _, f := range ps.fields {
		info, ok := wgslVertexFormats[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{Format: info.format, Offset: offset, ShaderLocation: uint32(f.location)})
		offset += info.size
	}
	return wgpu.VertexBufferLayout{ArrayStride: offset, StepMode: wgpu.VertexStepModeVertex, Attributes: attrs}, true
}

// splitAtTopLevelCommas splits a struct body at commas outside angle brackets, so
// array<vec4<f32>, 2> stays one field.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
