package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormats lists the f32 vertex attribute types the quad shaders use.
var wgslVertexFormats = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
}

// wgslTextureDimensions maps sampled texture types to their view dimension.
var wgslTextureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_2d":       wgpu.TextureViewDimension2D,
	"texture_2d_array": wgpu.TextureViewDimension2DArray,
}

var (
	structRegex   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex  = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex skips leading attributes and captures the field name and its full type,
	// which may itself contain commas (array<T, N>).
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	entryRegexes = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
	}

	// bindingRegex captures group, binding, address space (empty for handles), name and type of
	// a resource declaration such as @group(1) @binding(0) var<uniform> camera: CameraUniform;
	bindingRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexLayouts builds one vertex buffer layout per vertex input struct, that is per
// struct with @location fields and no @builtin field. Structs with a field type that is not
// a vertex format are skipped.
//
// Parameters:
//   - source: WGSL source
//
// Returns:
//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by buffer slot, in declaration order
func parseVertexLayouts(source string) map[int][]wgpu.VertexBufferLayout {
	result := make(map[int][]wgpu.VertexBufferLayout)
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !ps.isVertexInput() {
			continue
		}
		if layout, ok := ps.vertexBufferLayout(); ok {
			result[len(result)] = []wgpu.VertexBufferLayout{layout}
		}
	}
	return result
}

// parseBindGroupLayouts turns every @group/@binding declaration into a layout entry visible to
// the given stage. Buffer entries get a MinBindingSize from the bound type; for a runtime-sized
// array that is one element.
//
// Parameters:
//   - source: WGSL source, already pre-processed
//   - visibility: stage flag set on every entry
//   - nonFiltering: classify samplers as non-filtering and f32 textures as unfilterable
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group, entries sorted by binding
//   - map[int]map[int]string: variable names keyed by group and binding
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage, nonFiltering bool) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	cleaned := stripComments(source)
	structs := computeStructSizes(parseStructBlocks(cleaned))

	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	for _, m := range bindingRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		typeName := strings.TrimSpace(m[5])

		entry := classifyResource(uint32(binding), visibility, strings.TrimSpace(m[3]), typeName, nonFiltering)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(typeName, structs); ok {
				entry.Buffer.MinBindingSize = layout.size
			}
		}
		groups[group] = append(groups[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = strings.TrimSpace(m[4])
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, names
}

// parseEntryPoint returns the name of the first function tagged for the shader's stage, or ""
// when there is none.
func parseEntryPoint(source string, shaderType ShaderType) string {
	re, ok := entryRegexes[shaderType]
	if !ok {
		return ""
	}
	if m := re.FindStringSubmatch(stripComments(source)); m != nil {
		return m[1]
	}
	return ""
}

func parseStructBlocks(source string) []parsedStruct {
	matches := structRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{name: m[1], fields: parseStructFields(m[2])})
	}
	return structs
}

func parseStructFields(body string) []parsedField {
	var fields []parsedField
	for _, part := range splitAtTopLevelCommas(body) {
		part = strings.TrimSpace(part)
		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		field := parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(part),
		}
		if lm := locationRegex.FindStringSubmatch(part); lm != nil {
			field.location, _ = strconv.Atoi(lm[1])
		}
		fields = append(fields, field)
	}
	return fields
}
