package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormatInfo holds the wgpu vertex format and its byte size for offset calculation.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslVertexFormatMap maps WGSL type names to vertex formats.
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
}

// wgslTypeLayout is the size and alignment of a host-shareable WGSL type.
type wgslTypeLayout struct {
	size, align uint64
}

// wgslPrimitiveLayoutMap covers the types used by uniform structs in the engine's shaders.
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"u32":         {4, 4},
	"i32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec3<f32>":   {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4<u32>":   {16, 16},
	"mat4x4<f32>": {64, 16},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes.
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// fieldRegex captures a field's name and type after any attributes.
	fieldRegex = regexp.MustCompile(`^(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*(.+)$`)

	entryRegex = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
		ShaderTypeCompute:  regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`),
	}

	// vertexParamRegex captures the input struct type of a vertex entry point.
	vertexParamRegex = regexp.MustCompile(`(?s)@vertex\s+fn\s+\w+\s*\(\s*\w+\s*:\s*(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, name and type of a resource.
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	lineCommentRegex = regexp.MustCompile(`//[^\n]*`)
)

// parsedField is a single struct member.
type parsedField struct {
	name     string
	typeName string
	location int
}

// parsedStruct is a struct block extracted from WGSL source.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// parseEntryPoint extracts the entry point function name for a stage, or "" if none is declared.
func parseEntryPoint(source string, shaderType ShaderType) string {
	re, ok := entryRegex[shaderType]
	if !ok {
		return ""
	}
	if m := re.FindStringSubmatch(lineCommentRegex.ReplaceAllString(source, "")); m != nil {
		return m[1]
	}
	return ""
}

// parseStructBlocks finds all struct blocks in comment-free source.
func parseStructBlocks(source string) map[string]parsedStruct {
	out := make(map[string]parsedStruct)
	for _, m := range structBlockRegex.FindAllStringSubmatch(source, -1) {
		ps := parsedStruct{name: m[1]}
		for _, raw := range strings.Split(m[2], ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			fm := fieldRegex.FindStringSubmatch(raw)
			if fm == nil {
				continue
			}
			f := parsedField{name: fm[1], typeName: strings.TrimSpace(fm[2]), location: -1}
			if lm := locationRegex.FindStringSubmatch(raw); lm != nil {
				f.location, _ = strconv.Atoi(lm[1])
			}
			ps.fields = append(ps.fields, f)
		}
		out[ps.name] = ps
	}
	return out
}

// ParseVertexLayout builds the interleaved vertex buffer layout consumed by the vertex entry
// point of a composed module. Attributes are packed in @location order.
//
// Parameters:
//   - source: the composed WGSL module
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for vertex buffer slot 0
//   - bool: false if no vertex entry point or input struct could be found
func ParseVertexLayout(source string) (wgpu.VertexBufferLayout, bool) {
	cleaned := lineCommentRegex.ReplaceAllString(source, "")
	m := vertexParamRegex.FindStringSubmatch(cleaned)
	if m == nil {
		return wgpu.VertexBufferLayout{}, false
	}
	ps, ok := parseStructBlocks(cleaned)[m[1]]
	if !ok {
		return wgpu.VertexBufferLayout{}, false
	}
	fields := slices.DeleteFunc(slices.Clone(ps.fields), func(f parsedField) bool { return f.location < 0 })
	slices.SortFunc(fields, func(a, b parsedField) int { return a.location - b.location })

	var offset uint64
	attrs := make([]wgpu.VertexAttribute, 0, len(fields))
	for _, f := range fields {
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// ParseBindGroupLayouts extracts @group/@binding resource declarations from a composed module.
// Entries are visible to both vertex and fragment stages. Uniform buffer entries carry the
// bound struct's size as MinBindingSize.
//
// Parameters:
//   - source: the composed WGSL module
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func ParseBindGroupLayouts(source string) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	cleaned := lineCommentRegex.ReplaceAllString(source, "")
	structs := parseStructBlocks(cleaned)
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

	for _, m := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		addressSpace := strings.TrimSpace(m[3])
		typeName := strings.TrimSpace(m[5])

		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}
		switch {
		case addressSpace == "uniform":
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
			if l, ok := typeLayout(typeName, structs); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		case strings.HasPrefix(addressSpace, "storage"):
			t := wgpu.BufferBindingTypeReadOnlyStorage
			if strings.Contains(addressSpace, "read_write") {
				t = wgpu.BufferBindingTypeStorage
			}
			entry.Buffer = wgpu.BufferBindingLayout{Type: t}
		case strings.HasPrefix(typeName, "texture_2d"):
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case typeName == "sampler":
			entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		}
		groups[group] = append(groups[group], entry)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = strings.TrimSpace(m[4])
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int { return int(a.Binding) - int(b.Binding) })
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return out, names
}

// typeLayout resolves the WGSL host-shareable layout of a type, recursing into structs.
func typeLayout(typeName string, structs map[string]parsedStruct) (wgslTypeLayout, bool) {
	if l, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return l, true
	}
	ps, ok := structs[typeName]
	if !ok {
		return wgslTypeLayout{}, false
	}
	var size, align uint64 = 0, 1
	for _, f := range ps.fields {
		l, ok := typeLayout(f.typeName, structs)
		if !ok {
			return wgslTypeLayout{}, false
		}
		size = roundUp(l.align, size) + l.size
		align = max(align, l.align)
	}
	return wgslTypeLayout{size: roundUp(align, size), align: align}, true
}

func roundUp(align, v uint64) uint64 {
	return (v + align - 1) / align * align
}
