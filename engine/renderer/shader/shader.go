package shader

import (
	"fmt"
	"os"
)

// ShaderType identifies the pipeline stage a shader function set belongs to.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment stage, paired with a vertex shader.
	ShaderTypeFragment

	// ShaderTypeLibrary holds declarations and helper functions with no entry point.
	ShaderTypeLibrary
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	case ShaderTypeLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string
}

// Shader is one named piece of WGSL source that a Program composes into a full module.
// The source may contain @oxy: annotations which are resolved when the Program is composed.
type Shader interface {
	// Key retrieves the unique identifier for this shader within a Program.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the raw, unprocessed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader contributes to.
	//
	// Returns:
	//   - ShaderType: the stage
	ShaderType() ShaderType

	// EntryPoint returns the entry point function name declared for this shader's stage,
	// or an empty string for library shaders.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string
}

var _ Shader = &shader{}

// NewShader creates a Shader from WGSL source. It panics when the source is empty or a
// vertex/fragment/compute shader declares no entry point for its stage, as those are
// programming errors in embedded assets.
//
// Parameters:
//   - key: a unique identifier for the shader within a Program
//   - shaderType: the stage this source contributes to
//   - source: the WGSL source
//
// Returns:
//   - Shader: the new shader
func NewShader(key string, shaderType ShaderType, source string) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have a non-empty source", key))
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
	if shaderType != ShaderTypeLibrary {
		s.entryPoint = parseEntryPoint(source, shaderType)
		if s.entryPoint == "" {
			panic(fmt.Sprintf("shader: %s declares no %s entry point", key, shaderType))
		}
	}
	return s
}

// NewShaderFromPath reads WGSL source from disk and creates a Shader from it.
//
// Parameters:
//   - key: a unique identifier for the shader within a Program
//   - shaderType: the stage this source contributes to
//   - path: the file to read
//
// Returns:
//   - Shader: the new shader
//   - error: an error if the file cannot be read
func NewShaderFromPath(key string, shaderType ShaderType, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to read source file %q: %w", path, err)
	}
	return NewShader(key, shaderType, string(data)), nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}
