package shader

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// Program is a named, composable set of shader functions installed on a render state.
// Functions are kept in insertion order and concatenated into one WGSL module; WGSL
// module-scope declarations are order independent, so functions may reference each other freely.
type Program struct {
	mu *sync.Mutex

	name      string
	functions []Shader
	pp        PreProcessor
}

// NewProgram creates an empty Program.
//
// Parameters:
//   - name: the program name, used as the shader module label
//
// Returns:
//   - *Program: the new program
func NewProgram(name string) *Program {
	return &Program{
		mu:   &sync.Mutex{},
		name: name,
		pp:   NewPreProcessor(),
	}
}

// Name returns the program name.
func (p *Program) Name() string {
	return p.name
}

// SetFunction adds a shader function, replacing any existing function with the same key in place.
//
// Parameters:
//   - s: the shader to add
func (p *Program) SetFunction(s Shader) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, f := range p.functions {
		if f.Key() == s.Key() {
			p.functions[i] = s
			return
		}
	}
	p.functions = append(p.functions, s)
}

// RemoveFunction removes the function with the given key, if present.
func (p *Program) RemoveFunction(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, f := range p.functions {
		if f.Key() == key {
			p.functions = append(p.functions[:i], p.functions[i+1:]...)
			return
		}
	}
}

// Has reports whether a function with the given key is installed.
func (p *Program) Has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.functions {
		if f.Key() == key {
			return true
		}
	}
	return false
}

// Functions returns the installed functions in insertion order.
func (p *Program) Functions() []Shader {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Shader, len(p.functions))
	copy(out, p.functions)
	return out
}

// EntryPoint returns the entry point of the last installed function of the given stage.
//
// Parameters:
//   - stage: ShaderTypeVertex, ShaderTypeFragment or ShaderTypeCompute
//
// Returns:
//   - string: the entry point name, or empty if the program has no function for that stage
func (p *Program) EntryPoint(stage ShaderType) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.functions) - 1; i >= 0; i-- {
		if p.functions[i].ShaderType() == stage {
			return p.functions[i].EntryPoint()
		}
	}
	return ""
}

// Compose concatenates all functions and resolves @oxy: directives against the given defines.
//
// Parameters:
//   - defines: active define names and values
//
// Returns:
//   - string: the complete WGSL module
//   - error: an error if pre-processing fails
func (p *Program) Compose(defines map[string]string) (string, error) {
	p.mu.Lock()
	parts := make([]string, 0, len(p.functions))
	for _, f := range p.functions {
		parts = append(parts, f.Source())
	}
	p.mu.Unlock()

	src, err := p.pp.Process(strings.Join(parts, "\n"), defines)
	if err != nil {
		return "", fmt.Errorf("program %s: %w", p.name, err)
	}
	return src, nil
}

// Validate composes the program and compiles it with naga to catch WGSL errors before
// the module reaches a GPU device.
//
// Parameters:
//   - defines: active define names and values
//
// Returns:
//   - error: a pre-processing or compilation error
func (p *Program) Validate(defines map[string]string) error {
	src, err := p.Compose(defines)
	if err != nil {
		return err
	}
	if _, err := naga.Compile(src); err != nil {
		return fmt.Errorf("program %s: failed to compile shader: %w", p.name, err)
	}
	return nil
}

// Module composes the program into a WGPU shader module descriptor.
//
// Parameters:
//   - defines: active define names and values
//
// Returns:
//   - *wgpu.ShaderModuleDescriptor: the module descriptor labelled with the program name
//   - error: an error if pre-processing fails
func (p *Program) Module(defines map[string]string) (*wgpu.ShaderModuleDescriptor, error) {
	src, err := p.Compose(defines)
	if err != nil {
		return nil, err
	}
	return &wgpu.ShaderModuleDescriptor{
		Label: p.name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src,
		},
	}, nil
}
