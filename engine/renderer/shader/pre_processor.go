// pre_processor.go implements the Oxy WGSL pre-processor. WGSL has no preprocessor of its own,
// so programs are written with @oxy: directive lines that are resolved against the define set of
// the render state before the module is handed to the GPU:
//
//   - @oxy:include <name> injects a registered snippet, at most once per module
//   - @oxy:ifdef / @oxy:ifndef / @oxy:else / @oxy:endif select lines by define presence
//   - ${NAME} anywhere in a kept line is replaced with the define's value
package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// defineRefRegex matches ${NAME} define references.
var defineRefRegex = regexp.MustCompile(`\$\{(\w+)\}`)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// includes maps include names to their WGSL snippets.
	includes map[string]string
}

// PreProcessor resolves @oxy: directives in WGSL source against a define set.
type PreProcessor interface {
	// Process resolves all directives in source. Includes already emitted earlier in the same
	// call are skipped, so composed programs can include a snippet from several functions.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//   - defines: the active defines and their values
	//
	// Returns:
	//   - string: the resolved WGSL source
	//   - error: an error on unknown includes, unbalanced conditionals or undefined ${NAME} references
	Process(source string, defines map[string]string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's shared WGSL snippets registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		includes: map[string]string{
			IncludeCamera: cameraUniformSource,
			IncludeDraw:   drawUniformSource,
		},
	}
}

// condFrame tracks one open conditional block.
type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	line         int
}

func (p *preProcessor) Process(source string, defines map[string]string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[string]bool)
	var conds []condFrame

	active := func() bool {
		return len(conds) == 0 || conds[len(conds)-1].active
	}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			if !active() {
				continue
			}
			resolved, err := substituteDefines(line, defines, i+1)
			if err != nil {
				return "", err
			}
			out = append(out, resolved)
			continue
		}

		switch a.Type {
		case annotationTypeIfdef, annotationTypeIfndef:
			_, has := defines[a.Arg]
			cond := has == (a.Type == annotationTypeIfdef)
			parent := active()
			conds = append(conds, condFrame{parentActive: parent, taken: cond, active: parent && cond, line: a.Line})
		case annotationTypeElse:
			if len(conds) == 0 {
				return "", fmt.Errorf("line %d: @oxy:else without @oxy:ifdef", a.Line)
			}
			top := &conds[len(conds)-1]
			top.active = top.parentActive && !top.taken
			top.taken = true
		case annotationTypeEndif:
			if len(conds) == 0 {
				return "", fmt.Errorf("line %d: @oxy:endif without @oxy:ifdef", a.Line)
			}
			conds = conds[:len(conds)-1]
		case annotationTypeInclude:
			if !active() || included[a.Arg] {
				continue
			}
			src, ok := p.includes[a.Arg]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", a.Line, a.Arg)
			}
			included[a.Arg] = true
			out = append(out, src)
		}
	}
	if len(conds) > 0 {
		return "", fmt.Errorf("line %d: unterminated conditional block", conds[len(conds)-1].line)
	}
	return strings.Join(out, "\n"), nil
}

// substituteDefines replaces ${NAME} references in a line with define values.
func substituteDefines(line string, defines map[string]string, lineNum int) (string, error) {
	if !strings.Contains(line, "${") {
		return line, nil
	}
	var missing string
	out := defineRefRegex.ReplaceAllStringFunc(line, func(ref string) string {
		name := defineRefRegex.FindStringSubmatch(ref)[1]
		v, ok := defines[name]
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("line %d: reference to undefined define %q", lineNum, missing)
	}
	return out, nil
}
