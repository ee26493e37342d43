package shader

import (
	"fmt"
	"strings"
)

// annotationPrefix marks a pre-processor directive line in WGSL source.
const annotationPrefix = "@oxy:"

// AnnotationType names a pre-processor directive.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered WGSL snippet once per composed module.
	// Syntax: @oxy:include <name>
	annotationTypeInclude AnnotationType = "include"

	// annotationTypeIfdef keeps the following lines when the define is active.
	// Syntax: @oxy:ifdef <DEFINE>
	annotationTypeIfdef AnnotationType = "ifdef"

	// annotationTypeIfndef keeps the following lines when the define is not active.
	// Syntax: @oxy:ifndef <DEFINE>
	annotationTypeIfndef AnnotationType = "ifndef"

	// annotationTypeElse flips the innermost conditional block.
	annotationTypeElse AnnotationType = "else"

	// annotationTypeEndif closes the innermost conditional block.
	annotationTypeEndif AnnotationType = "endif"
)

// argCount is the number of arguments each directive takes.
var argCount = map[AnnotationType]int{
	annotationTypeInclude: 1,
	annotationTypeIfdef:   1,
	annotationTypeIfndef:  1,
	annotationTypeElse:    0,
	annotationTypeEndif:   0,
}

// Annotation is a parsed pre-processor directive.
type Annotation struct {
	Type AnnotationType
	Arg  string
	Line int
}

// parseAnnotation parses a single source line. It returns nil, nil when the line is not a directive.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number used in error messages
//
// Returns:
//   - *Annotation: the parsed directive, or nil
//   - error: an error if the directive is unknown or malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	body, ok := strings.CutPrefix(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, fmt.Errorf("line %d: empty annotation", lineNum)
	}
	t := AnnotationType(fields[0])
	want, known := argCount[t]
	if !known {
		return nil, fmt.Errorf("line %d: unknown annotation %q", lineNum, fields[0])
	}
	if len(fields)-1 != want {
		return nil, fmt.Errorf("line %d: @oxy:%s takes %d argument(s), got %d", lineNum, t, want, len(fields)-1)
	}
	a := &Annotation{Type: t, Line: lineNum}
	if want == 1 {
		a.Arg = fields[1]
	}
	return a, nil
}
