package shader

import (
	"strings"
	"testing"
)

func TestPreProcessorConditionals(t *testing.T) {
	src := strings.Join([]string{
		"a",
		"@oxy:ifdef LIT",
		"lit",
		"@oxy:ifndef FLAT",
		"smooth",
		"@oxy:else",
		"flat",
		"@oxy:endif",
		"@oxy:else",
		"unlit",
		"@oxy:endif",
		"b",
	}, "\n")

	tests := []struct {
		name    string
		defines map[string]string
		want    string
	}{
		{"no defines", nil, "a\nunlit\nb"},
		{"lit", map[string]string{"LIT": ""}, "a\nlit\nsmooth\nb"},
		{"lit flat", map[string]string{"LIT": "", "FLAT": "1"}, "a\nlit\nflat\nb"},
		{"flat only", map[string]string{"FLAT": "1"}, "a\nunlit\nb"},
	}
	pp := NewPreProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pp.Process(src, tt.defines)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreProcessorSubstitution(t *testing.T) {
	pp := NewPreProcessor()
	got, err := pp.Process("let c = ${BACKDROP_COLOR};", map[string]string{"BACKDROP_COLOR": "vec4(0.000, 0.000, 0.000, 1.000)"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got != "let c = vec4(0.000, 0.000, 0.000, 1.000);" {
		t.Fatalf("got %q", got)
	}
	if _, err := pp.Process("let c = ${MISSING};", nil); err == nil {
		t.Fatal("expected an error for an undefined reference")
	}
}

func TestPreProcessorIncludeOnce(t *testing.T) {
	pp := NewPreProcessor()
	got, err := pp.Process("@oxy:include camera\n@oxy:include camera", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n := strings.Count(got, "struct CameraUniform"); n != 1 {
		t.Fatalf("CameraUniform emitted %d times, want 1", n)
	}
}

func TestPreProcessorErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown include", "@oxy:include nope"},
		{"unknown directive", "@oxy:pragma once"},
		{"missing argument", "@oxy:ifdef"},
		{"stray else", "@oxy:else"},
		{"stray endif", "@oxy:endif"},
		{"unterminated", "@oxy:ifdef X\nfoo"},
	}
	pp := NewPreProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := pp.Process(tt.src, nil); err == nil {
				t.Fatalf("expected an error for %q", tt.src)
			}
		})
	}
}
