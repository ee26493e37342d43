package loader

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Document is the decoded form of a scene description file.
type Document struct {
	Name    string      `yaml:"name"`
	Camera  CameraDoc   `yaml:"camera"`
	Picker  *PickerDoc  `yaml:"picker"`
	Objects []ObjectDoc `yaml:"objects"`
}

// CameraDoc describes the main camera. Zero values take the camera defaults.
type CameraDoc struct {
	Eye        Vec3    `yaml:"eye"`
	Target     Vec3    `yaml:"target"`
	Fov        float32 `yaml:"fov"` // degrees
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	ClearColor *Color  `yaml:"clear_color"`
}

// PickerDoc enables object picking on the scene. Omitting it disables picking.
type PickerDoc struct {
	RTTSize int `yaml:"rtt_size"`
	Buffer  int `yaml:"buffer"`
}

// ObjectDoc describes one object and its children. Position, rotation and scale place the
// object under its parent.
type ObjectDoc struct {
	Name        string      `yaml:"name"`
	Shape       string      `yaml:"shape"` // box, quad, text or group
	Text        string      `yaml:"text"`
	Position    Vec3        `yaml:"position"`
	Rotation    Vec3        `yaml:"rotation"` // degrees about x, y, z
	Scale       *Vec3       `yaml:"scale"`
	Color       *Color      `yaml:"color"`
	Transparent bool        `yaml:"transparent"`
	Pickable    *bool       `yaml:"pickable"`
	TextStyle   TextDoc     `yaml:",inline"`
	Children    []ObjectDoc `yaml:"children"`
}

// TextDoc holds the settings of text objects.
type TextDoc struct {
	CharacterSize float32 `yaml:"character_size"`
	Resolution    int     `yaml:"resolution"`
	Backdrop      string  `yaml:"backdrop"`
	BackdropColor *Color  `yaml:"backdrop_color"`
}

// Vec3 is a three component vector written as a YAML sequence.
type Vec3 [3]float32

// Color is an RGBA color written either as a sequence of three or four floats in [0, 1] or
// as a hex string such as "#ff8000".
type Color [4]float32

func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		cf, err := colorful.Hex(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: invalid color %q: %w", node.Line, node.Value, err)
		}
		*c = Color{float32(cf.R), float32(cf.G), float32(cf.B), 1}
		return nil
	case yaml.SequenceNode:
		var v []float32
		if err := node.Decode(&v); err != nil {
			return err
		}
		if len(v) != 3 && len(v) != 4 {
			return fmt.Errorf("line %d: color needs 3 or 4 components, got %d", node.Line, len(v))
		}
		*c = Color{v[0], v[1], v[2], 1}
		if len(v) == 4 {
			c[3] = v[3]
		}
		return nil
	}
	return fmt.Errorf("line %d: color must be a hex string or a sequence", node.Line)
}

func (c *Color) rgba(fallback [4]float32) [4]float32 {
	if c == nil {
		return fallback
	}
	return *c
}
