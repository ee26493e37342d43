package loader

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// loaderBackend decodes a scene description format into a Document.
type loaderBackend interface {
	// Decode reads one scene document.
	//
	// Parameters:
	//   - r: the reader providing the document
	//
	// Returns:
	//   - *Document: the decoded document
	//   - error: error if the document is malformed
	Decode(r io.Reader) (*Document, error)
}

// yamlLoaderBackend decodes YAML scene documents. Unknown keys are rejected so typos in
// a scene file surface as errors instead of silently ignored settings.
type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() loaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty scene document")
		}
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	return &doc, nil
}
