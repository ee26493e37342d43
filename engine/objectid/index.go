package objectid

import (
	_ "embed"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

// uniformName is the per-object uniform carrying the identifier. Declared by object_index.wgsl.
const uniformName = "oe_index_objectid"

// LibraryKey is the program key of the object index shader library.
const LibraryKey = "oxy.ObjectIndex"

//go:embed assets/object_index.wgsl
var objectIndexSource string

// Index is the registry that assigns identifiers to pickable objects.
// It is safe for concurrent use.
type Index interface {
	// Insert assigns a new identifier to a node and tags the node's state set with it.
	//
	// Parameters:
	//   - n: the node to register
	//
	// Returns:
	//   - ObjectID: the new identifier, or Empty if every identifier is registered
	Insert(n scene.Node) ObjectID

	// Tag sets the identifier uniform on a node's state set without registering it.
	// Drawables below the node report this identifier in the pick pass.
	//
	// Parameters:
	//   - n: the node to tag
	//   - id: the identifier
	Tag(n scene.Node, id ObjectID)

	// Lookup returns the node registered for an identifier.
	//
	// Parameters:
	//   - id: the identifier
	//
	// Returns:
	//   - scene.Node: the node, or nil if the identifier is unknown
	Lookup(id ObjectID) scene.Node

	// Remove unregisters an identifier. Insert hands it out again only after the
	// identifier space wraps around.
	//
	// Parameters:
	//   - id: the identifier
	Remove(id ObjectID)

	// Len returns the number of registered objects.
	Len() int

	// ObjectIDUniformName returns the name of the per-object identifier uniform.
	//
	// Returns:
	//   - string: the uniform name
	ObjectIDUniformName() string

	// LoadShaders installs the shader library that exposes oxy_index_objectid() to picking programs.
	//
	// Parameters:
	//   - p: the program to extend
	LoadShaders(p *shader.Program)
}

type index struct {
	mu *sync.Mutex

	next    ObjectID
	objects map[ObjectID]scene.Node
	library shader.Shader
}

var _ Index = &index{}

var (
	defaultIndex     Index
	defaultIndexOnce sync.Once
)

// Get returns the process-wide object index, creating it on first use.
//
// Returns:
//   - Index: the shared index
func Get() Index {
	defaultIndexOnce.Do(func() {
		defaultIndex = NewIndex()
	})
	return defaultIndex
}

// NewIndex creates an Index.
//
// Parameters:
//   - options: optional builder options
//
// Returns:
//   - Index: the new index
func NewIndex(options ...IndexBuilderOption) Index {
	idx := &index{
		mu:      &sync.Mutex{},
		next:    1,
		objects: make(map[ObjectID]scene.Node),
		library: shader.NewShader(LibraryKey, shader.ShaderTypeLibrary, objectIndexSource),
	}
	for _, opt := range options {
		opt(idx)
	}
	if idx.next == Empty {
		idx.next = 1
	}
	return idx
}

func (i *index) Insert(n scene.Node) ObjectID {
	i.mu.Lock()
	if !common.SoftAssert(uint64(len(i.objects)) < math.MaxUint32, "object index is full", "objects", len(i.objects)) {
		i.mu.Unlock()
		return Empty
	}
	id := i.next
	for {
		if _, live := i.objects[id]; !live {
			break
		}
		id = successor(id)
	}
	i.next = successor(id)
	i.objects[id] = n
	i.mu.Unlock()

	i.Tag(n, id)
	return id
}

// successor returns the identifier after id, wrapping past the largest value to 1.
func successor(id ObjectID) ObjectID {
	if id == math.MaxUint32 {
		return 1
	}
	return id + 1
}

func (i *index) Tag(n scene.Node, id ObjectID) {
	if n == nil {
		return
	}
	n.GetOrCreateStateSet().AddUniform(uniformName, uint32(id), state.Off)
}

func (i *index) Lookup(id ObjectID) scene.Node {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.objects[id]
}

func (i *index) Remove(id ObjectID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.objects, id)
}

func (i *index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.objects)
}

func (i *index) ObjectIDUniformName() string {
	return uniformName
}

func (i *index) LoadShaders(p *shader.Program) {
	p.SetFunction(i.library)
}
