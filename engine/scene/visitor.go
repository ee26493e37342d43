package scene

import (
	"sync"
)

// VisitorType identifies the purpose of a traversal.
type VisitorType int

const (
	// VisitorNone is a general-purpose traversal (searches, bookkeeping).
	VisitorNone VisitorType = iota
	// VisitorUpdate runs once per frame before culling.
	VisitorUpdate
	// VisitorEvent delivers input events into the graph.
	VisitorEvent
	// VisitorCull collects drawables into render stages.
	VisitorCull
)

// Visitor walks a scene graph. Apply is called by Node.Accept with the concrete node and is
// responsible for calling n.Traverse(v) to continue into children.
type Visitor interface {
	// Type returns the purpose of the traversal.
	//
	// Returns:
	//   - VisitorType: the visitor type
	Type() VisitorType

	// TraversalMask is intersected with each node's mask; nodes with no common bit are skipped.
	//
	// Returns:
	//   - uint32: the traversal mask
	TraversalMask() uint32

	// Storage returns the traversal-scoped key/value store.
	//
	// Returns:
	//   - *Storage: the store, valid for the lifetime of the visitor
	Storage() *Storage

	// Apply visits a node.
	//
	// Parameters:
	//   - n: the node being visited
	Apply(n Node)
}

// Storage is a traversal-scoped store keyed by identity (typically a node pointer).
// Nodes use it to leave markers for the duration of a single traversal, e.g. to
// guard against being rendered twice when they are reached through a nested camera.
type Storage struct {
	mu    *sync.Mutex
	items map[any]any
}

// NewStorage creates an empty Storage.
//
// Returns:
//   - *Storage: the new store
func NewStorage() *Storage {
	return &Storage{
		mu:    &sync.Mutex{},
		items: make(map[any]any),
	}
}

// Get returns the value stored for key.
//
// Parameters:
//   - key: a comparable key, usually a pointer
//
// Returns:
//   - any: the stored value
//   - bool: true if the key was present
func (s *Storage) Get(key any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

// Has reports whether key is present.
func (s *Storage) Has(key any) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores value for key.
func (s *Storage) Set(key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Remove deletes key.
func (s *Storage) Remove(key any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// NodeVisitor is a general-purpose Visitor that calls a function on every reachable node.
type NodeVisitor struct {
	visitorType VisitorType
	mask        uint32
	storage     *Storage
	fn          func(n Node) bool
}

var _ Visitor = &NodeVisitor{}

// NewNodeVisitor creates a NodeVisitor. The function returns false to stop descending below a node.
//
// Parameters:
//   - t: the visitor type
//   - fn: called for every visited node
//
// Returns:
//   - *NodeVisitor: the visitor
func NewNodeVisitor(t VisitorType, fn func(n Node) bool) *NodeVisitor {
	return &NodeVisitor{
		visitorType: t,
		mask:        NodeMaskAll,
		storage:     NewStorage(),
		fn:          fn,
	}
}

func (v *NodeVisitor) Type() VisitorType {
	return v.visitorType
}

func (v *NodeVisitor) TraversalMask() uint32 {
	return v.mask
}

// SetTraversalMask sets the traversal mask.
func (v *NodeVisitor) SetTraversalMask(mask uint32) {
	v.mask = mask
}

func (v *NodeVisitor) Storage() *Storage {
	return v.storage
}

func (v *NodeVisitor) Apply(n Node) {
	if n.NodeMask()&v.mask == 0 {
		return
	}
	if v.fn == nil || v.fn(n) {
		n.Traverse(v)
	}
}

// FindByName returns the first node in depth-first order whose name matches.
//
// Parameters:
//   - root: the subgraph to search
//   - name: the name to match
//
// Returns:
//   - Node: the node, or nil if none matched
func FindByName(root Node, name string) Node {
	var found Node
	root.Accept(NewNodeVisitor(VisitorNone, func(n Node) bool {
		if found != nil {
			return false
		}
		if n.Name() == name {
			found = n
			return false
		}
		return true
	}))
	return found
}
