package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
)

// NodeMaskAll is the default node mask; a node with mask 0 is skipped by every traversal.
const NodeMaskAll uint32 = 0xFFFFFFFF

// Node is an element of the scene graph.
//
// Every concrete node type implements Accept by calling v.Apply with itself, so visitors can
// switch on the concrete type. Traverse visits the node's children, if any.
type Node interface {
	// Name returns the node's name.
	//
	// Returns:
	//   - string: the name, possibly empty
	Name() string

	// SetName sets the node's name.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// NodeMask returns the traversal mask. Visitors skip nodes whose mask does not intersect theirs.
	//
	// Returns:
	//   - uint32: the node mask
	NodeMask() uint32

	// SetNodeMask sets the traversal mask.
	//
	// Parameters:
	//   - mask: the new node mask; 0 hides the node from all traversals
	SetNodeMask(mask uint32)

	// StateSet returns the node's render state, or nil if it has none.
	//
	// Returns:
	//   - *state.StateSet: the state set or nil
	StateSet() *state.StateSet

	// GetOrCreateStateSet returns the node's render state, creating an empty one if needed.
	//
	// Returns:
	//   - *state.StateSet: the state set
	GetOrCreateStateSet() *state.StateSet

	// SetStateSet replaces the node's render state.
	//
	// Parameters:
	//   - ss: the new state set, may be nil
	SetStateSet(ss *state.StateSet)

	// Accept dispatches the visitor to this node.
	//
	// Parameters:
	//   - v: the visitor
	Accept(v Visitor)

	// Traverse dispatches the visitor to this node's children.
	//
	// Parameters:
	//   - v: the visitor
	Traverse(v Visitor)
}

// NodeBase carries the fields shared by all nodes. Embed it and implement Accept and Traverse.
type NodeBase struct {
	mu *sync.Mutex

	name     string
	nodeMask uint32
	stateSet *state.StateSet
}

// NewNodeBase creates a NodeBase with the given name and the default mask.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - NodeBase: the initialized base
func NewNodeBase(name string) NodeBase {
	return NodeBase{
		mu:       &sync.Mutex{},
		name:     name,
		nodeMask: NodeMaskAll,
	}
}

func (n *NodeBase) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

func (n *NodeBase) SetName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = name
}

func (n *NodeBase) NodeMask() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nodeMask
}

func (n *NodeBase) SetNodeMask(mask uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nodeMask = mask
}

func (n *NodeBase) StateSet() *state.StateSet {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stateSet
}

func (n *NodeBase) GetOrCreateStateSet() *state.StateSet {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stateSet == nil {
		n.stateSet = state.NewStateSet(n.name)
	}
	return n.stateSet
}

func (n *NodeBase) SetStateSet(ss *state.StateSet) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stateSet = ss
}
