package scene

import (
	"slices"
)

// Group is a node with an ordered list of children.
type Group struct {
	NodeBase

	children []Node
}

var _ Node = &Group{}

// NewGroup creates an empty Group.
//
// Parameters:
//   - name: the group name
//   - children: optional initial children
//
// Returns:
//   - *Group: the new group
func NewGroup(name string, children ...Node) *Group {
	return &Group{
		NodeBase: NewNodeBase(name),
		children: slices.Clone(children),
	}
}

func (g *Group) Accept(v Visitor) {
	v.Apply(g)
}

func (g *Group) Traverse(v Visitor) {
	for _, c := range g.Children() {
		c.Accept(v)
	}
}

// AddChild appends a child node. Nil children are ignored.
//
// Parameters:
//   - n: the child to add
func (g *Group) AddChild(n Node) {
	if n == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.children = append(g.children, n)
}

// RemoveChild removes the first occurrence of a child node.
//
// Parameters:
//   - n: the child to remove
//
// Returns:
//   - bool: true if the child was found and removed
func (g *Group) RemoveChild(n Node) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := slices.Index(g.children, n)
	if i < 0 {
		return false
	}
	g.children = slices.Delete(g.children, i, i+1)
	return true
}

// RemoveChildren removes all children.
func (g *Group) RemoveChildren() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.children = nil
}

// Children returns a snapshot of the child list.
//
// Returns:
//   - []Node: the children in order
func (g *Group) Children() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.children)
}

// NumChildren returns the number of children.
func (g *Group) NumChildren() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.children)
}
