// Package org builds hierarchical trees from the flat organizational
// records returned by the directory endpoints. Trees are arenas: nodes are
// indexed by ID and children are ordered ID lists, so deep equality and
// serialization stay trivial and no back-pointers exist.
package org

// NodeType tags a tree node with its organizational level.
type NodeType string

const (
	// TypeBusinessUnit is the top level of the project dimension.
	TypeBusinessUnit NodeType = "business_unit"
	// TypeProductLine groups projects under a business unit.
	TypeProductLine NodeType = "product_line"
	// TypeProject is the leaf level of the project dimension.
	TypeProject NodeType = "project"
	// TypeDepartment is the top level of the team dimension.
	TypeDepartment NodeType = "department"
	// TypeSubTeam groups users under a department.
	TypeSubTeam NodeType = "sub_team"
	// TypeUser is the leaf level of the team dimension.
	TypeUser NodeType = "user"
)

// childTypes is the fixed type-transition table: which child types a parent
// level may hold. Types absent from the map are leaf levels.
var childTypes = map[NodeType][]NodeType{
	TypeBusinessUnit: {TypeProductLine},
	TypeProductLine:  {TypeProject},
	TypeDepartment:   {TypeSubTeam, TypeUser},
	TypeSubTeam:      {TypeUser},
}

// bucketType names the level a synthetic "unassigned" bucket takes for a
// child whose declared parent is missing from the input set.
var bucketType = map[NodeType]NodeType{
	TypeProductLine: TypeBusinessUnit,
	TypeProject:     TypeProductLine,
	TypeSubTeam:     TypeDepartment,
	TypeUser:        TypeSubTeam,
}

// rootTypes are the levels that may appear at the top of a forest.
var rootTypes = map[NodeType]bool{
	TypeBusinessUnit: true,
	TypeDepartment:   true,
}

// ValidChild reports whether the transition table allows child under parent.
func ValidChild(parent, child NodeType) bool {
	for _, t := range childTypes[parent] {
		if t == child {
			return true
		}
	}
	return false
}

// IsGroup reports whether the type is a grouping level rather than a leaf
// level. Group nodes never carry metric values directly.
func IsGroup(t NodeType) bool {
	_, ok := childTypes[t]
	return ok
}

// FlatRecord is one backend row before tree assembly. ParentID is the
// foreign key to the record's parent, empty for root-level rows.
type FlatRecord struct {
	ID            string   `json:"id"`
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	SecondaryName string   `json:"secondary_name,omitempty"`
	Identifier    string   `json:"identifier,omitempty"`
	Type          NodeType `json:"type"`
	ParentID      string   `json:"parent_id,omitempty"`
	Archived      bool     `json:"archived,omitempty"`
}

// Node is one vertex of a built tree. Children holds node IDs in the order
// the source rows were iterated.
type Node struct {
	ID            string   `json:"id"`
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	SecondaryName string   `json:"secondary_name,omitempty"`
	Identifier    string   `json:"identifier,omitempty"`
	Type          NodeType `json:"type"`
	Children      []string `json:"children"`
	Synthetic     bool     `json:"synthetic,omitempty"`
}

// Tree is a rooted forest stored as an arena.
type Tree struct {
	nodes map[string]*Node
	Roots []string
}

// NewTree returns an empty forest.
func NewTree() *Tree {
	return &Tree{nodes: make(map[string]*Node)}
}

// Node returns the node with the given ID, or nil.
func (t *Tree) Node(id string) *Node {
	if t == nil {
		return nil
	}
	return t.nodes[id]
}

// Len returns the number of nodes in the forest.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// IsLeaf reports whether the node exists and has no children.
func (t *Tree) IsLeaf(id string) bool {
	n := t.Node(id)
	return n != nil && len(n.Children) == 0
}

func (t *Tree) add(n *Node) {
	t.nodes[n.ID] = n
}

// Walk visits the forest depth-first in root and child order. Returning
// false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t == nil {
		return
	}
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n := t.nodes[id]
		if n == nil {
			return
		}
		if !fn(n, depth) {
			return
		}
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	for _, root := range t.Roots {
		visit(root, 0)
	}
}

// Leaves returns the IDs of all leaf nodes in walk order.
func (t *Tree) Leaves() []string {
	var out []string
	t.Walk(func(n *Node, _ int) bool {
		if len(n.Children) == 0 {
			out = append(out, n.ID)
		}
		return true
	})
	return out
}

// ParentIndex builds a reverse child-to-parent lookup. The arena itself
// holds no back-pointers; callers that need upward traversal build this map
// once per tree.
func (t *Tree) ParentIndex() map[string]string {
	idx := make(map[string]string, t.Len())
	t.Walk(func(n *Node, _ int) bool {
		for _, child := range n.Children {
			idx[child] = n.ID
		}
		return true
	})
	return idx
}
