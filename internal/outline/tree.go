// Package outline builds the read-only course hierarchy used by the move picker.
package outline

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/coursemover/internal/models"
)

// NodeID is a stable handle into a Tree's node arena.
type NodeID int

// NoNode is the parent handle of the root.
const NoNode NodeID = -1

// Node is one outline entry. Nodes are owned by their Tree.
type Node struct {
	ID          string
	Category    Category
	BlockType   string // raw Studio category, e.g. "vertical" or "problem"
	DisplayName string
	Parent      NodeID
	Index       int // position among the parent's children
	children    []NodeID
}

// Tree is an immutable course outline rooted at a course node.
type Tree struct {
	nodes     []Node
	byLocator map[string]NodeID
}

// Build validates a Studio outline payload and converts it into a Tree.
func Build(raw *models.XBlockInfo) (*Tree, error) {
	if raw == nil {
		return nil, &MalformedError{Reason: "empty payload"}
	}
	t := &Tree{byLocator: make(map[string]NodeID)}
	if err := t.add(raw, NoNode, 0, 0, nil); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) add(raw *models.XBlockInfo, parent NodeID, index, depth int, path []string) error {
	if raw == nil {
		return &MalformedError{Path: path, Reason: fmt.Sprintf("child %d is null", index)}
	}
	label := raw.DisplayName
	if label == "" {
		label = raw.ID
	}
	path = append(path[:len(path):len(path)], label)

	if err := validation.ValidateStruct(raw,
		validation.Field(&raw.ID, validation.Required),
		validation.Field(&raw.Category, validation.Required),
		validation.Field(&raw.DisplayName, validation.Required),
	); err != nil {
		return &MalformedError{Path: path, Reason: err.Error()}
	}

	want := CategoryAtDepth(depth)
	if want == "" {
		return &MalformedError{Path: path, Reason: "nested below a component"}
	}
	got := NormalizeCategory(raw.Category)
	if got != want {
		return &MalformedError{Path: path, Reason: fmt.Sprintf("category %q where a %s was expected", raw.Category, want)}
	}

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		ID:          raw.ID,
		Category:    got,
		BlockType:   raw.Category,
		DisplayName: raw.DisplayName,
		Parent:      parent,
		Index:       index,
	})
	if _, seen := t.byLocator[raw.ID]; !seen {
		t.byLocator[raw.ID] = id
	}
	if parent != NoNode {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}

	if raw.ChildInfo == nil || len(raw.ChildInfo.Children) == 0 {
		return nil
	}
	if got.IsLeaf() {
		return &MalformedError{Path: path, Reason: "component has children"}
	}
	childWant := got.Child()
	if c := raw.ChildInfo.Category; c != "" && !childWant.IsLeaf() && NormalizeCategory(c) != childWant {
		return &MalformedError{Path: path, Reason: fmt.Sprintf("child_info category %q where %s was expected", c, childWant)}
	}
	for i, child := range raw.ChildInfo.Children {
		if err := t.add(child, id, i, depth+1, path); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the course node handle.
func (t *Tree) Root() NodeID {
	return 0
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns a copy of the node for a handle. It panics on a handle not
// issued by t.
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

// ChildrenOf returns the ordered children of a node. Leaves and empty
// containers yield an empty slice, never nil.
func (t *Tree) ChildrenOf(id NodeID) []NodeID {
	kids := t.nodes[id].children
	out := make([]NodeID, len(kids))
	copy(out, kids)
	return out
}

// ChildCount returns len(ChildrenOf(id)) without copying.
func (t *Tree) ChildCount(id NodeID) int {
	return len(t.nodes[id].children)
}

// ChildByLocator returns the child of id whose locator matches.
func (t *Tree) ChildByLocator(id NodeID, locator string) (NodeID, bool) {
	for _, kid := range t.nodes[id].children {
		if t.nodes[kid].ID == locator {
			return kid, true
		}
	}
	return NoNode, false
}

// ChildAt returns the child at index, or false when out of range.
func (t *Tree) ChildAt(id NodeID, index int) (NodeID, bool) {
	kids := t.nodes[id].children
	if index < 0 || index >= len(kids) {
		return NoNode, false
	}
	return kids[index], true
}

// Find looks a node up by its Studio locator. When a locator repeats, the
// first node in depth-first order wins.
func (t *Tree) Find(locator string) (NodeID, bool) {
	id, ok := t.byLocator[locator]
	return id, ok
}

// PathTo returns the handles from the root down to id, inclusive.
func (t *Tree) PathTo(id NodeID) []NodeID {
	var rev []NodeID
	for cur := id; cur != NoNode; cur = t.nodes[cur].Parent {
		rev = append(rev, cur)
	}
	out := make([]NodeID, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

// Parent returns the parent handle of id, NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].Parent
}

// IndexOf returns the position of id among its parent's children.
func (t *Tree) IndexOf(id NodeID) int {
	return t.nodes[id].Index
}

// Depth returns the category depth of id, 0 for the course.
func (t *Tree) Depth(id NodeID) int {
	return t.nodes[id].Category.Depth()
}
