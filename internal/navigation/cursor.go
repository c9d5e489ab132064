// Package navigation tracks where the user is looking inside a course outline.
package navigation

import (
	"errors"
	"fmt"

	"github.com/starford/coursemover/internal/outline"
)

// ErrIndexOutOfRange is returned when a descend or ascend names a position the
// rendered panels never offered.
var ErrIndexOutOfRange = errors.New("index out of range")

// Cursor is the current node plus the breadcrumb path from the root to it.
//
// Invariant: path[0] is the root, path[len(path)-1] is the current node and
// len(path)-1 equals the current node's category depth.
type Cursor struct {
	tree *outline.Tree
	path []outline.NodeID
}

// New places a cursor on tree. With a non-empty chain the cursor starts at the
// deepest ancestor that resolves in the tree, normally the source item's
// immediate parent; otherwise it starts at the root.
func New(tree *outline.Tree, chain outline.AncestorChain) *Cursor {
	path := []outline.NodeID{tree.Root()}
	if len(chain) > 0 {
		path = chain.Resolve(tree)
	}
	return &Cursor{tree: tree, path: path}
}

// Tree returns the outline the cursor walks.
func (c *Cursor) Tree() *outline.Tree {
	return c.tree
}

// Current returns the handle of the displayed node.
func (c *Cursor) Current() outline.NodeID {
	return c.path[len(c.path)-1]
}

// CurrentNode returns the displayed node.
func (c *Cursor) CurrentNode() outline.Node {
	return c.tree.Node(c.Current())
}

// Depth returns len(Path())-1.
func (c *Cursor) Depth() int {
	return len(c.path) - 1
}

// Path returns a copy of the breadcrumb path, root first.
func (c *Cursor) Path() []outline.NodeID {
	out := make([]outline.NodeID, len(c.path))
	copy(out, c.path)
	return out
}

// Children returns the children of the current node.
func (c *Cursor) Children() []outline.NodeID {
	return c.tree.ChildrenOf(c.Current())
}

// DescendTo moves into the child at childIndex.
func (c *Cursor) DescendTo(childIndex int) error {
	child, ok := c.tree.ChildAt(c.Current(), childIndex)
	if !ok {
		return fmt.Errorf("navigation: descend to %d of %d children: %w",
			childIndex, c.tree.ChildCount(c.Current()), ErrIndexOutOfRange)
	}
	c.path = append(c.path, child)
	return nil
}

// AscendTo truncates the breadcrumb path so that the entry at depth becomes
// the current node. Depth 0 is the root.
func (c *Cursor) AscendTo(depth int) error {
	if depth < 0 || depth >= len(c.path) {
		return fmt.Errorf("navigation: ascend to depth %d of %d: %w", depth, len(c.path), ErrIndexOutOfRange)
	}
	c.path = c.path[:depth+1]
	return nil
}

// IsAtSourceParent reports whether the current node is sourceParentID.
func (c *Cursor) IsAtSourceParent(sourceParentID string) bool {
	return c.CurrentNode().ID == sourceParentID
}

// Clone returns an independent copy sharing the same tree.
func (c *Cursor) Clone() *Cursor {
	return &Cursor{tree: c.tree, path: c.Path()}
}

// Equal reports whether two cursors show the same node through the same path.
func (c *Cursor) Equal(other *Cursor) bool {
	if other == nil || c.tree != other.tree || len(c.path) != len(other.path) {
		return false
	}
	for i := range c.path {
		if c.path[i] != other.path[i] {
			return false
		}
	}
	return true
}
