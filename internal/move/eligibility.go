// Package move decides where an outline item may go and runs the move/undo
// cycle against Studio.
package move

import (
	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/outline"
)

// Source is the item being moved and where it currently lives.
type Source struct {
	ID          string
	DisplayName string
	Category    outline.Category
	ParentID    string
	// Index is the position under ParentID, nil when unknown.
	Index *int
}

// Eligible reports whether the cursor's current node is a valid destination:
// it sits at the source's parent level, it is not the source's current
// parent, and it has children to show.
func Eligible(c *navigation.Cursor, src Source) bool {
	cur := c.CurrentNode()
	category := src.Category
	if category == "" {
		category = outline.CategoryComponent
	}
	if cur.Category != category.Parent() {
		return false
	}
	if c.IsAtSourceParent(src.ParentID) {
		return false
	}
	return len(c.Children()) > 0
}
