// Package panel builds the list and breadcrumb views of the move picker and
// renders them as HTML fragments or plain text.
package panel

import (
	"fmt"

	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/outline"
)

// CurrentLocationText is shown next to rows on the source item's ancestry.
const CurrentLocationText = "(Current location)"

// Marks is the set of outline nodes on the source item's ancestor chain.
// A nil Marks means no chain was supplied and nothing is marked.
type Marks map[outline.NodeID]bool

// MarksFromChain resolves chain against tree. An empty chain yields nil.
func MarksFromChain(tree *outline.Tree, chain outline.AncestorChain) Marks {
	if len(chain) == 0 {
		return nil
	}
	m := make(Marks)
	for _, id := range chain.Resolve(tree) {
		m[id] = true
	}
	return m
}

// MarksFromParent marks the path from the root down to the node located by
// parentID. Nothing is marked when tree does not hold it.
func MarksFromParent(tree *outline.Tree, parentID string) Marks {
	m := make(Marks)
	id, ok := tree.Find(parentID)
	if !ok {
		return m
	}
	for _, n := range tree.PathTo(id) {
		m[n] = true
	}
	return m
}

// Row is one child of the displayed node.
type Row struct {
	Index           int              `json:"index"`
	ID              string           `json:"id"`
	DisplayName     string           `json:"display_name"`
	Category        outline.Category `json:"category"`
	CurrentLocation bool             `json:"current_location"`
	Forward         bool             `json:"forward"`
	ForwardHint     string           `json:"forward_hint,omitempty"`
}

// ListView is the list panel for the cursor's current node.
type ListView struct {
	Category     outline.Category `json:"category"`
	Label        string           `json:"label"`
	Rows         []Row            `json:"rows"`
	EmptyMessage string           `json:"empty_message,omitempty"`
}

// List builds the list panel for the cursor's current node.
func List(c *navigation.Cursor, marks Marks) ListView {
	tree := c.Tree()
	cur := c.CurrentNode()
	childCat := cur.Category.Child()

	v := ListView{
		Category: cur.Category,
		Label:    childCat.Plural() + ":",
		Rows:     []Row{},
	}
	kids := c.Children()
	if len(kids) == 0 {
		v.EmptyMessage = fmt.Sprintf("This %s has no %ss", cur.Category, childCat)
		return v
	}
	for i, id := range kids {
		n := tree.Node(id)
		row := Row{
			Index:       i,
			ID:          n.ID,
			DisplayName: n.DisplayName,
			Category:    n.Category,
		}
		if !n.Category.IsLeaf() {
			row.Forward = true
			row.ForwardHint = fmt.Sprintf("Press button to see %s childs", n.Category)
			row.CurrentLocation = marks[id]
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
