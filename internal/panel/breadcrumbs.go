package panel

import (
	"github.com/starford/coursemover/internal/navigation"
)

// RootCrumbLabel names the course segment.
const RootCrumbLabel = "Course Outline"

// Crumb is one breadcrumb segment. Activating it ascends to Depth.
type Crumb struct {
	Depth   int    `json:"depth"`
	ID      string `json:"id"`
	Label   string `json:"label"`
	Current bool   `json:"current"`
}

// Breadcrumbs rebuilds the breadcrumb trail from the cursor path.
func Breadcrumbs(c *navigation.Cursor) []Crumb {
	tree := c.Tree()
	path := c.Path()
	out := make([]Crumb, 0, len(path))
	for depth, id := range path {
		n := tree.Node(id)
		label := n.DisplayName
		if depth == 0 {
			label = RootCrumbLabel
		}
		out = append(out, Crumb{
			Depth:   depth,
			ID:      n.ID,
			Label:   label,
			Current: depth == len(path)-1,
		})
	}
	return out
}
