package outline

import "github.com/starford/coursemover/internal/models"

// Ancestor is one entry of an AncestorChain.
type Ancestor struct {
	ID          string
	Category    Category
	DisplayName string
}

// AncestorChain lists the source item's ancestors, immediate parent first and
// the course last.
type AncestorChain []Ancestor

// ChainFromInfo converts Studio's ancestorInfo payload.
func ChainFromInfo(info *models.AncestorInfo) AncestorChain {
	if info == nil {
		return nil
	}
	chain := make(AncestorChain, 0, len(info.Ancestors))
	for _, a := range info.Ancestors {
		chain = append(chain, Ancestor{
			ID:          a.ID,
			Category:    NormalizeCategory(a.Category),
			DisplayName: a.DisplayName,
		})
	}
	return chain
}

// Parent returns the immediate parent entry, if any.
func (c AncestorChain) Parent() (Ancestor, bool) {
	if len(c) == 0 {
		return Ancestor{}, false
	}
	return c[0], true
}

// Contains reports whether locator is one of the ancestors.
func (c AncestorChain) Contains(locator string) bool {
	for _, a := range c {
		if a.ID == locator {
			return true
		}
	}
	return false
}

// Resolve walks the chain from the course downwards and returns the handles of
// the entries found in t, root first. The walk stops at the first entry that
// is not a child of the previous one.
func (c AncestorChain) Resolve(t *Tree) []NodeID {
	path := []NodeID{t.Root()}
	for i := len(c) - 1; i >= 0; i-- {
		a := c[i]
		if a.ID == t.Node(t.Root()).ID || a.Category == CategoryCourse {
			continue
		}
		id, ok := t.ChildByLocator(path[len(path)-1], a.ID)
		if !ok {
			break
		}
		path = append(path, id)
	}
	return path
}
