// Package studiostub is an in-memory stand-in for the Studio endpoints the
// move picker calls. It serves a fixture outline, answers ancestor queries and
// applies moves.
package studiostub

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/starford/coursemover/internal/models"
	"github.com/starford/coursemover/internal/outline"
)

var (
	// ErrUnknownBlock is returned for locators absent from the outline.
	ErrUnknownBlock = errors.New("studiostub: unknown block")
	// ErrInvalidMove is returned when a block cannot live under the parent.
	ErrInvalidMove = errors.New("studiostub: invalid move")
)

// Store holds the current outline.
type Store struct {
	mu   sync.RWMutex
	root *models.XBlockInfo
}

// NewStore creates a Store over root. The store takes ownership of root.
func NewStore(root *models.XBlockInfo) *Store {
	return &Store{root: root}
}

// Replace swaps the whole outline.
func (s *Store) Replace(root *models.XBlockInfo) {
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
}

// Outline returns a copy of the outline.
func (s *Store) Outline() *models.XBlockInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.root)
}

// Ancestors returns the ancestors of id, nearest first.
func (s *Store) Ancestors(id string) (*models.AncestorInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path := find(s.root, id)
	if path == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	out := &models.AncestorInfo{Ancestors: make([]models.Ancestor, 0, len(path)-1)}
	for i := len(path) - 2; i >= 0; i-- {
		n := path[i]
		out.Ancestors = append(out.Ancestors, models.Ancestor{ID: n.ID, Category: n.Category, DisplayName: n.DisplayName})
	}
	return out, nil
}

// Move reparents req.SourceLocator under req.ParentLocator. A nil or
// out-of-range target index appends.
func (s *Store) Move(req models.MoveRequest) (*models.MoveResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcPath := find(s.root, req.SourceLocator)
	if srcPath == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, req.SourceLocator)
	}
	if len(srcPath) < 2 {
		return nil, fmt.Errorf("%w: the course cannot move", ErrInvalidMove)
	}
	dstPath := find(s.root, req.ParentLocator)
	if dstPath == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, req.ParentLocator)
	}
	src, dst := srcPath[len(srcPath)-1], dstPath[len(dstPath)-1]
	if slices.Contains(dstPath, src) {
		return nil, fmt.Errorf("%w: %s is inside %s", ErrInvalidMove, req.ParentLocator, req.SourceLocator)
	}
	if outline.NormalizeCategory(dst.Category).Child() != outline.NormalizeCategory(src.Category) {
		return nil, fmt.Errorf("%w: %s cannot hold a %s", ErrInvalidMove, dst.Category, src.Category)
	}

	old := srcPath[len(srcPath)-2]
	from := slices.Index(old.ChildInfo.Children, src)
	old.ChildInfo.Children = slices.Delete(old.ChildInfo.Children, from, from+1)

	if dst.ChildInfo == nil {
		dst.ChildInfo = &models.ChildInfo{Category: src.Category}
	}
	to := len(dst.ChildInfo.Children)
	if req.TargetIndex != nil && *req.TargetIndex >= 0 && *req.TargetIndex < to {
		to = *req.TargetIndex
	}
	dst.ChildInfo.Children = slices.Insert(dst.ChildInfo.Children, to, src)

	return &models.MoveResponse{
		SourceLocator: src.ID,
		ParentLocator: dst.ID,
		TargetIndex:   &to,
		SourceIndex:   &from,
	}, nil
}

// find returns the nodes from root to id, or nil.
func find(n *models.XBlockInfo, id string) []*models.XBlockInfo {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return []*models.XBlockInfo{n}
	}
	if n.ChildInfo == nil {
		return nil
	}
	for _, c := range n.ChildInfo.Children {
		if p := find(c, id); p != nil {
			return append([]*models.XBlockInfo{n}, p...)
		}
	}
	return nil
}

func clone(n *models.XBlockInfo) *models.XBlockInfo {
	if n == nil {
		return nil
	}
	out := *n
	if n.ChildInfo != nil {
		ci := *n.ChildInfo
		ci.Children = make([]*models.XBlockInfo, len(n.ChildInfo.Children))
		for i, c := range n.ChildInfo.Children {
			ci.Children[i] = clone(c)
		}
		out.ChildInfo = &ci
	}
	return &out
}
