// Package session keeps the open move pickers: one per item being moved, each
// owning its outline, cursor and move controller.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starford/coursemover/internal/apperr"
	"github.com/starford/coursemover/internal/checksum"
	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/panel"
)

// State is the load state of a session.
type State string

// Session states. A failed session keeps rendering the loading placeholder.
const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Params describes the item a session moves.
type Params struct {
	SourceID          string `json:"source_locator"`
	SourceDisplayName string `json:"source_display_name"`
	SourceCategory    string `json:"source_category,omitempty"`
	SourceParentID    string `json:"source_parent_locator,omitempty"`
}

// Session is one open move picker.
type Session struct {
	ID        string
	Params    Params
	CreatedAt time.Time

	mu    sync.RWMutex
	state State
	err   error
	ctrl  *move.Controller
	marks panel.Marks
	// marksParent is the source parent marks were resolved for.
	marksParent string
	done        chan struct{}
}

// Snapshot is the JSON view of a session.
type Snapshot struct {
	ID     string     `json:"id"`
	State  State      `json:"state"`
	Source Params     `json:"source"`
	Error  string     `json:"error,omitempty"`
	Page   panel.Page `json:"page"`
}

func newSession(id string, p Params) *Session {
	return &Session{
		ID:        id,
		Params:    p,
		CreatedAt: time.Now().UTC(),
		state:     StateLoading,
		done:      make(chan struct{}),
	}
}

func (s *Session) ready(ctrl *move.Controller, marks panel.Marks) {
	s.mu.Lock()
	s.state = StateReady
	s.ctrl = ctrl
	s.marks = marks
	s.marksParent = ctrl.State().Source.ParentID
	s.mu.Unlock()
	close(s.done)
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

// State returns the load state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the load failure, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Wait blocks until the load finishes or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Controller returns the move controller of a ready session.
func (s *Session) Controller() (*move.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return nil, fmt.Errorf("session %s is %s: %w", s.ID, s.state, apperr.ErrNotReady)
	}
	return s.ctrl, nil
}

// Page builds the current page. Sessions that are not ready show the loading
// placeholder. Once the item has moved, the current location markers follow
// its new parent.
func (s *Session) Page() panel.Page {
	s.mu.RLock()
	ctrl, marks, marksParent := s.ctrl, s.marks, s.marksParent
	s.mu.RUnlock()
	if ctrl == nil {
		return panel.LoadingPage(s.Params.SourceDisplayName)
	}
	var p panel.Page
	ctrl.View(func(c *navigation.Cursor, st move.State) {
		if marks != nil && st.Source.ParentID != marksParent {
			marks = panel.MarksFromParent(c.Tree(), st.Source.ParentID)
		}
		p = panel.NewPage(c, marks, st)
	})
	return p
}

// Snapshot returns the JSON view.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:     s.ID,
		State:  s.State(),
		Source: s.Params,
		Page:   s.Page(),
	}
	if err := s.Err(); err != nil {
		snap.Error = err.Error()
	}
	return snap
}

// View renders the page as HTML and returns it with its ETag. The ETag only
// changes when the rendered bytes do.
func (s *Session) View() ([]byte, string, error) {
	html, err := panel.HTML(s.Page())
	if err != nil {
		return nil, "", err
	}
	return html, checksum.ETag(html), nil
}

// Descend moves into the child at index.
func (s *Session) Descend(index int) error {
	ctrl, err := s.Controller()
	if err != nil {
		return err
	}
	return ctrl.Descend(index)
}

// Ascend moves back to the breadcrumb at depth.
func (s *Session) Ascend(depth int) error {
	ctrl, err := s.Controller()
	if err != nil {
		return err
	}
	return ctrl.Ascend(depth)
}

// Move confirms a move to the current location.
func (s *Session) Move(ctx context.Context, targetIndex *int) (*move.Banner, error) {
	ctrl, err := s.Controller()
	if err != nil {
		return nil, err
	}
	return ctrl.ConfirmMove(ctx, targetIndex)
}

// Undo reverts the last successful move.
func (s *Session) Undo(ctx context.Context) (*move.Banner, error) {
	ctrl, err := s.Controller()
	if err != nil {
		return nil, err
	}
	return ctrl.UndoMove(ctx)
}
