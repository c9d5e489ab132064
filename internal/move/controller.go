package move

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/coursemover/internal/models"
	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/outline"
)

var (
	ErrIneligible    = errors.New("move: current location is not a valid destination")
	ErrMoveInFlight  = errors.New("move: a request is already in flight")
	ErrNothingToUndo = errors.New("move: nothing to undo")
)

// Transport issues the Studio move request.
type Transport interface {
	Move(ctx context.Context, req models.MoveRequest) (*models.MoveResponse, error)
}

// State is a point-in-time summary of the controller.
type State struct {
	Source   Source
	Eligible bool
	InFlight bool
	CanUndo  bool
	Banner   *Banner
}

// Controller owns one move session's cursor and runs the move/undo cycle.
// All methods are safe for concurrent use; the network call runs outside the
// lock.
type Controller struct {
	mu        sync.Mutex
	cursor    *navigation.Cursor
	source    Source
	transport Transport
	notifier  Notifier
	logger    *slog.Logger

	inFlight bool
	receipt  *UndoReceipt
	banner   *Banner
}

// NewController wires a controller. A nil notifier discards events and a nil
// logger uses slog.Default.
func NewController(cursor *navigation.Cursor, src Source, transport Transport, notifier Notifier, logger *slog.Logger) *Controller {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if src.Index == nil {
		src.Index = locateIndex(cursor, src)
	}
	return &Controller{
		cursor:    cursor,
		source:    src,
		transport: transport,
		notifier:  notifier,
		logger:    logger,
	}
}

// locateIndex finds the source's position under its parent in the loaded
// outline, nil when the outline does not hold it there.
func locateIndex(c *navigation.Cursor, src Source) *int {
	tree := c.Tree()
	if c.IsAtSourceParent(src.ParentID) {
		if id, ok := tree.ChildByLocator(c.Current(), src.ID); ok {
			idx := tree.IndexOf(id)
			return &idx
		}
	}
	id, ok := tree.Find(src.ID)
	if !ok {
		return nil
	}
	parent := tree.Parent(id)
	if parent == outline.NoNode || tree.Node(parent).ID != src.ParentID {
		return nil
	}
	idx := tree.IndexOf(id)
	return &idx
}

// Descend moves the cursor into the child at index.
func (c *Controller) Descend(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.DescendTo(index)
}

// Ascend moves the cursor back to the breadcrumb at depth.
func (c *Controller) Ascend(depth int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.AscendTo(depth)
}

// View runs fn with the cursor and current state under the controller lock.
// fn must not retain the cursor.
func (c *Controller) View(fn func(cur *navigation.Cursor, st State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.cursor, c.stateLocked())
}

// State returns the current summary.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Source:   c.source,
		Eligible: Eligible(c.cursor, c.source),
		InFlight: c.inFlight,
		CanUndo:  c.receipt != nil,
		Banner:   c.banner,
	}
}

// ConfirmMove moves the source item under the cursor's current node. A nil
// targetIndex lets Studio append it.
func (c *Controller) ConfirmMove(ctx context.Context, targetIndex *int) (*Banner, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrMoveInFlight
	}
	if !Eligible(c.cursor, c.source) {
		c.mu.Unlock()
		return nil, ErrIneligible
	}
	target := c.cursor.CurrentNode()
	src := c.source
	c.inFlight = true
	c.mu.Unlock()

	req := models.MoveRequest{SourceLocator: src.ID, ParentLocator: target.ID, TargetIndex: targetIndex}
	resp, err := c.send(ctx, req, movingNotification)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("move failed",
			slog.String("source", src.ID),
			slog.String("target", target.ID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("move: move %s to %s: %w", src.ID, target.ID, err)
	}

	parent := target.ID
	var newIndex *int
	var sourceIndex *int
	if resp != nil {
		if resp.ParentLocator != "" {
			parent = resp.ParentLocator
		}
		newIndex = resp.TargetIndex
		sourceIndex = resp.SourceIndex
	}
	if newIndex == nil {
		newIndex = targetIndex
	}
	originalIndex := src.Index
	if originalIndex == nil {
		originalIndex = sourceIndex
	}

	receipt := &UndoReceipt{
		SourceID:          src.ID,
		SourceDisplayName: src.DisplayName,
		OriginalParentID:  src.ParentID,
		OriginalIndex:     originalIndex,
	}
	banner := movedBanner(src, parent, receipt)
	c.receipt = receipt
	c.source.ParentID = parent
	c.source.Index = newIndex
	c.banner = banner
	c.mu.Unlock()

	c.logger.Info("item moved",
		slog.String("source", src.ID),
		slog.String("from", src.ParentID),
		slog.String("to", parent))
	c.notifier.Notify(Event{Type: EventBannerShown, Banner: banner})
	return banner, nil
}

// UndoMove moves the source item back to where the last successful move took
// it from. The receipt is consumed before the request is sent, so a second
// call fails with ErrNothingToUndo whatever the outcome of the first.
func (c *Controller) UndoMove(ctx context.Context) (*Banner, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrMoveInFlight
	}
	receipt := c.receipt
	if receipt == nil {
		c.mu.Unlock()
		return nil, ErrNothingToUndo
	}
	c.receipt = nil
	src := c.source
	c.inFlight = true
	c.mu.Unlock()

	req := models.MoveRequest{
		SourceLocator: receipt.SourceID,
		ParentLocator: receipt.OriginalParentID,
		TargetIndex:   receipt.OriginalIndex,
	}
	_, err := c.send(ctx, req, undoMovingNotification)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		// The receipt is gone, so the banner must stop offering it.
		if c.banner != nil && c.banner.Undo == receipt {
			b := *c.banner
			b.Undo = nil
			c.banner = &b
		}
		c.mu.Unlock()
		c.logger.Warn("undo move failed",
			slog.String("source", receipt.SourceID),
			slog.String("parent", receipt.OriginalParentID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("move: undo %s: %w", receipt.SourceID, err)
	}
	banner := cancelledBanner(src)
	c.source.ParentID = receipt.OriginalParentID
	c.source.Index = receipt.OriginalIndex
	c.banner = banner
	c.mu.Unlock()

	c.logger.Info("move undone",
		slog.String("source", receipt.SourceID),
		slog.String("parent", receipt.OriginalParentID))
	c.notifier.Notify(Event{Type: EventBannerShown, Banner: banner})
	return banner, nil
}

// send wraps one transport call in its progress notification. The request
// outlives the caller's cancellation.
func (c *Controller) send(ctx context.Context, req models.MoveRequest, n Notification) (*models.MoveResponse, error) {
	shown := n
	c.notifier.Notify(Event{Type: EventNotificationShown, Notification: &shown})
	resp, err := c.transport.Move(context.WithoutCancel(ctx), req)
	hidden := n
	c.notifier.Notify(Event{Type: EventNotificationHidden, Notification: &hidden})
	return resp, err
}
