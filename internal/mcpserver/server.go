// Package mcpserver provides an MCP (Model Context Protocol) server
// that lets an agent drive move sessions over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/coursemover/internal/apperr"
	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/panel"
	"github.com/starford/coursemover/internal/session"
	"github.com/starford/coursemover/internal/studio"
)

// MoveRulesURI is the resource holding MoveRules.
const MoveRulesURI = "coursemover://move-rules"

// loadTimeout bounds how long open_move_session waits for the outline.
const loadTimeout = 30 * time.Second

// Server wraps the MCP server with move-session tools.
type Server struct {
	mcp      *server.MCPServer
	sessions *session.Manager
}

// New creates a new MCP server with all tools registered.
func New(sessions *session.Manager) *Server {
	s := &Server{sessions: sessions}

	s.mcp = server.NewMCPServer(
		"Coursemover",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("open_move_session",
		mcp.WithDescription("Open a move picker for one course outline item. Loads the outline and "+
			"the item's ancestors, then shows the list at the item's current parent. "+
			"Read the rules first via get_move_rules or the "+MoveRulesURI+" resource."),
		mcp.WithString("source_locator", mcp.Required(), mcp.Description("Usage locator of the item to move")),
		mcp.WithString("display_name", mcp.Required(), mcp.Description("Display name of the item to move")),
		mcp.WithString("category", mcp.Description("Item category: section, subsection, unit or component (default component)")),
		mcp.WithString("parent_locator", mcp.Description("Locator of the item's current parent (default taken from its ancestors)")),
	), s.openSession)

	s.mcp.AddTool(mcp.NewTool("show_location",
		mcp.WithDescription("Show the breadcrumb, the list of children and whether the current location accepts the item."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session id returned by open_move_session")),
	), s.showLocation)

	s.mcp.AddTool(mcp.NewTool("descend",
		mcp.WithDescription("Open the child at the given row of the current list."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based row index")),
	), s.descend)

	s.mcp.AddTool(mcp.NewTool("ascend",
		mcp.WithDescription("Go back to the breadcrumb at the given depth (0 is the course outline)."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
		mcp.WithNumber("depth", mcp.Required(), mcp.Description("Breadcrumb depth")),
	), s.ascend)

	s.mcp.AddTool(mcp.NewTool("move_item",
		mcp.WithDescription("Move the item under the current location. Fails unless the location is eligible."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
		mcp.WithNumber("target_index", mcp.Description("Optional position among the new siblings")),
	), s.moveItem)

	s.mcp.AddTool(mcp.NewTool("undo_move",
		mcp.WithDescription("Move the item back to where it was before the last move."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
	), s.undoMove)

	s.mcp.AddTool(mcp.NewTool("close_move_session",
		mcp.WithDescription("Close a move session."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
	), s.closeSession)

	s.mcp.AddTool(mcp.NewTool("get_move_rules",
		mcp.WithDescription("Returns the outline hierarchy and the rules deciding where an item can move."),
	), s.getMoveRules)

	s.mcp.AddResource(
		mcp.NewResource(MoveRulesURI, "Move Rules",
			mcp.WithResourceDescription("Outline hierarchy and move eligibility rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMoveRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(err error) *mcp.CallToolResult {
	var te *studio.TransportError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("session not found")
	case errors.Is(err, apperr.ErrNotReady):
		return mcp.NewToolResultError("session is still loading")
	case errors.Is(err, navigation.ErrIndexOutOfRange):
		return mcp.NewToolResultError("index out of range")
	case errors.Is(err, move.ErrIneligible):
		return mcp.NewToolResultError("current location is not a valid destination")
	case errors.Is(err, move.ErrMoveInFlight):
		return mcp.NewToolResultError("a move is already in progress")
	case errors.Is(err, move.ErrNothingToUndo):
		return mcp.NewToolResultError("nothing to undo")
	case errors.As(err, &te):
		return mcp.NewToolResultError("studio request failed: " + te.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) lookup(req mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	id, err := req.RequireString("session")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, toolError(err)
	}
	return sess, nil
}

func location(sess *session.Session) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("session: %s\n\n%s", sess.ID, panel.Text(sess.Page())))
}

func (s *Server) openSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source_locator")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("display_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.sessions.Open(session.Params{
		SourceID:          source,
		SourceDisplayName: name,
		SourceCategory:    req.GetString("category", ""),
		SourceParentID:    req.GetString("parent_locator", ""),
	})
	if err != nil {
		return toolError(err), nil
	}

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	if err := sess.Wait(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("session %s: outline still loading: %v", sess.ID, err)), nil
	}
	if loadErr := sess.Err(); loadErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("session %s: load outline: %v", sess.ID, loadErr)), nil
	}
	return location(sess), nil
}

func (s *Server) showLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.lookup(req)
	if res != nil {
		return res, nil
	}
	return location(sess), nil
}

func (s *Server) descend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.lookup(req)
	if res != nil {
		return res, nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sess.Descend(index); err != nil {
		return toolError(err), nil
	}
	return location(sess), nil
}

func (s *Server) ascend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.lookup(req)
	if res != nil {
		return res, nil
	}
	depth, err := req.RequireInt("depth")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sess.Ascend(depth); err != nil {
		return toolError(err), nil
	}
	return location(sess), nil
}

func (s *Server) moveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.lookup(req)
	if res != nil {
		return res, nil
	}
	var target *int
	if _, ok := req.GetArguments()["target_index"]; ok {
		idx, err := req.RequireInt("target_index")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		target = &idx
	}
	banner, err := sess.Move(ctx, target)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(panel.BannerText(banner)), nil
}

func (s *Server) undoMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.lookup(req)
	if res != nil {
		return res, nil
	}
	banner, err := sess.Undo(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(panel.BannerText(banner)), nil
}

func (s *Server) closeSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Close(id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("closed: %s", id)), nil
}

func (s *Server) getMoveRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MoveRules), nil
}

func (s *Server) readMoveRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MoveRulesURI,
			MIMEType: "text/markdown",
			Text:     MoveRules,
		},
	}, nil
}
