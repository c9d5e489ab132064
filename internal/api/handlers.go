package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/coursemover/internal/apperr"
	"github.com/starford/coursemover/internal/checksum"
	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/panel"
	"github.com/starford/coursemover/internal/session"
	"github.com/starford/coursemover/internal/studio"
)

// Handler holds API route handlers.
type Handler struct {
	sessions *session.Manager
}

// NewHandler creates a new Handler.
func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	var te *studio.TransportError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, navigation.ErrIndexOutOfRange):
		writeJSON(w, http.StatusBadRequest, errorBody("index out of range"))
	case errors.Is(err, apperr.ErrNotReady):
		writeJSON(w, http.StatusConflict, errorBody("session is still loading"))
	case errors.Is(err, move.ErrIneligible):
		writeJSON(w, http.StatusConflict, errorBody("current location is not a valid destination"))
	case errors.Is(err, move.ErrMoveInFlight):
		writeJSON(w, http.StatusConflict, errorBody("a move is already in progress"))
	case errors.Is(err, move.ErrNothingToUndo):
		writeJSON(w, http.StatusConflict, errorBody("nothing to undo"))
	case errors.As(err, &te):
		slog.Warn(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("studio request failed"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request, op string) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, op, err)
		return nil, false
	}
	return s, true
}

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open a move session for an outline item
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Item to move"
//	@Success		202		{object}	OpenSessionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	s, err := h.sessions.Open(req)
	if err != nil {
		writeError(w, "open session", err)
		return
	}
	writeJSON(w, http.StatusAccepted, OpenSessionResponse{ID: s.ID, State: s.State()})
}

// ListSessions handles GET /api/sessions.
//
//	@Summary		List open move sessions
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	SessionListResponse
//	@Security		BearerAuth
//	@Router			/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	all := h.sessions.List()
	out := SessionListResponse{Sessions: make([]SessionSummary, 0, len(all))}
	for _, s := range all {
		out.Sessions = append(out.Sessions, SessionSummary{ID: s.ID, State: s.State(), Source: s.Params})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get a move session snapshot
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	session.Snapshot
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, "get session")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// GetView handles GET /api/sessions/{id}/view.
//
//	@Summary		Render the move picker as an HTML fragment
//	@Tags			sessions
//	@Produce		html
//	@Param			id				path	string	true	"Session id"
//	@Param			If-None-Match	header	string	false	"ETag of a previous render"
//	@Success		200	{string}	string
//	@Success		304	"Not modified"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/view [get]
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, "render view")
	if !ok {
		return
	}
	html, etag, err := s.View()
	if err != nil {
		writeError(w, "render view", err)
		return
	}
	w.Header().Set("ETag", etag)
	if checksum.NoneMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// Descend handles POST /api/sessions/{id}/descend.
//
//	@Summary		Open a child row
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session id"
//	@Param			body	body		DescendRequest	true	"Row index"
//	@Success		200		{object}	session.Snapshot
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/descend [post]
func (h *Handler) Descend(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, "descend")
	if !ok {
		return
	}
	var req DescendRequest
	if err := readJSON(w, r, &req); err != nil || req.Index == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index is required"))
		return
	}
	if err := s.Descend(*req.Index); err != nil {
		writeError(w, "descend", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Ascend handles POST /api/sessions/{id}/ascend.
//
//	@Summary		Return to a breadcrumb
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session id"
//	@Param			body	body		AscendRequest	true	"Breadcrumb depth"
//	@Success		200		{object}	session.Snapshot
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/ascend [post]
func (h *Handler) Ascend(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, "ascend")
	if !ok {
		return
	}
	var req AscendRequest
	if err := readJSON(w, r, &req); err != nil || req.Depth == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("depth is required"))
		return
	}
	if err := s.Ascend(*req.Depth); err != nil {
		writeError(w, "ascend", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Move handles POST /api/sessions/{id}/move.
//
//	@Summary		Move the item under the current location
//	@Tags			move
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session id"
//	@Param			body	body		MoveRequest	false	"Optional target index"
//	@Success		200		{object}	BannerResponse
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/move [post]
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, "move")
	if !ok {
		return
	}
	var req MoveRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	banner, err := s.Move(r.Context(), req.TargetIndex)
	if err != nil {
		writeError(w, "move", err)
		return
	}
	writeBanner(w, banner)
}

// Undo handles POST /api/sessions/{id}/undo.
//
//	@Summary		Undo the last move
//	@Tags			move
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	BannerResponse
//	@Failure		409	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/undo [post]
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, "undo")
	if !ok {
		return
	}
	banner, err := s.Undo(r.Context())
	if err != nil {
		writeError(w, "undo", err)
		return
	}
	writeBanner(w, banner)
}

func writeBanner(w http.ResponseWriter, b *move.Banner) {
	html, err := panel.BannerHTML(b)
	if err != nil {
		writeError(w, "render banner", err)
		return
	}
	writeJSON(w, http.StatusOK, BannerResponse{Banner: b, HTML: html})
}

// CloseSession handles DELETE /api/sessions/{id}.
//
//	@Summary		Close a move session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204	"Session closed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
