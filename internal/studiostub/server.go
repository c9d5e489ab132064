package studiostub

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/starford/coursemover/internal/api"
	"github.com/starford/coursemover/internal/models"
)

// Default endpoint paths, matching the default studio client settings.
const (
	DefaultXBlockURLRoot = "/xblock"
	DefaultOutlinePath   = "/course"
)

const maxBodyBytes = 1 << 20

// Options configures the stub router.
type Options struct {
	XBlockURLRoot string
	OutlinePath   string
	// Token, when set, is required as a Bearer token.
	Token string
	// Fixture, when set, receives every applied move.
	Fixture *Fixture
	Logger  *slog.Logger
}

type handler struct {
	store   *Store
	fixture *Fixture
	logger  *slog.Logger
}

// NewRouter serves the outline at OutlinePath (and any path below it), item
// ancestors at GET {XBlockURLRoot}/{id}?fields=ancestorInfo and moves at
// PATCH {XBlockURLRoot}/.
func NewRouter(store *Store, opts Options) chi.Router {
	if opts.XBlockURLRoot == "" {
		opts.XBlockURLRoot = DefaultXBlockURLRoot
	}
	if opts.OutlinePath == "" {
		opts.OutlinePath = DefaultOutlinePath
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &handler{store: store, fixture: opts.Fixture, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(api.AuthMiddleware(opts.Token != "", opts.Token))

	outline := "/" + strings.Trim(opts.OutlinePath, "/")
	r.Get(outline, h.outline)
	r.Get(outline+"/*", h.outline)

	r.Route("/"+strings.Trim(opts.XBlockURLRoot, "/"), func(r chi.Router) {
		r.Patch("/", h.move)
		r.Get("/{id}", h.xblock)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnknownBlock):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidMove):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *handler) outline(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Outline())
}

func (h *handler) xblock(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("fields") != "ancestorInfo" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only fields=ancestorInfo is supported"})
		return
	}
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid locator"})
		return
	}
	info, err := h.store.Ancestors(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handler) move(w http.ResponseWriter, r *http.Request) {
	var req models.MoveRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.SourceLocator == "" || req.ParentLocator == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "move_source_locator and parent_locator are required"})
		return
	}
	resp, err := h.store.Move(req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("stub: moved",
		slog.String("source", resp.SourceLocator),
		slog.String("parent", resp.ParentLocator),
		slog.Int("index", *resp.TargetIndex))
	if h.fixture != nil {
		if err := h.fixture.Save(h.store.Outline()); err != nil {
			h.logger.Error("stub: save fixture", slog.String("error", err.Error()))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
