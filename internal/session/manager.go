package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/coursemover/internal/apperr"
	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/outline"
	"github.com/starford/coursemover/internal/panel"
	"github.com/starford/coursemover/internal/studio"
)

// Client is the Studio surface a session needs.
type Client interface {
	studio.Fetcher
	move.Transport
}

// Publisher fans session feedback out to listeners.
type Publisher interface {
	Publish(sessionID string, e move.Event)
}

// Manager opens, finds and closes sessions.
type Manager struct {
	client Client
	pub    Publisher
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Background loads stop when ctx is done or
// Shutdown is called. pub may be nil.
func NewManager(ctx context.Context, client Client, pub Publisher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		client:   client,
		pub:      pub,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

func (p Params) validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.SourceID, validation.Required),
		validation.Field(&p.SourceDisplayName, validation.Required),
	)
}

// Open registers a session and starts loading its outline and ancestors in the
// background.
func (m *Manager) Open(p Params) (*Session, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("open session: %v: %w", err, apperr.ErrInvalid)
	}
	s := newSession(uuid.NewString(), p)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.load(s)
	}()
	m.logger.Info("session opened", slog.String("session", s.ID), slog.String("source", p.SourceID))
	return s, nil
}

func (m *Manager) load(s *Session) {
	loaded, err := studio.Load(m.ctx, m.client, s.Params.SourceID)
	if err != nil {
		m.logger.Error("session load failed",
			slog.String("session", s.ID),
			slog.String("error", err.Error()))
		s.fail(err)
		return
	}

	src := move.Source{
		ID:          s.Params.SourceID,
		DisplayName: s.Params.SourceDisplayName,
		Category:    outline.NormalizeCategory(s.Params.SourceCategory),
		ParentID:    s.Params.SourceParentID,
	}
	if src.ParentID == "" {
		if parent, ok := loaded.Chain.Parent(); ok {
			src.ParentID = parent.ID
		}
	}

	cursor := navigation.New(loaded.Tree, loaded.Chain)
	ctrl := move.NewController(cursor, src, m.client, m.notifier(s.ID), m.logger.With(slog.String("session", s.ID)))
	s.ready(ctrl, panel.MarksFromChain(loaded.Tree, loaded.Chain))
	m.logger.Info("session ready",
		slog.String("session", s.ID),
		slog.Int("nodes", loaded.Tree.Len()))
}

func (m *Manager) notifier(id string) move.Notifier {
	if m.pub == nil {
		return nil
	}
	return move.NotifierFunc(func(e move.Event) {
		m.pub.Publish(id, e)
	})
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// List returns the open sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close forgets a session. A move already sent to Studio still completes.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	delete(m.sessions, id)
	m.logger.Info("session closed", slog.String("session", id))
	return nil
}

// Shutdown cancels pending loads and waits for them to return.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}
