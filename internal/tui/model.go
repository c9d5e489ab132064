// Package tui is a terminal rendition of the move picker built on bubbletea.
package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/panel"
)

// Picker is the session surface the model drives.
type Picker interface {
	Page() panel.Page
	Descend(index int) error
	Ascend(depth int) error
	Move(ctx context.Context, targetIndex *int) (*move.Banner, error)
	Undo(ctx context.Context) (*move.Banner, error)
}

// EventMsg carries a session event into the program.
type EventMsg struct {
	Event move.Event
}

// LoadedMsg reports that the session finished loading.
type LoadedMsg struct {
	Err error
}

type resultMsg struct {
	banner *move.Banner
	err    error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	crumbStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).PaddingLeft(1)
	enabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// Model is the bubbletea model of the picker.
type Model struct {
	ctx    context.Context
	picker Picker
	keys   keyMap
	help   help.Model

	focus  int
	status string
	err    error
	banner *move.Banner
	width  int
}

// New creates a model over p. Moves run with ctx.
func New(ctx context.Context, p Picker) Model {
	return Model{
		ctx:    ctx,
		picker: p,
		keys:   newKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Focus returns the focused row.
func (m Model) Focus() int {
	return m.focus
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case LoadedMsg:
		m.err = msg.Err
	case EventMsg:
		m.apply(msg.Event)
	case resultMsg:
		m.err = msg.err
		if msg.banner != nil {
			m.banner = msg.banner
		}
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) apply(e move.Event) {
	switch e.Type {
	case move.EventNotificationShown:
		if e.Notification != nil {
			m.status = e.Notification.Text
		}
	case move.EventNotificationHidden:
		m.status = ""
	case move.EventBannerShown:
		m.banner = e.Banner
	}
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.picker.Page()
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case page.Loading:
		return m, nil
	case key.Matches(msg, m.keys.up):
		if m.focus > 0 {
			m.focus--
		}
	case key.Matches(msg, m.keys.down):
		if m.focus < len(page.List.Rows)-1 {
			m.focus++
		}
	case key.Matches(msg, m.keys.descend):
		if m.focus < len(page.List.Rows) && page.List.Rows[m.focus].Forward {
			m.navigate(m.picker.Descend(m.focus))
		}
	case key.Matches(msg, m.keys.ascend):
		if depth := len(page.Breadcrumbs) - 2; depth >= 0 {
			m.navigate(m.picker.Ascend(depth))
		}
	case key.Matches(msg, m.keys.root):
		if len(page.Breadcrumbs) > 1 {
			m.navigate(m.picker.Ascend(0))
		}
	case key.Matches(msg, m.keys.move):
		if page.Eligible && !page.InFlight {
			return m, m.run(func(ctx context.Context) (*move.Banner, error) {
				return m.picker.Move(ctx, nil)
			})
		}
	case key.Matches(msg, m.keys.undo):
		if page.CanUndo && !page.InFlight {
			return m, m.run(m.picker.Undo)
		}
	}
	return m, nil
}

func (m *Model) navigate(err error) {
	m.err = err
	if err == nil {
		m.focus = 0
	}
}

func (m Model) run(fn func(context.Context) (*move.Banner, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		b, err := fn(ctx)
		return resultMsg{banner: b, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	page := m.picker.Page()
	var b strings.Builder
	b.WriteString(titleStyle.Render(page.Title))
	b.WriteString("\n\n")
	if page.Loading {
		b.WriteString(mutedStyle.Render("Loading"))
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()) + "\n\n")
		}
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	b.WriteString(crumbStyle.Render(crumbs(page.Breadcrumbs)))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(page.List.Label))
	b.WriteByte('\n')
	if page.List.EmptyMessage != "" {
		b.WriteString(mutedStyle.Render("  " + page.List.EmptyMessage))
		b.WriteByte('\n')
	}
	for _, r := range page.List.Rows {
		line := "  " + r.DisplayName
		if r.CurrentLocation {
			line += " " + mutedStyle.Render(panel.CurrentLocationText)
		}
		if r.Forward {
			line += " ›"
		}
		if r.Index == m.focus {
			line = focusStyle.Render("> " + strings.TrimPrefix(line, "  "))
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	switch {
	case page.InFlight:
		b.WriteString(mutedStyle.Render("[ Move ] in progress"))
	case page.Eligible:
		b.WriteString(enabledStyle.Render("[ Move ] press m to move here"))
	default:
		b.WriteString(mutedStyle.Render("[ Move ] not available here"))
	}
	b.WriteByte('\n')

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status+"…") + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	if banner := m.currentBanner(page); banner != nil {
		text := panel.BannerText(banner)
		if banner.Undo != nil {
			text += "  [u] Undo move"
		}
		b.WriteString("\n" + bannerStyle.Render(text) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) currentBanner(page panel.Page) *move.Banner {
	if page.Banner != nil {
		return page.Banner
	}
	return m.banner
}

func crumbs(cs []panel.Crumb) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Label
	}
	return strings.Join(parts, " › ")
}

// Forwarder relays session events into a running program. Events published
// before Attach are dropped.
type Forwarder struct {
	mu   sync.Mutex
	prog *tea.Program
}

// Attach sets the program events go to.
func (f *Forwarder) Attach(p *tea.Program) {
	f.mu.Lock()
	f.prog = p
	f.mu.Unlock()
}

// Publish implements session.Publisher.
func (f *Forwarder) Publish(_ string, e move.Event) {
	f.mu.Lock()
	p := f.prog
	f.mu.Unlock()
	if p != nil {
		p.Send(EventMsg{Event: e})
	}
}
