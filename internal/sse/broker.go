// Package sse streams move-session feedback to browsers as Server-Sent Events.
package sse

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/panel"
)

// Event represents an SSE event to broadcast. An empty Session reaches every
// client; otherwise only clients watching that session or all sessions.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"-"`
	Data    any    `json:"data"`
}

type subscription struct {
	ch      chan []byte
	session string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns the client
// set. Public methods communicate with this loop through channels, so no
// mutexes are required.
type Broker struct {
	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			slog.Warn("sse: encode event", slog.String("type", event.Type), slog.String("error", err.Error()))
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, filter := range clients {
			if filter != "" && event.Session != "" && filter != event.Session {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.session

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client and returns its channel. A non-empty session limits
// delivery to that session's events.
func (b *Broker) Subscribe(session string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, session: session}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to the matching clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// SessionPayload is the data of a move-session event.
type SessionPayload struct {
	Session      string             `json:"session"`
	Notification *move.Notification `json:"notification,omitempty"`
	Banner       *move.Banner       `json:"banner,omitempty"`
	BannerHTML   string             `json:"banner_html,omitempty"`
}

// PublishSession forwards a move-session event. Banners carry their rendered
// HTML so pages can swap the fragment in directly.
func (b *Broker) PublishSession(sessionID string, e move.Event) {
	data := SessionPayload{
		Session:      sessionID,
		Notification: e.Notification,
		Banner:       e.Banner,
	}
	if e.Banner != nil {
		html, err := panel.BannerHTML(e.Banner)
		if err != nil {
			slog.Warn("sse: render banner", slog.String("session", sessionID), slog.String("error", err.Error()))
		}
		data.BannerHTML = html
	}
	b.Publish(Event{Type: string(e.Type), Session: sessionID, Data: data})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// session query parameter narrows the stream to one session.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query().Get("session"))
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

// Publisher adapts a Broker to the session publisher interface.
type Publisher struct {
	B *Broker
}

// Publish implements session.Publisher.
func (p Publisher) Publish(sessionID string, e move.Event) {
	p.B.PublishSession(sessionID, e)
}
