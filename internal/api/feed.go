package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── Live Engagement Feed ───────────────────────────────────────────────────
// Server-Sent Events stream of engagement outcomes: points earned, level
// ups, badge unlocks. The ledger emits domain.EngagementEvent through the
// Notifier interface; the hub fans them out to connected clients.

// Feed manages SSE connections for the live engagement feed.
type Feed struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewFeed creates a new engagement broadcast hub.
func NewFeed() *Feed {
	return &Feed{
		clients: make(map[chan []byte]struct{}),
	}
}

// Notify implements domain.Notifier for the ledger.
func (f *Feed) Notify(ev domain.EngagementEvent) {
	f.Broadcast(ev)
}

// Broadcast sends an engagement event to all connected clients.
func (f *Feed) Broadcast(ev domain.EngagementEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.clients {
		select {
		case ch <- data:
		default:
			// Client too slow — drop message
		}
	}
}

// Subscribe registers a new client. Returns the channel and an unsubscribe func.
func (f *Feed) Subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 32)
	f.mu.Lock()
	f.clients[ch] = struct{}{}
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		delete(f.clients, ch)
		f.mu.Unlock()
		close(ch)
	}
}

// ClientCount returns the number of connected clients.
func (f *Feed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// HandleSSE serves the live engagement feed via Server-Sent Events.
// GET /api/feed
func (f *Feed) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush()

	ch, unsub := f.Subscribe()
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
