package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/questscribe/pkg/domain"
)

// allTopic receives every mutation regardless of entity.
const allTopic = "*"

// StreamManager fans committed mutations out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // topic -> set of channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for topic. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(topic string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

// Broadcast delivers msg to every subscriber of topic without blocking.
func (sm *StreamManager) Broadcast(topic string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// Slow client: drop rather than stall the engine.
			sm.logger.Warn("SSE: client buffer full, dropping message", "topic", topic)
		}
	}
}

// Hooks publishes each committed mutation to its entity topic and to the
// catch-all topic.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(_ context.Context, e *domain.MutationEvent) {
			payload, err := json.Marshal(e)
			if err != nil {
				return
			}
			sm.Broadcast(allTopic, string(payload))
			if e.EntityID != "" {
				sm.Broadcast(e.EntityID, string(payload))
			}
		},
	}
}

// SubscribeEvents handles GET /events (SSE), optionally scoped by ?entity_id=.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	topic := allTopic
	if id := r.URL.Query().Get("entity_id"); id != "" {
		topic = id
	}

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: client subscribed", "topic", topic)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: mutation\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
