package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

type EventType string

const (
	EventInitialProgress EventType = "initial_progress"
	EventProgressUpdate  EventType = "progress_update"
	EventHeartbeat       EventType = "heartbeat"
)

// Message is one unit delivered to a subscriber, framed on the wire as
// "event: <type>\ndata: <json>\n\n".
type Message struct {
	Type      EventType             `json:"type"`
	UserID    string                `json:"userId,omitempty"`
	Progress  *types.ProgressRecord `json:"progress,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// Sink is one live delivery channel to a connected client. Emit must not
// block; a sink that cannot accept a message returns an error and the hub
// moves on to the remaining sinks.
type Sink interface {
	Emit(msg Message) error
}

// Hub keeps the live set of sinks per user and fans progress updates out to
// them. Delivery is at-most-once, latest-state-wins: no queuing, no replay.
type Hub struct {
	mu          sync.RWMutex
	log         *logger.Logger
	subscribers map[uuid.UUID]map[Sink]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:         log.With("component", "SSEHub"),
		subscribers: make(map[uuid.UUID]map[Sink]struct{}),
	}
}

// Subscribe registers sink under userID and returns an idempotent
// unsubscribe func. Removing the last sink for a user frees the per-user
// registry entry.
func (h *Hub) Subscribe(userID uuid.UUID, sink Sink) func() {
	h.mu.Lock()
	sinks, ok := h.subscribers[userID]
	if !ok {
		sinks = make(map[Sink]struct{})
		h.subscribers[userID] = sinks
	}
	sinks[sink] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("SSE sink subscribed", "userID", userID)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if sinks, ok := h.subscribers[userID]; ok {
				delete(sinks, sink)
				if len(sinks) == 0 {
					delete(h.subscribers, userID)
				}
			}
			h.mu.Unlock()
			h.log.Debug("SSE sink unsubscribed", "userID", userID)
		})
	}
}

// SubscriberCount reports the number of live sinks for a user.
func (h *Hub) SubscriberCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Broadcast delivers msg to every sink currently registered for userID.
// A failing sink is logged and skipped; it is never removed here — only an
// explicit unsubscribe or the transport's disconnect signal removes sinks.
func (h *Hub) Broadcast(userID uuid.UUID, msg Message) {
	h.mu.RLock()
	sinks := make([]Sink, 0, len(h.subscribers[userID]))
	for s := range h.subscribers[userID] {
		sinks = append(sinks, s)
	}
	h.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Emit(msg); err != nil {
			h.log.Warn("Dropping SSE message", "userID", userID, "event", msg.Type, "error", err)
		}
	}
}

// BroadcastAll delivers msg to every open sink regardless of user. Used by
// the heartbeat so idle streams are not cut by intermediaries.
func (h *Hub) BroadcastAll(msg Message) {
	h.mu.RLock()
	sinks := make([]Sink, 0)
	for _, userSinks := range h.subscribers {
		for s := range userSinks {
			sinks = append(sinks, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Emit(msg); err != nil {
			h.log.Warn("Dropping SSE heartbeat", "event", msg.Type, "error", err)
		}
	}
}

// StartHeartbeat runs a process-wide ticker that emits a heartbeat marker
// to every open stream until ctx is cancelled.
func (h *Hub) StartHeartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h.BroadcastAll(Message{Type: EventHeartbeat, Timestamp: now.UTC()})
			}
		}
	}()
}

// ServeHTTP drains a client's outbound buffer onto one open HTTP response
// until the client disconnects or is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("SSE client disconnected", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case msg := <-client.Outbound:
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("Failed to marshal SSE message", "clientID", client.ID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", msg.Type)
			fmt.Fprintf(w, "data: %s\n\n", raw)
			flusher.Flush()
		}
	}
}
