package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans outbound messages out to SSE subscribers of a conversant.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ConversantID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for the conversant. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(conversantID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[conversantID]; !ok {
		sm.subscribers[conversantID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[conversantID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[conversantID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, conversantID)
			}
		}
	}
}

// Broadcast delivers msg to every subscriber without blocking.
func (sm *StreamManager) Broadcast(conversantID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[conversantID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "conversant_id", conversantID)
		}
	}
}
