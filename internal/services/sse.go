package services

import (
	"sync"
	"time"
)

// ImportEvent is pushed to SSE subscribers when an import changes state.
type ImportEvent struct {
	ImportID        uint      `json:"import_id"`
	CoordinatorID   uint      `json:"coordinator_id"`
	FileName        string    `json:"file_name"`
	Status          string    `json:"status"` // queued, running, completed, failed
	Success         int       `json:"success"`
	Failed          int       `json:"failed"`
	CreatedProjects int       `json:"created_projects"`
	UpdatedProjects int       `json:"updated_projects"`
	Error           string    `json:"error,omitempty"`
	At              time.Time `json:"at"`
}

// ImportEventHub fans import events out to connected SSE clients.
type ImportEventHub struct {
	clients map[string]chan ImportEvent
	mu      sync.RWMutex
}

func NewImportEventHub() *ImportEventHub {
	return &ImportEventHub{
		clients: make(map[string]chan ImportEvent),
	}
}

// Subscribe registers a client. The channel is buffered; slow clients lose events.
func (h *ImportEventHub) Subscribe(clientID string) <-chan ImportEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ImportEvent, 32)
	h.clients[clientID] = ch
	return ch
}

func (h *ImportEventHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

func (h *ImportEventHub) Publish(event ImportEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *ImportEventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var (
	globalImportHub *ImportEventHub
	importHubOnce   sync.Once
)

// GetImportEventHub returns the process-wide hub.
func GetImportEventHub() *ImportEventHub {
	importHubOnce.Do(func() {
		globalImportHub = NewImportEventHub()
	})
	return globalImportHub
}
