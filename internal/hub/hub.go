package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"airportmath/internal/departure"
	"airportmath/internal/domain"
)

// Evaluator measures the time left until a leave time against its own clock
type Evaluator interface {
	Now() time.Time
	TimeUntil(leaveTime time.Time) domain.TimeUntil
}

// Watch is one leave-by time a client is counting down to
type Watch struct {
	Mode      string    `json:"mode"`
	LeaveTime time.Time `json:"leaveTime"`
}

type Client struct {
	ID      string
	Send    chan []byte
	watches []Watch
	mu      sync.RWMutex
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:   id,
		Send: make(chan []byte, bufferSize),
	}
}

// SetWatches replaces everything the client is counting down to
func (c *Client) SetWatches(watches []Watch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watches = append([]Watch(nil), watches...)
}

func (c *Client) Watches() []Watch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Watch(nil), c.watches...)
}

// Hub pushes a status message to every client with watches on each tick
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	evaluator Evaluator
	interval  time.Duration
	sent      atomic.Int64
	dropped   atomic.Int64

	logger *slog.Logger
}

func NewHub(evaluator Evaluator, interval time.Duration, logger *slog.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		evaluator: evaluator,
		interval:  interval,
		logger:    logger.With("component", "countdown_hub"),
	}
}

// Run ticks until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case <-ticker.C:
			h.fanoutStatus()
		}
	}
}

// Register adds a client. After shutdown the client is closed immediately.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(client.Send)
		return
	}
	h.clients[client] = struct{}{}
	h.logger.Debug("client registered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) Unregister(client *Client) {
	h.removeClient(client)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Sent counts messages queued to clients
func (h *Hub) Sent() int64 { return h.sent.Load() }

// Dropped counts messages skipped because a client buffer was full
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Push sends a registered client its current status right away instead of
// waiting for the next tick.
func (h *Hub) Push(client *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	h.deliver(client, client.Watches())
}

// SendTo queues a raw message for a registered client. It reports false when
// the client is gone or its buffer is full.
func (h *Hub) SendTo(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}
	return h.enqueue(client, data)
}

type StatusMessage struct {
	Type    string        `json:"type"`
	Payload StatusPayload `json:"payload"`
}

type StatusPayload struct {
	Statuses   []ModeStatus `json:"statuses"`
	ServerTime time.Time    `json:"serverTime"`
}

type ModeStatus struct {
	Mode      string           `json:"mode"`
	LeaveTime time.Time        `json:"leaveTime"`
	TimeUntil domain.TimeUntil `json:"timeUntil"`
	Summary   string           `json:"summary"`
}

// BuildStatus evaluates every watch against the current time
func BuildStatus(evaluator Evaluator, watches []Watch) StatusMessage {
	statuses := make([]ModeStatus, 0, len(watches))
	for _, w := range watches {
		until := evaluator.TimeUntil(w.LeaveTime)
		statuses = append(statuses, ModeStatus{
			Mode:      w.Mode,
			LeaveTime: w.LeaveTime,
			TimeUntil: until,
			Summary:   departure.SummaryFor(until),
		})
	}
	return StatusMessage{
		Type: "status",
		Payload: StatusPayload{
			Statuses:   statuses,
			ServerTime: evaluator.Now(),
		},
	}
}

func (h *Hub) fanoutStatus() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		h.deliver(client, client.Watches())
	}
}

func (h *Hub) deliver(client *Client, watches []Watch) {
	if len(watches) == 0 {
		return
	}

	data, err := json.Marshal(BuildStatus(h.evaluator, watches))
	if err != nil {
		return
	}
	h.enqueue(client, data)
}

// enqueue must be called with h.mu held
func (h *Hub) enqueue(client *Client, data []byte) bool {
	select {
	case client.Send <- data:
		h.sent.Add(1)
		return true
	default:
		h.dropped.Add(1)
		h.logger.Debug("client send buffer full", "client_id", client.ID)
		return false
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.closed = true
}
