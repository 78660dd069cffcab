package ws

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// GroupFunc normalizes a requested group name. It reports false when the
// name is not acceptable.
type GroupFunc func(group string) (string, bool)

// Hub tracks connected clients and their ticker group subscriptions. All
// membership changes except joins and leaves go through Run.
type Hub struct {
	name       string
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // group -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GroupMessage
	done       chan struct{}
	normalize  GroupFunc
	onJoin     func(group string)
	mu         sync.RWMutex
	logger     *zap.Logger
}

// GroupMessage is a frame addressed to every subscriber of Group.
type GroupMessage struct {
	Group string
	Frame Frame
}

// NewHub creates a Hub. A nil normalize accepts every non-empty group.
func NewHub(name string, normalize GroupFunc, logger *zap.Logger) *Hub {
	if normalize == nil {
		normalize = func(g string) (string, bool) { return g, g != "" }
	}
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GroupMessage, 256),
		done:       make(chan struct{}),
		normalize:  normalize,
		logger:     logger,
	}
}

// OnJoin registers fn to run whenever a group gains its first subscriber.
// Must be called before Run.
func (h *Hub) OnJoin(fn func(group string)) {
	h.onJoin = fn
}

// Run processes hub events until ctx is cancelled, then closes every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down", zap.String("hub", h.name), zap.Int("clients", h.ClientCount()))
			h.shutdown()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.groups[msg.Group] {
				h.deliver(client, client.pick(msg.Frame))
			}
			h.mu.RUnlock()
		}
	}
}

// enter hands a new client to Run. It reports false once the hub stopped.
func (h *Hub) enter(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a client back to Run for removal.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("client registered", zap.String("hub", h.name), zap.String("connID", c.connID))
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for group := range c.groups {
		h.dropMember(group, c)
	}
	close(c.send)
	h.logger.Debug("client unregistered", zap.String("hub", h.name), zap.String("connID", c.connID))
}

// dropMember removes c from group, deleting the group when it empties.
// Caller holds h.mu.
func (h *Hub) dropMember(group string, c *Client) {
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]bool)
	h.groups = make(map[string]map[*Client]bool)
}

// deliver queues payload without blocking; a full buffer schedules a disconnect.
func (h *Hub) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("client too slow, disconnecting", zap.String("connID", c.connID))
		go h.leave(c)
	}
}

// JoinGroup adds a client to a group and returns the normalized name.
func (h *Hub) JoinGroup(client *Client, group string) (string, bool) {
	group, ok := h.normalize(group)
	if !ok {
		return "", false
	}

	h.mu.Lock()
	first := len(h.groups[group]) == 0
	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][client] = true
	client.groups[group] = true
	h.mu.Unlock()

	h.logger.Debug("client joined group",
		zap.String("hub", h.name),
		zap.String("connID", client.connID),
		zap.String("group", group),
	)

	if first && h.onJoin != nil {
		h.onJoin(group)
	}
	return group, true
}

// LeaveGroup removes a client from a group.
func (h *Hub) LeaveGroup(client *Client, group string) {
	if g, ok := h.normalize(group); ok {
		group = g
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropMember(group, client)
	delete(client.groups, group)

	h.logger.Debug("client left group",
		zap.String("hub", h.name),
		zap.String("connID", client.connID),
		zap.String("group", group),
	)
}

// GetActiveGroups returns all groups with at least one subscriber, sorted.
func (h *Hub) GetActiveGroups() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var groups []string
	for group, clients := range h.groups {
		if len(clients) > 0 {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)
	return groups
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a frame to all clients in a group. Each client receives
// the encoding matching its negotiated protocol.
func (h *Hub) Broadcast(group string, frame Frame) {
	h.broadcast <- &GroupMessage{Group: group, Frame: frame}
}
