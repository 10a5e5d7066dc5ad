package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"symptom-checker-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries stream messages between instances.
const ClusterChannel = "cluster_events"

// Message is the frame written to the browser.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type clusterPayload struct {
	Origin     string          `json:"origin"`
	SessionKey string          `json:"session_key"`
	Message    json.RawMessage `json:"message"`
}

// Hub tracks the stream connections of every live interview on this
// instance. Several tabs may follow the same session.
type Hub struct {
	// session key -> connected clients
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, nil when running alone
	rdb *redis.Client
	// instanceID lets an instance skip its own messages coming back from Redis
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger, instanceID string) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		instanceID: instanceID,
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionKey] = append(h.clients[client.SessionKey], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_key": client.SessionKey})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// remove closes client.Send only if the client was still registered, so a
// second unregister for the same client is a no-op.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.SessionKey]
	for i, c := range clients {
		if c != client {
			continue
		}
		h.clients[client.SessionKey] = append(clients[:i], clients[i+1:]...)
		close(client.Send)
		break
	}
	if len(h.clients[client.SessionKey]) == 0 {
		delete(h.clients, client.SessionKey)
		h.logger.Info("Hub", "Session has no more listeners", map[string]interface{}{"session_key": client.SessionKey})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, key)
	}
}

// drop asks Run to unregister a client. It never blocks once Run has exited.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends a message to every listener of sessionKey on this instance
// and, when Redis is configured, to the other instances.
func (h *Hub) Publish(ctx context.Context, sessionKey, msgType string, data any) error {
	frame, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return err
	}

	h.deliver(sessionKey, frame)

	if h.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(clusterPayload{Origin: h.instanceID, SessionKey: sessionKey, Message: frame})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, ClusterChannel, payload).Err()
}

// ListenerCount reports how many local connections follow sessionKey.
func (h *Hub) ListenerCount(sessionKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionKey])
}

func (h *Hub) deliver(sessionKey string, frame []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients[sessionKey] {
		select {
		case client.Send <- frame:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// unregister outside the read lock; Run needs the write lock to remove them
	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, disconnecting", map[string]interface{}{"session_key": sessionKey})
		h.drop(client)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.SessionKey, payload.Message)
		}
	}
}
