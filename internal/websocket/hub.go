package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/pkg/logger"
)

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fanout. Nil when running a single
	// instance; local delivery still works.
	rdb *redis.Client

	// instanceID marks this hub's own cluster messages so the subscriber can
	// skip the echo of its own publishes.
	instanceID string

	// Dedicated Logger
	logger logger.ILogger
}

// clusterEvent is the fanout envelope shared over redis between instances.
type clusterEvent struct {
	TargetUserID string          `json:"target_user_id"`
	Origin       string          `json:"origin"`
	Message      json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send pushes an insight notification to every connection of one user.
// (NotificationDelivery interface implementation)
func (h *Hub) Send(userID uuid.UUID, notification dto.InsightNotification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "insight_extracted",
		"data": notification,
	})

	h.mu.RLock()
	clients, localFound := h.clients[userID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Evict the slow consumer. Closing its channel is the
				// unregister path's job; closing here too would close twice
				// and panic the Run loop.
				h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"user_id": userID})
				h.unregister <- client
			}
		}
	}

	// Fan out to other instances; the user may be connected elsewhere.
	if h.rdb != nil {
		jsonPayload, _ := json.Marshal(clusterEvent{
			TargetUserID: userID.String(),
			Origin:       h.instanceID,
			Message:      data,
		})
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the shared channel and delivers only to
	// the users it holds locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		h.deliverClusterEvent(msg.Payload)
	}
}

// deliverClusterEvent relays one fanout message to local clients. Events this
// instance published itself are skipped: their local delivery already happened
// in Send.
func (h *Hub) deliverClusterEvent(rawPayload string) {
	var payload clusterEvent
	if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
		log.Printf("Redis msg parse error: %v", err)
		return
	}

	if payload.Origin == h.instanceID {
		return
	}

	uid, err := uuid.Parse(payload.TargetUserID)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients, ok := h.clients[uid]
	h.mu.RUnlock()

	if ok {
		for _, client := range clients {
			select {
			case client.Send <- payload.Message:
			default:
				h.unregister <- client
			}
		}
	}
}
