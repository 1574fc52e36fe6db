// Package stream is the typed ActivityChanged event channel. Observers
// subscribe per user; delivery is best-effort with no replay. With a Redis
// client the hub also fans events out across nodes.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"

	"backend-staysafe/internal/activity"

	"github.com/redis/go-redis/v9"
)

type Hub struct {
	redis   *redis.Client
	clients map[int]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID int
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[int]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Subscribe(userID int) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

// Publish pushes the updated activity, by value, to every observer of its
// owner. With Redis configured the event goes through pub/sub so other nodes
// see it too; on publish failure it degrades to local delivery.
func (h *Hub) Publish(act activity.Activity) {
	payload, err := json.Marshal(act)
	if err != nil {
		log.Printf("stream: marshal activity %d: %v", act.ID, err)
		return
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(act.UserID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliver(act.UserID, payload)
}

func (h *Hub) deliver(userID int, payload []byte) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "activities:*:changed")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		userID, ok := userIDFromChannel(msg.Channel)
		if !ok {
			continue
		}
		h.deliver(userID, []byte(msg.Payload))
	}
}

func redisChannel(userID int) string {
	return "activities:" + strconv.Itoa(userID) + ":changed"
}

func userIDFromChannel(ch string) (int, bool) {
	// activities:{user}:changed
	rest, ok := strings.CutPrefix(ch, "activities:")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ":changed")
	if !ok {
		return 0, false
	}
	userID, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return userID, true
}
