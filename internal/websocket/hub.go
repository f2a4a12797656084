package websocket

import (
	"encoding/json"
	"sync"
	"time"
)

const TopicWinners = "winners"

// WinEvent is pushed to feed subscribers after a win commits.
type WinEvent struct {
	Type       string    `json:"type"`
	GameName   string    `json:"game_name"`
	Name       string    `json:"name"`
	PrizeLabel string    `json:"prize_label,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	IsPhysical bool      `json:"is_physical"`
	CreatedAt  time.Time `json:"created_at"`
}

// VaultUpdate carries the public view of a vault after its balance moved.
type VaultUpdate struct {
	Type               string `json:"type"`
	GameName           string `json:"game_name"`
	AvailableForPrizes string `json:"available_for_prizes"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) Unregister(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		return
	}
	delete(h.clients[topic], client)
	if len(h.clients[topic]) == 0 {
		delete(h.clients, topic)
	}
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) BroadcastWin(event WinEvent) {
	if event.Type == "" {
		event.Type = "win"
	}
	h.broadcast(TopicWinners, event)
}

func (h *Hub) BroadcastVault(update VaultUpdate) {
	update.Type = "vault"
	h.broadcast(TopicWinners, update)
}

// broadcast drops the message for clients whose buffer is full.
func (h *Hub) broadcast(topic string, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
