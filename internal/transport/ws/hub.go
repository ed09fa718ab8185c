package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"velvethour/internal/model"
	"velvethour/internal/presence"
)

// Hub manages WebSocket connections per event. At most one connection per
// (event, user): a reconnect replaces the previous connection, last writer
// wins. Presence counters track users, not sockets, so a replacement never
// moves the count.
type Hub struct {
	// eventID -> userID -> client
	clients map[string]map[string]*Client

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound

	tracker          *presence.Tracker
	heartbeatTimeout time.Duration
}

// Client is one live WebSocket connection.
type Client struct {
	EventID  string
	UserID   string
	IsAdmin  bool
	Send     chan []byte
	lastBeat atomic.Int64
}

func (c *Client) beat() {
	c.lastBeat.Store(time.Now().UnixMilli())
}

type outbound struct {
	eventID string
	userID  string // empty means every connection of the event
	data    []byte
}

func NewHub(tracker *presence.Tracker, heartbeatTimeout time.Duration) *Hub {
	return &Hub{
		clients:          make(map[string]map[string]*Client),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		broadcast:        make(chan *outbound, 256),
		tracker:          tracker,
		heartbeatTimeout: heartbeatTimeout,
	}
}

// Start launches the hub loops. The hub stops accepting work when ctx is
// cancelled; callers own the lifecycle, nothing starts in the constructor.
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
	go h.sweep(ctx)
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.EventID] == nil {
				h.clients[client.EventID] = make(map[string]*Client)
			}
			old := h.clients[client.EventID][client.UserID]
			h.clients[client.EventID][client.UserID] = client
			h.mu.Unlock()

			if old != nil {
				close(old.Send)
				log.Debug().
					Str("event_id", client.EventID).
					Str("user_id", client.UserID).
					Msg("connection replaced by reconnect")
				continue
			}

			if err := h.tracker.Connected(ctx, client.EventID, client.UserID); err != nil {
				log.Error().Err(err).Str("event_id", client.EventID).Msg("failed to record presence")
			}
			log.Info().
				Str("event_id", client.EventID).
				Str("user_id", client.UserID).
				Bool("admin", client.IsAdmin).
				Msg("connected")
			h.broadcastPresence(ctx, client.EventID)

		case client := <-h.unregister:
			h.mu.Lock()
			gone := false
			if users, ok := h.clients[client.EventID]; ok {
				if existing, ok := users[client.UserID]; ok && existing == client {
					delete(users, client.UserID)
					close(client.Send)
					gone = true
					if len(users) == 0 {
						delete(h.clients, client.EventID)
					}
				}
			}
			h.mu.Unlock()

			// A replaced connection unregisters later; the user is still here.
			if !gone {
				continue
			}
			if err := h.tracker.Disconnected(ctx, client.EventID, client.UserID); err != nil {
				log.Error().Err(err).Str("event_id", client.EventID).Msg("failed to record disconnect")
			}
			log.Info().
				Str("event_id", client.EventID).
				Str("user_id", client.UserID).
				Msg("disconnected")
			if !client.IsAdmin {
				h.send(client.EventID, "", model.MsgParticipantLeft, model.ParticipantLeft{UserID: client.UserID})
			}
			h.broadcastPresence(ctx, client.EventID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			if users, ok := h.clients[msg.eventID]; ok {
				if msg.userID != "" {
					if client, ok := users[msg.userID]; ok {
						trySend(client, msg.data)
					}
				} else {
					for _, client := range users {
						trySend(client, msg.data)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// trySend drops the message when the client's buffer is full. Slow readers
// resync over REST; losing a snapshot is harmless since the next one is
// complete on its own.
func trySend(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
	}
}

// sweep drops connections that produced no traffic within the heartbeat
// timeout even though the TCP connection still looks alive.
func (h *Hub) sweep(ctx context.Context) {
	if h.heartbeatTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(h.heartbeatTimeout / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-h.heartbeatTimeout).UnixMilli()
			var stale []*Client
			h.mu.RLock()
			for _, users := range h.clients {
				for _, client := range users {
					if client.lastBeat.Load() < cutoff {
						stale = append(stale, client)
					}
				}
			}
			h.mu.RUnlock()
			for _, client := range stale {
				log.Info().
					Str("event_id", client.EventID).
					Str("user_id", client.UserID).
					Msg("heartbeat timeout, dropping connection")
				h.Unregister(client)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	client.beat()
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToEvent implements service.Broadcaster.
func (h *Hub) BroadcastToEvent(eventID string, msgType model.MessageType, payload interface{}) {
	h.send(eventID, "", msgType, payload)
}

// BroadcastToUser implements service.Broadcaster.
func (h *Hub) BroadcastToUser(eventID, userID string, msgType model.MessageType, payload interface{}) {
	h.send(eventID, userID, msgType, payload)
}

func (h *Hub) send(eventID, userID string, msgType model.MessageType, payload interface{}) {
	envelope, err := model.NewEnvelope(msgType, eventID, payload)
	if err != nil {
		log.Error().Err(err).Str("type", string(msgType)).Msg("failed to build envelope")
		return
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Error().Err(err).Str("type", string(msgType)).Msg("failed to marshal envelope")
		return
	}
	// Non-blocking: the run loop itself enqueues presence updates, so a
	// blocking send here could wedge the hub when the buffer is full.
	select {
	case h.broadcast <- &outbound{eventID: eventID, userID: userID, data: data}:
	default:
		log.Warn().Str("type", string(msgType)).Msg("broadcast buffer full, message dropped")
	}
}

// ForceDisconnect implements service.Broadcaster. Targets get the terminal
// admin_disconnect envelope before the connection closes; agents treat it as
// final and do not reconnect.
func (h *Hub) ForceDisconnect(eventID, userID string) {
	envelope, err := model.NewEnvelope(model.MsgAdminDisconnect, eventID, nil)
	if err != nil {
		return
	}
	data, _ := json.Marshal(envelope)

	var targets []*Client
	h.mu.RLock()
	if users, ok := h.clients[eventID]; ok {
		if userID != "" {
			if client, ok := users[userID]; ok {
				targets = append(targets, client)
			}
		} else {
			for _, client := range users {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		trySend(client, data)
		go h.Unregister(client)
	}
}

func (h *Hub) broadcastPresence(ctx context.Context, eventID string) {
	stats, err := h.tracker.Stats(ctx, eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("failed to read presence stats")
		return
	}
	h.send(eventID, "", model.MsgPresenceUpdate, model.PresenceUpdate{PresentCount: stats.PresentCount})
}
