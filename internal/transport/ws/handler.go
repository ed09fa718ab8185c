package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"velvethour/internal/model"
	"velvethour/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades authenticated clients into hub connections.
type Handler struct {
	hub     *Hub
	authSvc *service.AuthService
}

func NewHandler(hub *Hub, authSvc *service.AuthService) *Handler {
	return &Handler{
		hub:     hub,
		authSvc: authSvc,
	}
}

// EventWS handles GET /v1/ws/events/{eventId}?token=...
// Admin and participant tokens are both accepted; a participant token must
// have been minted for this event.
func (h *Handler) EventWS(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	var userID string
	var isAdmin bool
	if claims, err := h.authSvc.ValidateAdminToken(token); err == nil {
		userID = claims.AdminID
		isAdmin = true
	} else {
		claims, err := h.authSvc.ValidateParticipantToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if claims.EventID != eventID {
			http.Error(w, "token not valid for this event", http.StatusForbidden)
			return
		}
		userID = claims.UserID
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		EventID: eventID,
		UserID:  userID,
		IsAdmin: isAdmin,
		Send:    make(chan []byte, 256),
	}
	h.hub.Register(client)

	go h.writePump(wsConn, client)
	go h.readPump(wsConn, client)
}

func (h *Handler) readPump(wsConn *websocket.Conn, client *Client) {
	defer func() {
		h.hub.Unregister(client)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		client.beat()
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("user_id", client.UserID).Msg("websocket read error")
			}
			break
		}
		client.beat()

		var envelope model.Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}
		// Application-level ping for clients whose stack hides protocol
		// pings; anything else from clients is ignored, state changes only
		// travel over REST.
		if envelope.Type == model.MsgPing {
			if pong, err := model.NewEnvelope(model.MsgPong, client.EventID, nil); err == nil {
				if data, err := json.Marshal(pong); err == nil {
					trySend(client, data)
				}
			}
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
