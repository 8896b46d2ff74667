package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joshua-takyi/rendez/internal/realtime"
	"github.com/joshua-takyi/rendez/internal/services"
)

type inboundMessage struct {
	Type string `json:"type"`
	services.MessageInput
}

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
}

// Connect upgrades an authenticated request to a websocket. The first
// connection of a user marks the profile online and the last one to close
// marks it offline. Clients send {"type":"message","match_id","body"} to chat
// with a match.
func Connect(hub *realtime.Hub, ps *services.ProfileService, ms *services.MatchService, allowedOrigins []string, logger *slog.Logger) gin.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "user_id", userID, "error", err)
			return
		}

		client := realtime.NewClient(userID)
		if hub.Register(client) {
			syncPresence(hub, ps, userID, logger)
		}

		last := realtime.Serve(conn, client, func(raw []byte) []byte {
			return handleInbound(ms, userID, raw)
		})
		if last {
			syncPresence(hub, ps, userID, logger)
		}
	}
}

// syncPresence stores whatever the hub currently says about the user, not the
// state the caller saw when its own socket opened or closed.
func syncPresence(hub *realtime.Hub, ps *services.ProfileService, userID string, logger *slog.Logger) {
	hub.SyncPresence(userID, func(online bool) {
		if err := ps.SetPresence(context.Background(), userID, online); err != nil {
			logger.Warn("presence update failed", "user_id", userID, "online", online, "error", err)
		}
	})
}

func handleInbound(ms *services.MatchService, userID string, raw []byte) []byte {
	var in inboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return encodeEvent(services.Event{Type: "error", Data: gin.H{"error": "invalid message"}})
	}

	switch in.Type {
	case "ping":
		return encodeEvent(services.Event{Type: "pong"})
	case services.EventMessage:
		msg, err := ms.RelayMessage(context.Background(), userID, in.MessageInput)
		if err != nil {
			return encodeEvent(services.Event{Type: "error", Data: gin.H{"error": err.Error()}})
		}
		return encodeEvent(services.Event{Type: "message_sent", Data: msg})
	default:
		return encodeEvent(services.Event{Type: "error", Data: gin.H{"error": "unknown message type"}})
	}
}

func encodeEvent(e services.Event) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}
