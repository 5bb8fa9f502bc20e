// internal/handlers/chat_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/amityhq/amity/internal/auth"
	"github.com/amityhq/amity/internal/chat"
)

// wsPacket is the envelope for every inbound realtime event.
type wsPacket struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Sender         string `json:"sender"`
	Content        string `json:"content"`
}

// ChatWSHandler upgrades the connection and runs the realtime channel.
//
// The handshake requires the same bearer credential as the REST surface,
// supplied via the Authorization header or a "token" query parameter (for
// browser clients, which cannot set headers on the upgrade request).
//
// Inbound events:
//   - joinConversation: switches the connection's room.
//   - sendMessage: persists and broadcasts; validation failures are
//     reported to the sender only.
//
// Disconnecting leaves the current room implicitly.
func (s *Server) ChatWSHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.wsAuthenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Token is not valid.")
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"chat"},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	ctx, cancel := context.WithCancel(r.Context())
	conn := chat.NewConn(identity.UserID, identity.Username)

	s.Logger.Infof("User %v (%s) connected to chat", identity.UserID, r.RemoteAddr)

	go s.chatWritePump(ctx, c, conn)
	s.chatReadPump(ctx, c, conn)

	// Read pump exited: drop presence and stop the write pump. OutChan is
	// left open so a broadcast that snapshotted this connection before
	// Leave cannot panic; the channel is unreachable once conn is dropped.
	s.Registry.Leave(conn)
	cancel()
	s.Logger.Infof("User %v disconnected from chat", identity.UserID)
}

// wsAuthenticate accepts the bearer token from the Authorization header or
// the "token" query parameter.
func (s *Server) wsAuthenticate(r *http.Request) (auth.Identity, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		return auth.VerifyBearer(header)
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return auth.VerifyToken(token)
	}
	return auth.Identity{}, auth.ErrMissingToken
}

// chatReadPump handles inbound events until the connection closes.
func (s *Server) chatReadPump(ctx context.Context, c *websocket.Conn, conn *chat.Conn) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				s.Logger.Infof("WebSocket closed normally for user %v", conn.UserID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				s.Logger.Warnf("Read error for user %v: %v", conn.UserID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var packet wsPacket
		if err := json.Unmarshal(data, &packet); err != nil {
			conn.WriteError("Invalid JSON format")
			continue
		}

		switch packet.Type {
		case "joinConversation":
			if packet.ConversationID == "" {
				conn.WriteError("Missing conversationId")
				continue
			}
			s.Registry.Join(conn, packet.ConversationID)
			s.Logger.Infof("User %v joined conversation %s", conn.UserID, packet.ConversationID)

		case "sendMessage":
			sender, err := uuid.Parse(packet.Sender)
			if err != nil || sender != conn.UserID {
				// The sender field must match the authenticated user; a
				// client cannot relay on someone else's behalf.
				conn.WriteError("Invalid sender")
				continue
			}
			// HandleSend reports validation and persistence failures to
			// this connection itself.
			s.Relay.HandleSend(ctx, conn, packet.ConversationID, sender, packet.Content)

		default:
			conn.WriteError("Unknown event type: " + packet.Type)
		}
	}
}

// chatWritePump drains the connection's OutChan onto the wire and keeps the
// connection alive with periodic pings.
func (s *Server) chatWritePump(ctx context.Context, c *websocket.Conn, conn *chat.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.Logger.Warnf("Failed to marshal outgoing msg for user %v: %v", conn.UserID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.Logger.Warnf("Write error for user %v: %v", conn.UserID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
