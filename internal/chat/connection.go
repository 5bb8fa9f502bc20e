// internal/chat/connection.go
package chat

import (
	"log"

	"github.com/google/uuid"
)

// Conn is a single user's live presence on the realtime channel. The
// websocket handler owns the read side and the connection's lifecycle;
// everything written to OutChan is drained by the write pump.
type Conn struct {
	UserID   uuid.UUID
	Username string

	OutChan chan map[string]interface{}
}

func NewConn(userID uuid.UUID, username string) *Conn {
	return &Conn{
		UserID:   userID,
		Username: username,
		OutChan:  make(chan map[string]interface{}, 16),
	}
}

// Write pushes a message onto the connection's OutChan non-blockingly.
// Logs if the channel is closed or full and the message is dropped.
func (c *Conn) Write(msg map[string]interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Printf("chat.Conn Write WARNING: OutChan for user %s closed or full. Dropped message type '%s'.", c.UserID, msgType)
	}
}

// WriteError sends an error event to this connection only.
func (c *Conn) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}
