package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted chat message. ID and Timestamp are assigned by the
// server on append; a message is immutable once stored.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         uuid.UUID `json:"sender"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}
