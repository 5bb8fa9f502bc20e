// internal/chat/relay.go
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amityhq/amity/internal/models"
)

// ErrEmptyContent is returned when message content is empty after trimming.
var ErrEmptyContent = errors.New("message content must not be empty")

// ErrMissingField is returned when conversationId or sender is absent from
// a send event.
var ErrMissingField = errors.New("conversationId, sender and content are required")

// MessageStore is an append-only persisted log of conversation messages.
type MessageStore interface {
	Append(ctx context.Context, conversationID string, sender uuid.UUID, content string) (*models.Message, error)
	History(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

// Sink receives every persisted message for downstream consumers. Publishing
// is best-effort: failures are logged and never fail the send.
type Sink interface {
	PublishMessage(ctx context.Context, msg models.Message) error
}

// Relay persists inbound send events and fans them out to every connection
// currently in the conversation's room.
//
// Each conversation is an independent serialization domain: a per-
// conversation lock covers persist-then-broadcast, so all members observe
// messages in a single order matching persistence order, while sends to
// different conversations proceed concurrently.
type Relay struct {
	registry *Registry
	store    MessageStore
	sink     Sink // optional, may be nil
	logger   *logrus.Logger

	mu        sync.Mutex
	convLocks map[string]*convLock
}

// convLock is a conversation's serialization lock with a holder/waiter
// count, so the map entry can be dropped once no send is in flight.
type convLock struct {
	mu   sync.Mutex
	refs int
}

func NewRelay(registry *Registry, store MessageStore, sink Sink, logger *logrus.Logger) *Relay {
	return &Relay{
		registry:  registry,
		store:     store,
		sink:      sink,
		logger:    logger,
		convLocks: make(map[string]*convLock),
	}
}

// acquireLock takes the serialization lock for a conversation, creating it
// on first use. The map only holds entries for conversations with a send in
// flight, so its size is bounded by concurrent sends, not by the number of
// conversations ever seen.
func (rl *Relay) acquireLock(conversationID string) *convLock {
	rl.mu.Lock()
	l, ok := rl.convLocks[conversationID]
	if !ok {
		l = &convLock{}
		rl.convLocks[conversationID] = l
	}
	l.refs++
	rl.mu.Unlock()

	l.mu.Lock()
	return l
}

// releaseLock unlocks and drops the map entry when this was the last
// holder or waiter.
func (rl *Relay) releaseLock(conversationID string, l *convLock) {
	l.mu.Unlock()

	rl.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(rl.convLocks, conversationID)
	}
	rl.mu.Unlock()
}

// HandleSend validates an inbound send event, persists the message, and
// broadcasts the persisted form (with server-assigned id and timestamp) to
// every current member of the conversation's room, including the sender's
// own connection. On validation failure an error event is emitted to the
// originating connection only and nothing is persisted or broadcast.
func (rl *Relay) HandleSend(ctx context.Context, conn *Conn, conversationID string, sender uuid.UUID, content string) (*models.Message, error) {
	if err := validateSend(conversationID, sender, content); err != nil {
		conn.WriteError("Message failed to send: " + err.Error())
		return nil, err
	}

	l := rl.acquireLock(conversationID)
	defer rl.releaseLock(conversationID, l)

	msg, err := rl.store.Append(ctx, conversationID, sender, content)
	if err != nil {
		rl.logger.WithError(err).WithField("conversation", conversationID).Warn("failed to persist message")
		conn.WriteError("Message failed to send.")
		return nil, err
	}

	payload := map[string]interface{}{
		"type":    "newMessage",
		"message": *msg,
	}
	for _, member := range rl.registry.MembersOf(conversationID) {
		member.Write(payload)
	}

	if rl.sink != nil {
		if err := rl.sink.PublishMessage(ctx, *msg); err != nil {
			rl.logger.WithError(err).Warn("failed to publish message to feed")
		}
	}

	return msg, nil
}

// History returns the most recent limit messages of a conversation in
// ascending timestamp order.
func (rl *Relay) History(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	return rl.store.History(ctx, conversationID, limit)
}

func validateSend(conversationID string, sender uuid.UUID, content string) error {
	if conversationID == "" || sender == uuid.Nil {
		return ErrMissingField
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	return nil
}
