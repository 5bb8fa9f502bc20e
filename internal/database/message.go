// internal/database/message.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amityhq/amity/internal/chat"
	"github.com/amityhq/amity/internal/models"
)

// MessageStore is the Postgres-backed append-only log of conversation
// messages, indexed by (conversation_id, created_at DESC).
type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Append stores a new message with a server-assigned id and timestamp.
func (s *MessageStore) Append(ctx context.Context, conversationID string, sender uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, chat.ErrEmptyContent
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	q := `
		INSERT INTO messages (id, conversation_id, sender_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	msg := &models.Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
	}

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, id, conversationID, sender, content).Scan(&msg.Timestamp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

// History returns the most recent limit messages of a conversation in
// ascending timestamp order: the latest rows are selected descending, then
// presented oldest first.
func (s *MessageStore) History(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	q := `
		SELECT id, conversation_id, sender_id, content, created_at
		FROM (
			SELECT id, conversation_id, sender_id, content, created_at
			FROM messages
			WHERE conversation_id=$1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) latest
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, q, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PruneBefore deletes a conversation's messages older than cutoff and
// returns the number of rows removed. Used by the feed worker's retention
// pass; the realtime path never calls this.
func (s *MessageStore) PruneBefore(ctx context.Context, conversationID string, cutoff time.Time) (int64, error) {
	var pruned int64
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM messages WHERE conversation_id=$1 AND created_at < $2`, conversationID, cutoff)
		if err != nil {
			return err
		}
		pruned = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune messages: %w", err)
	}
	return pruned, nil
}
