// internal/database/friend.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amityhq/amity/internal/friends"
	"github.com/amityhq/amity/internal/models"
)

// FriendStore persists friend requests in Postgres. A unique index over the
// canonical (LEAST, GREATEST) pair of user ids enforces the at-most-one-
// record-per-pair invariant regardless of direction, and is the backstop
// against two concurrent requests between the same pair.
type FriendStore struct {
	pool *pgxpool.Pool
}

func NewFriendStore(pool *pgxpool.Pool) *FriendStore {
	return &FriendStore{pool: pool}
}

const friendRequestCols = `id, sender_id, recipient_id, status, created_at, updated_at`

func scanFriendRequest(row pgx.Row) (*models.FriendRequest, error) {
	var r models.FriendRequest
	err := row.Scan(&r.ID, &r.Sender, &r.Recipient, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindPair returns the single request involving both users, in either
// direction, or nil if none exists.
func (s *FriendStore) FindPair(ctx context.Context, userA, userB uuid.UUID) (*models.FriendRequest, error) {
	q := `
		SELECT ` + friendRequestCols + `
		FROM friend_requests
		WHERE (sender_id=$1 AND recipient_id=$2)
		   OR (sender_id=$2 AND recipient_id=$1)
	`
	r, err := scanFriendRequest(s.pool.QueryRow(ctx, q, userA, userB))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// Create inserts a pending request from sender to recipient. A violated
// pair-key constraint yields friends.ErrDuplicatePair.
func (s *FriendStore) Create(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request id: %w", err)
	}

	q := `
		INSERT INTO friend_requests (id, sender_id, recipient_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING created_at, updated_at
	`
	req := &models.FriendRequest{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Status:    models.FriendRequestPending,
	}

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, id, sender, recipient).Scan(&req.CreatedAt, &req.UpdatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, friends.ErrDuplicatePair
		}
		return nil, fmt.Errorf("failed to insert friend request: %w", err)
	}
	return req, nil
}

func (s *FriendStore) FindByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	q := `SELECT ` + friendRequestCols + ` FROM friend_requests WHERE id=$1`
	r, err := scanFriendRequest(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, friends.ErrNotFound
	}
	return r, err
}

// UpdateStatusIfPending transitions the request in a single conditional
// UPDATE: the row must exist, still be pending, and be addressed to the
// given recipient. Anything else, including a request already resolved by a
// concurrent response, yields friends.ErrNotFound.
func (s *FriendStore) UpdateStatusIfPending(ctx context.Context, id, recipient uuid.UUID, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	q := `
		UPDATE friend_requests
		SET status=$1, updated_at=NOW()
		WHERE id=$2 AND recipient_id=$3 AND status='pending'
		RETURNING ` + friendRequestCols + `
	`
	var req *models.FriendRequest
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var scanErr error
		req, scanErr = scanFriendRequest(tx.QueryRow(ctx, q, status, id, recipient))
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, friends.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update friend request: %w", err)
	}
	return req, nil
}

// ListPendingForRecipient returns pending requests addressed to userID,
// each joined with the sender's public profile.
func (s *FriendStore) ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	q := `
		SELECT f.id, f.sender_id, f.recipient_id, f.status, f.created_at, f.updated_at,
		       u.id, u.username, u.email
		FROM friend_requests f
		JOIN users u ON u.id = f.sender_id
		WHERE f.recipient_id=$1 AND f.status='pending'
		ORDER BY f.created_at
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PendingRequest{}
	for rows.Next() {
		var p models.PendingRequest
		err := rows.Scan(
			&p.ID, &p.Sender, &p.Recipient, &p.Status, &p.CreatedAt, &p.UpdatedAt,
			&p.SenderProfile.ID, &p.SenderProfile.Username, &p.SenderProfile.Email,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAcceptedInvolving returns accepted requests touching userID on either
// side.
func (s *FriendStore) ListAcceptedInvolving(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	q := `
		SELECT ` + friendRequestCols + `
		FROM friend_requests
		WHERE (sender_id=$1 OR recipient_id=$1) AND status='accepted'
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.FriendRequest{}
	for rows.Next() {
		var r models.FriendRequest
		if err := rows.Scan(&r.ID, &r.Sender, &r.Recipient, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
