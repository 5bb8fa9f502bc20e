// internal/friends/service.go
package friends

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/amityhq/amity/internal/models"
)

// SearchLimit caps the number of results returned by SearchUsers.
const SearchLimit = 10

// Store is the persistence contract for friend requests. Create must
// enforce the unordered pair-key constraint atomically with the insert and
// return ErrDuplicatePair when it is violated; UpdateStatusIfPending must
// check (pending + correct recipient) and transition in a single statement.
type Store interface {
	FindPair(ctx context.Context, userA, userB uuid.UUID) (*models.FriendRequest, error)
	Create(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	UpdateStatusIfPending(ctx context.Context, id, recipient uuid.UUID, status models.FriendRequestStatus) (*models.FriendRequest, error)
	ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	ListAcceptedInvolving(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

// Users is the slice of the user store the friendship service needs:
// profile resolution and search. Profiles never include password hashes.
type Users interface {
	ProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error)
	Search(ctx context.Context, exclude uuid.UUID, query string, limit int) ([]models.Profile, error)
}

// Service implements the friend-request state machine on top of a Store.
type Service struct {
	store Store
	users Users
}

func NewService(store Store, users Users) *Service {
	return &Service{store: store, users: users}
}

// SendRequest creates a pending request from sender to recipient.
//
// Self-requests fail with ErrSelfRequest. If a record already exists for the
// pair in either direction, a DuplicateRequestError carrying the existing
// status is returned. The pre-check supplies the friendly error; the store's
// pair-key constraint is the authoritative backstop against two
// near-simultaneous requests both passing the check.
func (s *Service) SendRequest(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error) {
	if sender == recipient {
		return nil, ErrSelfRequest
	}

	existing, err := s.store.FindPair(ctx, sender, recipient)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateRequestError{Status: existing.Status}
	}

	req, err := s.store.Create(ctx, sender, recipient)
	if errors.Is(err, ErrDuplicatePair) {
		// Lost the race to a concurrent request between the same pair.
		if existing, findErr := s.store.FindPair(ctx, sender, recipient); findErr == nil && existing != nil {
			return nil, &DuplicateRequestError{Status: existing.Status}
		}
		return nil, &DuplicateRequestError{Status: models.FriendRequestPending}
	}
	return req, err
}

// Respond resolves a pending request addressed to recipient. The action must
// be "accept" or "reject". The responder must be the original recipient, and
// the request must still be pending; otherwise ErrNotFound. The transition
// is terminal: a second Respond on the same id fails with ErrNotFound.
func (s *Service) Respond(ctx context.Context, recipient, requestID uuid.UUID, action string) (*models.FriendRequest, error) {
	var status models.FriendRequestStatus
	switch action {
	case "accept":
		status = models.FriendRequestAccepted
	case "reject":
		status = models.FriendRequestRejected
	default:
		return nil, ErrInvalidAction
	}

	return s.store.UpdateStatusIfPending(ctx, requestID, recipient, status)
}

// ListPending returns pending requests addressed to userID, each enriched
// with the sender's public profile.
func (s *Service) ListPending(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	return s.store.ListPendingForRecipient(ctx, userID)
}

// ListFriends returns the public profiles of everyone sharing an accepted
// request with userID, regardless of which side sent it.
func (s *Service) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Profile, error) {
	accepted, err := s.store.ListAcceptedInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accepted) == 0 {
		return []models.Profile{}, nil
	}

	others := lo.Map(accepted, func(r models.FriendRequest, _ int) uuid.UUID {
		return r.Other(userID)
	})
	return s.users.ProfilesByIDs(ctx, others)
}

// SearchUsers performs a case-insensitive substring match against usernames
// and emails, excluding the caller, capped at SearchLimit results. An empty
// query returns an empty list without touching the store.
func (s *Service) SearchUsers(ctx context.Context, exclude uuid.UUID, query string) ([]models.Profile, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Profile{}, nil
	}
	return s.users.Search(ctx, exclude, query, SearchLimit)
}
