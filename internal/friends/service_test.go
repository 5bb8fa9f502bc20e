// internal/friends/service_test.go
package friends

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amityhq/amity/internal/models"
)

// memStore is an in-memory Store with the same uniqueness and atomicity
// semantics as the Postgres implementation.
type memStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.FriendRequest
	profiles map[uuid.UUID]models.Profile
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[uuid.UUID]*models.FriendRequest),
		profiles: make(map[uuid.UUID]models.Profile),
	}
}

func (m *memStore) addProfile(p models.Profile) {
	m.profiles[p.ID] = p
}

func (m *memStore) FindPair(_ context.Context, a, b uuid.UUID) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findPairLocked(a, b), nil
}

func (m *memStore) findPairLocked(a, b uuid.UUID) *models.FriendRequest {
	for _, r := range m.requests {
		if (r.Sender == a && r.Recipient == b) || (r.Sender == b && r.Recipient == a) {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (m *memStore) Create(_ context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findPairLocked(sender, recipient) != nil {
		return nil, ErrDuplicatePair
	}
	now := time.Now()
	r := &models.FriendRequest{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Status:    models.FriendRequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.requests[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) UpdateStatusIfPending(_ context.Context, id, recipient uuid.UUID, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Recipient != recipient || r.Status != models.FriendRequestPending {
		return nil, ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (m *memStore) ListPendingForRecipient(_ context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PendingRequest{}
	for _, r := range m.requests {
		if r.Recipient == userID && r.Status == models.FriendRequestPending {
			out = append(out, models.PendingRequest{
				FriendRequest: *r,
				SenderProfile: m.profiles[r.Sender],
			})
		}
	}
	return out, nil
}

func (m *memStore) ListAcceptedInvolving(_ context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.FriendRequest{}
	for _, r := range m.requests {
		if r.Status == models.FriendRequestAccepted && (r.Sender == userID || r.Recipient == userID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

// memUsers implements Users and counts Search calls so tests can assert the
// empty-query short circuit.
type memUsers struct {
	store       *memStore
	searchCalls int
}

func (u *memUsers) ProfilesByIDs(_ context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	out := []models.Profile{}
	for _, id := range ids {
		if p, ok := u.store.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (u *memUsers) Search(_ context.Context, exclude uuid.UUID, query string, limit int) ([]models.Profile, error) {
	u.searchCalls++
	q := strings.ToLower(query)
	out := []models.Profile{}
	for _, p := range u.store.profiles {
		if p.ID == exclude {
			continue
		}
		if strings.Contains(strings.ToLower(p.Username), q) || strings.Contains(strings.ToLower(p.Email), q) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestService() (*Service, *memStore, *memUsers) {
	store := newMemStore()
	users := &memUsers{store: store}
	return NewService(store, users), store, users
}

func addUser(store *memStore, username string) uuid.UUID {
	id := uuid.New()
	store.addProfile(models.Profile{ID: id, Username: username, Email: username + "@example.com"})
	return id
}

func TestSendRequestSelf(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")

	_, err := svc.SendRequest(context.Background(), alice, alice)
	if !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}
	if len(store.requests) != 0 {
		t.Fatalf("self request must not create a record, found %d", len(store.requests))
	}
}

func TestSendRequestDuplicateEitherDirection(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")
	bob := addUser(store, "bob")

	if _, err := svc.SendRequest(context.Background(), alice, bob); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// Reverse direction before resolution must conflict.
	_, err := svc.SendRequest(context.Background(), bob, alice)
	var dup *DuplicateRequestError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateRequestError, got %v", err)
	}
	if dup.Status != models.FriendRequestPending {
		t.Fatalf("expected duplicate status pending, got %s", dup.Status)
	}
	if len(store.requests) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(store.requests))
	}
}

func TestRespondIsTerminal(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")
	bob := addUser(store, "bob")

	req, err := svc.SendRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("send request failed: %v", err)
	}

	accepted, err := svc.Respond(context.Background(), bob, req.ID, "accept")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != models.FriendRequestAccepted {
		t.Fatalf("expected status accepted, got %s", accepted.Status)
	}

	// Any further response on the same id fails: terminal state.
	if _, err := svc.Respond(context.Background(), bob, req.ID, "reject"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second respond, got %v", err)
	}
	if _, err := svc.Respond(context.Background(), bob, req.ID, "accept"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated accept, got %v", err)
	}
}

func TestRespondRequiresRecipient(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")
	bob := addUser(store, "bob")

	req, err := svc.SendRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("send request failed: %v", err)
	}

	// The sender cannot resolve their own request.
	if _, err := svc.Respond(context.Background(), alice, req.ID, "accept"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-recipient responder, got %v", err)
	}
}

func TestRespondInvalidAction(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")
	bob := addUser(store, "bob")

	req, err := svc.SendRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("send request failed: %v", err)
	}

	if _, err := svc.Respond(context.Background(), bob, req.ID, "maybe"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestListFriendsSymmetric(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")
	bob := addUser(store, "bob")
	carol := addUser(store, "carol")

	req1, _ := svc.SendRequest(context.Background(), alice, bob)
	if _, err := svc.Respond(context.Background(), bob, req1.ID, "accept"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// A rejected request must not produce a friendship.
	req2, _ := svc.SendRequest(context.Background(), carol, alice)
	if _, err := svc.Respond(context.Background(), alice, req2.ID, "reject"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	aliceFriends, err := svc.ListFriends(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListFriends(alice) failed: %v", err)
	}
	if len(aliceFriends) != 1 || aliceFriends[0].ID != bob {
		t.Fatalf("expected alice's friends to be [bob], got %+v", aliceFriends)
	}

	bobFriends, err := svc.ListFriends(context.Background(), bob)
	if err != nil {
		t.Fatalf("ListFriends(bob) failed: %v", err)
	}
	if len(bobFriends) != 1 || bobFriends[0].ID != alice {
		t.Fatalf("expected bob's friends to be [alice], got %+v", bobFriends)
	}

	carolFriends, err := svc.ListFriends(context.Background(), carol)
	if err != nil {
		t.Fatalf("ListFriends(carol) failed: %v", err)
	}
	if len(carolFriends) != 0 {
		t.Fatalf("expected carol to have no friends, got %+v", carolFriends)
	}
}

func TestSendRequestAfterAcceptConflictsWithStatus(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")
	bob := addUser(store, "bob")

	req, _ := svc.SendRequest(context.Background(), alice, bob)
	if _, err := svc.Respond(context.Background(), bob, req.ID, "accept"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := svc.SendRequest(context.Background(), alice, bob)
	var dup *DuplicateRequestError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateRequestError, got %v", err)
	}
	if dup.Status != models.FriendRequestAccepted {
		t.Fatalf("expected duplicate status accepted, got %s", dup.Status)
	}
}

func TestListPendingEnrichesSenderProfile(t *testing.T) {
	svc, store, _ := newTestService()
	alice := addUser(store, "alice")
	bob := addUser(store, "bob")

	if _, err := svc.SendRequest(context.Background(), alice, bob); err != nil {
		t.Fatalf("send request failed: %v", err)
	}

	pending, err := svc.ListPending(context.Background(), bob)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
	if pending[0].SenderProfile.Username != "alice" {
		t.Fatalf("expected sender profile alice, got %+v", pending[0].SenderProfile)
	}

	// Nothing pending for the sender.
	sent, err := svc.ListPending(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(sent) != 0 {
		t.Fatalf("expected no pending requests for sender, got %d", len(sent))
	}
}

func TestSearchUsers(t *testing.T) {
	svc, store, users := newTestService()
	alice := addUser(store, "alice")
	addUser(store, "alicia")
	addUser(store, "bob")

	// Empty query returns empty without touching the store.
	results, err := svc.SearchUsers(context.Background(), alice, "   ")
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result for empty query, got %+v", results)
	}
	if users.searchCalls != 0 {
		t.Fatalf("empty query must not hit the store, got %d calls", users.searchCalls)
	}

	// Matching the caller's own username still excludes the caller.
	results, err = svc.SearchUsers(context.Background(), alice, "ali")
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	for _, p := range results {
		if p.ID == alice {
			t.Fatalf("search must exclude the caller, got %+v", results)
		}
	}
	if len(results) != 1 || results[0].Username != "alicia" {
		t.Fatalf("expected [alicia], got %+v", results)
	}
}
