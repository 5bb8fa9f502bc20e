package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequestStatus is the lifecycle state of a FriendRequest.
// A request starts pending and transitions exactly once to accepted or
// rejected; both are terminal.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed request from Sender to Recipient. At most one
// record exists per unordered user pair, regardless of direction; the
// symmetric "friends" relation is derived from accepted records at read time.
type FriendRequest struct {
	ID        uuid.UUID           `json:"id"`
	Sender    uuid.UUID           `json:"sender"`
	Recipient uuid.UUID           `json:"recipient"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Other returns the party of the request that is not userID. Used to derive
// the symmetric friend relation independent of the original direction.
func (r *FriendRequest) Other(userID uuid.UUID) uuid.UUID {
	if r.Sender == userID {
		return r.Recipient
	}
	return r.Sender
}

// PendingRequest is a pending FriendRequest enriched with the sender's
// public profile, as returned by the pending listing.
type PendingRequest struct {
	FriendRequest
	SenderProfile Profile `json:"senderProfile"`
}
