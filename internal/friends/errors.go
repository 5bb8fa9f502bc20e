// internal/friends/errors.go
package friends

import (
	"errors"
	"fmt"

	"github.com/amityhq/amity/internal/models"
)

// ErrSelfRequest is returned when a user tries to friend themselves.
var ErrSelfRequest = errors.New("cannot send a friend request to yourself")

// ErrNotFound is returned when no pending request exists with the given id
// addressed to the responding user. A request that has already been accepted
// or rejected falls under the same lookup filter, so terminal requests also
// yield ErrNotFound.
var ErrNotFound = errors.New("pending friend request not found")

// ErrInvalidAction is returned when a response action is neither "accept"
// nor "reject".
var ErrInvalidAction = errors.New(`invalid action, must be "accept" or "reject"`)

// ErrDuplicatePair is the store-level error for a violated pair-key
// constraint. The service wraps it into a DuplicateRequestError.
var ErrDuplicatePair = errors.New("friend request already exists for this pair")

// DuplicateRequestError reports that a request already exists between the
// two users, in either direction, carrying the existing record's status.
type DuplicateRequestError struct {
	Status models.FriendRequestStatus
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("friendship is already %s", e.Status)
}
