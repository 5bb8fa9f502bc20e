// internal/handlers/friend.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/amityhq/amity/internal/friends"
)

// SendFriendRequestHandler handles a user sending a friend request.
//
// Request payload: { "recipientId": "some-uuid-string" }
// Self-requests and duplicates (either direction, any status) are 400s; the
// duplicate message carries the existing relationship's status.
func (s *Server) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		s.unauthorized(w, err)
		return
	}

	var req struct {
		RecipientID string `json:"recipientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recipientId.")
		return
	}

	friendship, err := s.Friends.SendRequest(r.Context(), identity.UserID, recipientID)
	if err != nil {
		var dup *friends.DuplicateRequestError
		switch {
		case errors.Is(err, friends.ErrSelfRequest):
			writeError(w, http.StatusBadRequest, "Cannot send a friend request to yourself.")
		case errors.As(err, &dup):
			writeError(w, http.StatusBadRequest, "Friendship is already "+string(dup.Status)+".")
		default:
			s.Logger.WithError(err).Error("failed to send friend request")
			writeError(w, http.StatusInternalServerError, "Internal server error.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Friend request sent successfully.",
		"friendship": friendship,
	})
}

// RespondFriendRequestHandler resolves a pending request addressed to the
// caller.
//
// Path: /api/friends/response/{friendshipId}
// Request payload: { "action": "accept" | "reject" }
// 404 covers both an unknown id and an id whose recipient is not the
// caller or whose status is no longer pending.
func (s *Server) RespondFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		s.unauthorized(w, err)
		return
	}

	friendshipID, err := uuid.Parse(r.PathValue("friendshipId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friendshipId.")
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	friendship, err := s.Friends.Respond(r.Context(), identity.UserID, friendshipID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrInvalidAction):
			writeError(w, http.StatusBadRequest, `Invalid action. Must be "accept" or "reject".`)
		case errors.Is(err, friends.ErrNotFound):
			writeError(w, http.StatusNotFound, "Pending friend request not found or you are not the recipient.")
		default:
			s.Logger.WithError(err).Error("failed to respond to friend request")
			writeError(w, http.StatusInternalServerError, "Internal server error.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Friend request " + string(friendship.Status) + ".",
		"friendship": friendship,
	})
}

// ListPendingHandler returns pending requests addressed to the caller, each
// with the sender's public profile.
func (s *Server) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		s.unauthorized(w, err)
		return
	}

	pending, err := s.Friends.ListPending(r.Context(), identity.UserID)
	if err != nil {
		s.Logger.WithError(err).Error("failed to list pending requests")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// ListFriendsHandler returns the public profiles of the caller's accepted
// friends, whichever side originally sent the request.
func (s *Server) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		s.unauthorized(w, err)
		return
	}

	list, err := s.Friends.ListFriends(r.Context(), identity.UserID)
	if err != nil {
		s.Logger.WithError(err).Error("failed to list friends")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
