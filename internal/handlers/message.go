// internal/handlers/message.go
package handlers

import (
	"net/http"
)

// MessageHistoryHandler returns the most recent messages of a conversation
// in ascending timestamp order, capped at HistoryLimit. Like register and
// login, this endpoint does not require a bearer token.
func (s *Server) MessageHistoryHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("conversationId")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "Missing conversationId.")
		return
	}

	messages, err := s.Relay.History(r.Context(), conversationID, HistoryLimit)
	if err != nil {
		s.Logger.WithError(err).Error("failed to fetch messages")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve messages.")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
