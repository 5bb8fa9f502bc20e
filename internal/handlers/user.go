// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amityhq/amity/internal/auth"
	"github.com/amityhq/amity/internal/database"
	"github.com/amityhq/amity/internal/models"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RegisterHandler creates a new user account.
//
// Request payload: { "username": ..., "email": ..., "password": ... }
// Responds 201 with the new user's id and username; the password hash is
// never sent back. A duplicate email is a 400.
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Username, email and password are required.")
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := s.Users.Create(r.Context(), &user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "User with this email already exists.")
			return
		}
		s.Logger.WithError(err).Error("registration failed")
		writeError(w, http.StatusInternalServerError, "Internal server error during registration.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "User registered successfully!",
		"userId":   user.ID,
		"username": user.Username,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginHandler authenticates email/password and returns a signed bearer
// token along with the user's public identity. Unknown email and wrong
// password are indistinguishable 401s.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := s.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	token, err := auth.CreateJWT(user.ID, user.Username)
	if err != nil {
		s.Logger.WithError(err).Error("failed to create jwt")
		writeError(w, http.StatusInternalServerError, "Internal server error during login.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful!",
		"token":   token,
		"user": map[string]interface{}{
			"userId":   user.ID,
			"username": user.Username,
		},
	})
}

// SearchUsersHandler matches the q query parameter against usernames and
// emails, case-insensitively, excluding the caller. An empty query returns
// an empty list.
func (s *Server) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		s.unauthorized(w, err)
		return
	}

	results, err := s.Friends.SearchUsers(r.Context(), identity.UserID, r.URL.Query().Get("q"))
	if err != nil {
		s.Logger.WithError(err).Error("user search failed")
		writeError(w, http.StatusInternalServerError, "Internal server error during user search.")
		return
	}
	writeJSON(w, http.StatusOK, results)
}
