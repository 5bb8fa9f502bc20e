// internal/handlers/api_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amityhq/amity/internal/auth"
	"github.com/amityhq/amity/internal/chat"
	"github.com/amityhq/amity/internal/models"
)

// UserService is the slice of the user store the HTTP layer needs.
type UserService interface {
	Create(ctx context.Context, user *models.User) error
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// FriendService is the friendship business layer consumed by the handlers.
type FriendService interface {
	SendRequest(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error)
	Respond(ctx context.Context, recipient, requestID uuid.UUID, action string) (*models.FriendRequest, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Profile, error)
	SearchUsers(ctx context.Context, exclude uuid.UUID, query string) ([]models.Profile, error)
}

// HistoryLimit is the maximum number of messages returned by the history
// endpoint.
const HistoryLimit = 50

// Server bundles the services behind the REST and realtime surface.
type Server struct {
	Logger   *logrus.Logger
	Users    UserService
	Friends  FriendService
	Relay    *chat.Relay
	Registry *chat.Registry

	validate *validator.Validate
}

func NewServer(logger *logrus.Logger, users UserService, friends FriendService, relay *chat.Relay, registry *chat.Registry) *Server {
	return &Server{
		Logger:   logger,
		Users:    users,
		Friends:  friends,
		Relay:    relay,
		Registry: registry,
		validate: validator.New(),
	}
}

// Routes builds the HTTP mux. Register, login, and message history are
// public; every other endpoint requires a bearer token.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.RegisterHandler)
	mux.HandleFunc("POST /api/login", s.LoginHandler)

	mux.HandleFunc("POST /api/friends/request", s.SendFriendRequestHandler)
	mux.HandleFunc("PUT /api/friends/response/{friendshipId}", s.RespondFriendRequestHandler)
	mux.HandleFunc("GET /api/friends/pending", s.ListPendingHandler)
	mux.HandleFunc("GET /api/friends/all", s.ListFriendsHandler)
	mux.HandleFunc("GET /api/users/search", s.SearchUsersHandler)

	mux.HandleFunc("GET /api/messages/{conversationId}", s.MessageHistoryHandler)

	mux.HandleFunc("/ws", s.ChatWSHandler)

	return mux
}

// authenticate verifies the Authorization header and returns the caller
// identity. Handlers treat any failure as 401 without further detail.
func (s *Server) authenticate(r *http.Request) (auth.Identity, error) {
	return auth.VerifyBearer(r.Header.Get("Authorization"))
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeError sends the structured error body every failing endpoint uses.
// Internal detail never reaches the client; callers log it instead.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

func (s *Server) unauthorized(w http.ResponseWriter, err error) {
	if err == auth.ErrMissingToken {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied.")
		return
	}
	writeError(w, http.StatusUnauthorized, "Token is not valid.")
}
