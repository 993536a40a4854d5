// Package httpapi exposes the relay's REST surface: accounts, room
// administration, history reads and the personality catalogue. The
// realtime protocol itself lives in the ws package and is only mounted
// here.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chat-relay/auth"
	"chat-relay/responder"
	"chat-relay/services"
	"chat-relay/ws"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	log           *slog.Logger
	accounts      services.IAuthService
	admin         services.IAdminService
	chat          services.IChatService
	tokens        *auth.TokenManager
	personalities *responder.Registry
	realtime      *ws.Server
}

func NewServer(
	log *slog.Logger,
	accounts services.IAuthService,
	admin services.IAdminService,
	chat services.IChatService,
	tokens *auth.TokenManager,
	personalities *responder.Registry,
	realtime *ws.Server,
) *Server {
	return &Server{
		log:           log,
		accounts:      accounts,
		admin:         admin,
		chat:          chat,
		tokens:        tokens,
		personalities: personalities,
		realtime:      realtime,
	}
}

// Router wires every route. Auth tiers: public, authenticated, admin.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.realtime.Handle)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	v1.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	v1.HandleFunc("/personalities", s.handlePersonalities).Methods(http.MethodGet)
	v1.HandleFunc("/rooms/{token}/messages", s.handleHistory).Methods(http.MethodGet)
	v1.HandleFunc("/rooms/{token}/participants", s.handleParticipants).Methods(http.MethodGet)

	authed := v1.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/rooms", s.handleCreateRoom).Methods(http.MethodPost)

	adminOnly := v1.NewRoute().Subrouter()
	adminOnly.Use(s.requireAuth, s.requireAdmin)
	adminOnly.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	adminOnly.HandleFunc("/rooms/{token}", s.handleDeleteRoom).Methods(http.MethodDelete)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
