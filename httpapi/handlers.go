package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/responder"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	id, err := s.accounts.Register(req)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrUserAlreadyExists):
			writeError(w, http.StatusConflict, "username already taken")
		case stderrors.Is(err, errors.ErrInvalidPassword):
			writeError(w, http.StatusBadRequest, "password does not meet complexity requirements")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": id, "username": req.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	token, err := s.accounts.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type personalityDTO struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Intelligence  int    `json:"intelligence"`
	Cost          int    `json:"cost"`
	ContextWindow int    `json:"context_window"`
	MaxOutput     int    `json:"max_output"`
}

// handlePersonalities lists the loaded catalogue. Capability handles
// stay server-side; only the display metadata goes out.
func (s *Server) handlePersonalities(w http.ResponseWriter, _ *http.Request) {
	dtos := lo.Map(s.personalities.All(), func(d responder.Descriptor, _ int) personalityDTO {
		return personalityDTO{
			Name:          d.Name,
			Description:   d.Description,
			Intelligence:  d.Intelligence,
			Cost:          d.Cost,
			ContextWindow: d.ContextWindow,
			MaxOutput:     d.MaxOutput,
		}
	})
	writeJSON(w, http.StatusOK, dtos)
}

type messageDTO struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"room_message_id"`
	SenderName string    `json:"username"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	token := domain.RoomToken(mux.Vars(r)["token"])
	history, err := s.chat.History(token)
	if err != nil {
		if stderrors.Is(err, errors.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "history read failed")
		return
	}
	dtos := lo.Map(history, func(m domain.Message, _ int) messageDTO {
		return messageDTO{
			ID:         m.ID.String(),
			Seq:        m.Seq,
			SenderName: m.SenderName,
			Body:       m.Body,
			CreatedAt:  m.CreatedAt,
		}
	})
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	token := domain.RoomToken(mux.Vars(r)["token"])
	writeJSON(w, http.StatusOK, s.chat.Participants(token))
}

type createRoomRequest struct {
	Title          string `json:"title"`
	AllowAnonymous bool   `json:"allow_anonymous"`
}

type roomDTO struct {
	Token          string `json:"token"`
	Title          string `json:"title"`
	AllowAnonymous bool   `json:"allow_anonymous"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	claims := claimsFrom(r)
	room, err := s.admin.CreateRoom(req.Title, req.AllowAnonymous, claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "room creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(room))
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	rooms, err := s.admin.ListRooms()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "room listing failed")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(rooms, func(room domain.Room, _ int) roomDTO {
		return toRoomDTO(room)
	}))
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	token := domain.RoomToken(mux.Vars(r)["token"])
	found, err := s.admin.DeleteRoom(token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "room deletion failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toRoomDTO(room domain.Room) roomDTO {
	return roomDTO{
		Token:          string(room.Token),
		Title:          room.Title,
		AllowAnonymous: room.AllowAnonymous,
	}
}
