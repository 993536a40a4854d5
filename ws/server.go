package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"chat-relay/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server upgrades HTTP connections and drives the realtime protocol.
type Server struct {
	log      *slog.Logger
	chat     services.IChatService
	tokens   *auth.TokenManager
	registry contract.IRegistry
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewServer(log *slog.Logger, chat services.IChatService, tokens *auth.TokenManager, registry contract.IRegistry) *Server {
	return &Server{
		log:      log,
		chat:     chat,
		tokens:   tokens,
		registry: registry,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle is the websocket endpoint. One goroutine pair per connection:
// this one reads, the session's write pump writes.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	sender := s.resolveSender(r)
	sender.SessionID = uuid.NewString()

	session := newSession(sender.SessionID, s.log, conn)
	s.registry.Register(session.id, session)
	observability.ConnectedSessions.Inc()

	s.log.Info("session connected",
		slog.String("session_id", session.id),
		slog.Bool("authenticated", sender.Authenticated))

	go session.writePump()
	s.readLoop(r, session, sender)

	// The read loop only returns when the connection is gone. Dropping
	// the session removes its delivery sinks; room rosters keep the
	// name until an explicit leave, so other participants still see it.
	s.registry.Drop(session.id)
	session.close()
	observability.ConnectedSessions.Dec()
	s.log.Info("session disconnected", slog.String("session_id", session.id))
}

// resolveSender turns the request's credentials into an identity. Any
// token failure downgrades to anonymous instead of rejecting the
// connection; rooms that require auth enforce it at join time.
func (s *Server) resolveSender(r *http.Request) domain.Sender {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		header := r.Header.Get("Authorization")
		raw = strings.TrimPrefix(header, "Bearer ")
		if raw == header {
			raw = ""
		}
	}
	if raw == "" {
		return domain.Sender{}
	}

	claims, err := s.tokens.Validate(raw)
	if err != nil {
		s.log.Debug("invalid session token, treating as anonymous", slog.String("error", err.Error()))
		return domain.Sender{}
	}
	return domain.Sender{
		UserID:        claims.UserID,
		Username:      claims.Username,
		Authenticated: true,
		Admin:         claims.Admin(),
	}
}

func (s *Server) readLoop(r *http.Request, session *Session, sender domain.Sender) {
	session.conn.SetReadLimit(maxMessageSize)
	session.conn.SetReadDeadline(time.Now().Add(pongWait))
	session.conn.SetPongHandler(func(string) error {
		session.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("unexpected close", slog.String("session_id", session.id), slog.String("error", err.Error()))
			}
			return
		}

		var evt ClientEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			session.sendDirect(ServerEvent{Type: EventStatus, Msg: "Error: Malformed event."})
			continue
		}
		if err := s.validate.Struct(evt); err != nil {
			session.sendDirect(ServerEvent{Type: EventStatus, Msg: "Error: Malformed event."})
			continue
		}

		s.dispatch(r, session, sender, evt)
	}
}

// dispatch routes one client event to the chat service. Errors that
// matter to the client were already pushed as scoped status notices by
// the coordinator; here they only feed logs.
func (s *Server) dispatch(r *http.Request, session *Session, sender domain.Sender, evt ClientEvent) {
	token := domain.RoomToken(evt.RoomToken)

	switch evt.Type {
	case EventJoin:
		// Subscribe before joining so the session receives its own join
		// broadcast; rolled back if the coordinator rejects the join.
		s.registry.Subscribe(session.id, token, session)
		username, err := s.chat.Join(domain.JoinCommand{
			Room:     token,
			Username: s.joinName(sender, evt),
			Sender:   sender,
		})
		if err != nil {
			s.registry.Unsubscribe(session.id, token)
			s.log.Debug("join rejected",
				slog.String("session_id", session.id),
				slog.String("room", evt.RoomToken),
				slog.String("error", err.Error()))
			return
		}
		s.log.Info("joined room",
			slog.String("session_id", session.id),
			slog.String("room", evt.RoomToken),
			slog.String("username", username))

	case EventLeave:
		s.chat.Leave(domain.LeaveCommand{Room: token, Username: evt.Username})
		s.registry.Unsubscribe(session.id, token)

	case EventChatMessage:
		senderID := evt.SenderID
		if sender.Authenticated {
			senderID = sender.UserID
		}
		err := s.chat.PostMessage(r.Context(), domain.PostMessageCommand{
			Room:      token,
			Username:  evt.Username,
			SenderID:  senderID,
			Body:      evt.Message,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			s.log.Warn("post message failed",
				slog.String("session_id", session.id),
				slog.String("room", evt.RoomToken),
				slog.String("error", err.Error()))
		}

	case EventDeleteMessage:
		err := s.chat.DeleteMessage(domain.DeleteMessageCommand{
			Room:      token,
			MessageID: evt.MessageID,
			Sender:    sender,
		})
		if err != nil {
			s.log.Debug("delete message rejected",
				slog.String("session_id", session.id),
				slog.String("error", err.Error()))
		}

	case EventAddPersonality:
		if err := s.chat.AddResponder(domain.AddResponderCommand{Room: token, Responder: evt.Personality}); err != nil {
			s.log.Debug("add personality failed",
				slog.String("personality", evt.Personality),
				slog.String("error", err.Error()))
		}

	case EventRemovePersonality:
		s.chat.RemoveResponder(domain.RemoveResponderCommand{Room: token, Responder: evt.Personality})
	}
}

// joinName prefers the authenticated identity over whatever name the
// payload carries. Anonymous visitors with no name get one assigned
// downstream.
func (s *Server) joinName(sender domain.Sender, evt ClientEvent) string {
	if sender.Authenticated {
		return sender.Username
	}
	return evt.Username
}
