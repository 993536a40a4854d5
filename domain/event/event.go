package event

import (
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything the coordinator broadcasts to a room.
type DomainEvent interface {
	Token() domain.RoomToken
}

// MessagePosted is emitted for every ledger append, human or responder.
type MessagePosted struct {
	Room       domain.RoomToken
	MessageID  uuid.UUID
	Seq        int64
	SenderName string
	Body       string
	At         time.Time
}

func (e MessagePosted) Token() domain.RoomToken { return e.Room }

// ParticipantsChanged carries the full roster snapshot after a
// membership mutation.
type ParticipantsChanged struct {
	Room         domain.RoomToken
	Participants []string
}

func (e ParticipantsChanged) Token() domain.RoomToken { return e.Room }

// Notice is a human-readable status line. SessionID empty means the
// whole room; otherwise delivery is scoped to that one connection.
type Notice struct {
	Room      domain.RoomToken
	SessionID string
	Text      string
}

func (e Notice) Token() domain.RoomToken { return e.Room }

type MessageDeleted struct {
	Room      domain.RoomToken
	MessageID uuid.UUID
}

func (e MessageDeleted) Token() domain.RoomToken { return e.Room }
