package domain

import "time"

// Command is a room-scoped request handled by the session coordinator.
type Command interface {
	Token() RoomToken
}

// Sender carries the identity the transport resolved for a connection.
// UserID is zero and Authenticated false for anonymous visitors; Admin
// is only true when the auth token carries the admin role.
type Sender struct {
	UserID        int64
	Username      string
	Authenticated bool
	Admin         bool
	SessionID     string
}

type JoinCommand struct {
	Room     RoomToken
	Username string
	Sender   Sender
}

func (c JoinCommand) Token() RoomToken { return c.Room }

type LeaveCommand struct {
	Room     RoomToken
	Username string
}

func (c LeaveCommand) Token() RoomToken { return c.Room }

type AddResponderCommand struct {
	Room      RoomToken
	Responder string
}

func (c AddResponderCommand) Token() RoomToken { return c.Room }

type RemoveResponderCommand struct {
	Room      RoomToken
	Responder string
}

func (c RemoveResponderCommand) Token() RoomToken { return c.Room }

type PostMessageCommand struct {
	Room      RoomToken
	Username  string
	SenderID  int64
	Body      string
	CreatedAt time.Time
}

func (c PostMessageCommand) Token() RoomToken { return c.Room }

type DeleteMessageCommand struct {
	Room      RoomToken
	MessageID string
	Sender    Sender
}

func (c DeleteMessageCommand) Token() RoomToken { return c.Room }
