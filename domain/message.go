// Package domain contains the core concepts of the chat relay: rooms,
// ledger messages, rosters and the commands and events that move
// between transports and the session coordinator.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResponderSenderID is the sentinel sender id recorded for messages
// produced by automated responders instead of a human account.
const ResponderSenderID int64 = -1

// Message is one immutable entry of a room's ledger.
//
// Seq is the room-scoped sequence number: it starts at 1, increases
// strictly by one per append, and is assigned by the coordinator, never
// by clients.
type Message struct {
	ID         uuid.UUID
	RoomID     RoomID
	Seq        int64
	SenderID   int64
	SenderName string
	Body       string
	CreatedAt  time.Time
}
