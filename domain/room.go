package domain

import "time"

// RoomID is the numeric primary identifier of a room.
type RoomID int64

// RoomToken is the opaque join code clients use to address a room.
// Unique and immutable once the room has been created.
type RoomToken string

// Room is a named chat channel. The token is the only identifier ever
// exposed on the realtime protocol; the numeric ID stays internal.
type Room struct {
	ID             RoomID
	Token          RoomToken
	Title          string
	AllowAnonymous bool
	OwnerID        int64
	CreatedAt      time.Time
}
