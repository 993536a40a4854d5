package ws

import (
	"chat-relay/domain/event"
)

// Client event types. These mirror the realtime protocol one to one.
const (
	EventJoin              = "join"
	EventLeave             = "leave"
	EventChatMessage       = "chat_message"
	EventDeleteMessage     = "delete_message"
	EventAddPersonality    = "add_personality"
	EventRemovePersonality = "remove_personality"
)

// Server event types.
const (
	EventParticipantUpdate = "participant_update"
	EventStatus            = "status"
	EventMessageDeleted    = "message_deleted"
)

// ClientEvent is the envelope for everything a client can send.
type ClientEvent struct {
	Type        string `json:"type" validate:"required,oneof=join leave chat_message delete_message add_personality remove_personality"`
	RoomToken   string `json:"room_token" validate:"required"`
	Username    string `json:"username,omitempty"`
	Message     string `json:"message,omitempty"`
	SenderID    int64  `json:"sender_id,omitempty"`
	Personality string `json:"personality,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// ServerEvent is the envelope for everything the relay pushes.
type ServerEvent struct {
	Type          string   `json:"type"`
	Msg           string   `json:"msg,omitempty"`
	Participants  []string `json:"participants,omitempty"`
	RoomMessageID int64    `json:"room_message_id,omitempty"`
	Username      string   `json:"username,omitempty"`
	Message       string   `json:"message,omitempty"`
	MessageDBID   string   `json:"message_db_id,omitempty"`
	MessageID     string   `json:"message_id,omitempty"`
}

// toServerEvent converts a domain event into its wire shape. The
// second return is false for event kinds that have no wire form.
func toServerEvent(e event.DomainEvent) (ServerEvent, bool) {
	switch evt := e.(type) {
	case event.MessagePosted:
		return ServerEvent{
			Type:          EventChatMessage,
			RoomMessageID: evt.Seq,
			Username:      evt.SenderName,
			Message:       evt.Body,
			MessageDBID:   evt.MessageID.String(),
		}, true
	case event.ParticipantsChanged:
		return ServerEvent{
			Type:         EventParticipantUpdate,
			Participants: evt.Participants,
		}, true
	case event.Notice:
		return ServerEvent{
			Type: EventStatus,
			Msg:  evt.Text,
		}, true
	case event.MessageDeleted:
		return ServerEvent{
			Type:      EventMessageDeleted,
			MessageID: evt.MessageID.String(),
		}, true
	}
	return ServerEvent{}, false
}
