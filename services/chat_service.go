//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"

	"chat-relay/domain"
	"chat-relay/repositories"
	"chat-relay/runtime"
)

type IChatService interface {
	Join(cmd domain.JoinCommand) (string, error)
	Leave(cmd domain.LeaveCommand)
	AddResponder(cmd domain.AddResponderCommand) error
	RemoveResponder(cmd domain.RemoveResponderCommand)
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) error
	DeleteMessage(cmd domain.DeleteMessageCommand) error
	History(token domain.RoomToken) ([]domain.Message, error)
	Participants(token domain.RoomToken) []string
}

// ChatService is the thin facade the transports talk to. All room
// semantics live in the coordinator; this type only resolves rooms
// for read paths.
type ChatService struct {
	coordinator *runtime.Coordinator
	rooms       repositories.IRoomRepository
	ledger      repositories.IMessageRepository
}

func NewChatService(coordinator *runtime.Coordinator, rooms repositories.IRoomRepository, ledger repositories.IMessageRepository) *ChatService {
	return &ChatService{coordinator: coordinator, rooms: rooms, ledger: ledger}
}

func (s *ChatService) Join(cmd domain.JoinCommand) (string, error) {
	return s.coordinator.Join(cmd)
}

func (s *ChatService) Leave(cmd domain.LeaveCommand) {
	s.coordinator.Leave(cmd)
}

func (s *ChatService) AddResponder(cmd domain.AddResponderCommand) error {
	return s.coordinator.AddResponder(cmd)
}

func (s *ChatService) RemoveResponder(cmd domain.RemoveResponderCommand) {
	s.coordinator.RemoveResponder(cmd)
}

func (s *ChatService) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) error {
	return s.coordinator.PostMessage(ctx, cmd)
}

func (s *ChatService) DeleteMessage(cmd domain.DeleteMessageCommand) error {
	return s.coordinator.DeleteMessage(cmd)
}

// History returns the full ordered ledger of a room.
func (s *ChatService) History(token domain.RoomToken) ([]domain.Message, error) {
	room, err := s.rooms.GetByToken(token)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListOrdered(room.ID)
}

func (s *ChatService) Participants(token domain.RoomToken) []string {
	return s.coordinator.Membership(token)
}
