//go:generate go run go.uber.org/mock/mockgen -source=admin_service.go -destination=../mocks/mock_admin_service.go -package=mocks
package services

import (
	"log/slog"

	"chat-relay/domain"
	"chat-relay/repositories"
	"chat-relay/runtime"
)

type IAdminService interface {
	CreateRoom(title string, allowAnonymous bool, ownerID int64) (domain.Room, error)
	ListRooms() ([]domain.Room, error)
	DeleteRoom(token domain.RoomToken) (bool, error)
}

type AdminService struct {
	log         *slog.Logger
	rooms       repositories.IRoomRepository
	ledger      repositories.IMessageRepository
	coordinator *runtime.Coordinator
}

func NewAdminService(log *slog.Logger, rooms repositories.IRoomRepository, ledger repositories.IMessageRepository, coordinator *runtime.Coordinator) *AdminService {
	return &AdminService{log: log, rooms: rooms, ledger: ledger, coordinator: coordinator}
}

func (s *AdminService) CreateRoom(title string, allowAnonymous bool, ownerID int64) (domain.Room, error) {
	room, err := s.rooms.Create(title, allowAnonymous, ownerID)
	if err != nil {
		return domain.Room{}, err
	}
	s.log.Info("Room created", "token", room.Token, "title", room.Title)
	return room, nil
}

func (s *AdminService) ListRooms() ([]domain.Room, error) {
	return s.rooms.List()
}

// DeleteRoom removes a room and cascades to its messages and the
// coordinator's in-memory state. Reports whether the room existed.
func (s *AdminService) DeleteRoom(token domain.RoomToken) (bool, error) {
	room, err := s.rooms.GetByToken(token)
	if err != nil {
		return false, nil
	}
	purged, err := s.ledger.PurgeRoom(room.ID)
	if err != nil {
		return false, err
	}
	found, err := s.rooms.Delete(token)
	if err != nil {
		return false, err
	}
	s.coordinator.Forget(token)
	s.log.Info("Room deleted", "token", token, "messages_purged", purged)
	return found, nil
}
