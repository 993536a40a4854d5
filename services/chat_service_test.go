package services

import (
	"context"
	"log/slog"
	"testing"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/repositories"
	"chat-relay/responder"
	"chat-relay/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	chat        *ChatService
	admin       *AdminService
	rooms       *repositories.RoomRepository
	ledger      repositories.MessageRepository
	coordinator *runtime.Coordinator
	events      chan event.DomainEvent
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rooms, err := repositories.NewRoomRepository(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rooms.Close() })

	ledger := repositories.NewMessageRepository(db, slog.Default())
	events := make(chan event.DomainEvent, 256)
	personalities := responder.Load(slog.Default(), responder.NewEcho())
	coordinator := runtime.NewCoordinator(slog.Default(), rooms, ledger, personalities, events, 0)

	return &chatFixture{
		chat:        NewChatService(coordinator, rooms, ledger),
		admin:       NewAdminService(slog.Default(), rooms, ledger, coordinator),
		rooms:       rooms,
		ledger:      ledger,
		coordinator: coordinator,
		events:      events,
	}
}

func Test_History_Unknown_Room(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	_, err := f.chat.History(domain.RoomToken("missing"))
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func Test_History_Returns_Ordered_Ledger(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	room, err := f.rooms.Create("Open", true, 1)
	req.NoError(err)

	for _, body := range []string{"first message right here", "second message right here"} {
		err = f.chat.PostMessage(context.Background(), domain.PostMessageCommand{
			Room:     room.Token,
			Username: "alice",
			Body:     body,
		})
		req.NoError(err)
	}

	history, err := f.chat.History(room.Token)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal(int64(1), history[0].Seq)
	req.Equal(int64(2), history[1].Seq)
}

func Test_Participants_Reflects_Roster(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	room, err := f.rooms.Create("Open", true, 1)
	req.NoError(err)

	req.Empty(f.chat.Participants(room.Token))

	req.NoError(f.chat.AddResponder(domain.AddResponderCommand{Room: room.Token, Responder: "Echo Bot"}))
	req.Equal([]string{"Echo Bot"}, f.chat.Participants(room.Token))
}

func Test_DeleteRoom_Cascades(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	room, err := f.admin.CreateRoom("Doomed", true, 1)
	req.NoError(err)

	err = f.chat.PostMessage(context.Background(), domain.PostMessageCommand{
		Room:     room.Token,
		Username: "alice",
		Body:     "this will not survive",
	})
	req.NoError(err)
	req.NoError(f.chat.AddResponder(domain.AddResponderCommand{Room: room.Token, Responder: "Echo Bot"}))

	found, err := f.admin.DeleteRoom(room.Token)
	req.NoError(err)
	req.True(found)

	_, err = f.chat.History(room.Token)
	req.ErrorIs(err, errors.ErrRoomNotFound)
	req.Nil(f.chat.Participants(room.Token))

	messages, err := f.ledger.ListOrdered(room.ID)
	req.NoError(err)
	req.Empty(messages)
}

func Test_DeleteRoom_Missing(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	found, err := f.admin.DeleteRoom(domain.RoomToken("missing"))
	req.NoError(err)
	req.False(found)
}

func Test_ListRooms(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	_, err := f.admin.CreateRoom("One", true, 1)
	req.NoError(err)
	_, err = f.admin.CreateRoom("Two", false, 1)
	req.NoError(err)

	rooms, err := f.admin.ListRooms()
	req.NoError(err)
	req.Len(rooms, 2)
}
