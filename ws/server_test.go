package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/auth"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"chat-relay/responder"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type relayFixture struct {
	server *httptest.Server
	rooms  *repositories.RoomRepository
	tokens *auth.TokenManager
}

// newRelayFixture wires the full pipeline: badger, coordinator, fanout
// worker and the websocket transport, behind a test HTTP server.
func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rooms, err := repositories.NewRoomRepository(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rooms.Close() })

	log := slog.Default()
	ledger := repositories.NewMessageRepository(db, log)
	events := make(chan event.DomainEvent, 256)
	registry := runtime.NewRegistry()
	personalities := responder.Load(log, responder.NewEcho())
	coordinator := runtime.NewCoordinator(log, rooms, ledger, personalities, events, 0)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = workers.NewEventFanout(log, registry, events).Run(ctx) }()

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	chat := services.NewChatService(coordinator, rooms, ledger)
	relay := NewServer(log, chat, tokens, registry)

	server := httptest.NewServer(http.HandlerFunc(relay.Handle))
	t.Cleanup(server.Close)
	return &relayFixture{server: server, rooms: rooms, tokens: tokens}
}

func (f *relayFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) ServerEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt ServerEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func send(t *testing.T, conn *websocket.Conn, evt ClientEvent) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(evt))
}

func Test_Relay_Anonymous_Join_And_Echo_Reply(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	room, err := f.rooms.Create("Open", true, 1)
	req.NoError(err)

	conn := f.dial(t, "")
	send(t, conn, ClientEvent{Type: EventJoin, RoomToken: string(room.Token)})

	update := readEvent(t, conn)
	req.Equal(EventParticipantUpdate, update.Type)
	req.Len(update.Participants, 1)
	username := update.Participants[0]
	req.True(strings.HasPrefix(username, "anon-"))

	entered := readEvent(t, conn)
	req.Equal(EventStatus, entered.Type)
	req.Equal(username+" has entered the chat.", entered.Msg)

	send(t, conn, ClientEvent{Type: EventAddPersonality, RoomToken: string(room.Token), Personality: "Echo Bot"})
	req.Equal(EventParticipantUpdate, readEvent(t, conn).Type)
	req.Equal("Echo Bot has joined the chat.", readEvent(t, conn).Msg)

	send(t, conn, ClientEvent{
		Type:      EventChatMessage,
		RoomToken: string(room.Token),
		Username:  username,
		Message:   "the quick brown fox",
	})

	human := readEvent(t, conn)
	req.Equal(EventChatMessage, human.Type)
	req.Equal(int64(1), human.RoomMessageID)
	req.Equal(username, human.Username)
	req.Equal("the quick brown fox", human.Message)
	req.NotEmpty(human.MessageDBID)

	reply := readEvent(t, conn)
	req.Equal(EventChatMessage, reply.Type)
	req.Equal(int64(2), reply.RoomMessageID)
	req.Equal("Echo Bot", reply.Username)
	req.Equal("the quick brown fox", reply.Message)
}

func Test_Relay_Join_Unknown_Room_Notice(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	conn := f.dial(t, "")
	send(t, conn, ClientEvent{Type: EventJoin, RoomToken: "no-such-room"})

	notice := readEvent(t, conn)
	req.Equal(EventStatus, notice.Type)
	req.Equal("Error: Chat room not found.", notice.Msg)
}

func Test_Relay_Auth_Required_Room(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	room, err := f.rooms.Create("Members only", false, 1)
	req.NoError(err)

	anon := f.dial(t, "")
	send(t, anon, ClientEvent{Type: EventJoin, RoomToken: string(room.Token)})
	notice := readEvent(t, anon)
	req.Equal(EventStatus, notice.Type)
	req.Equal("Error: Authentication required for this chat.", notice.Msg)

	token, err := f.tokens.Generate(7, "alice", []string{"user"})
	req.NoError(err)
	authed := f.dial(t, "?token="+token)
	send(t, authed, ClientEvent{Type: EventJoin, RoomToken: string(room.Token)})

	update := readEvent(t, authed)
	req.Equal(EventParticipantUpdate, update.Type)
	req.Equal([]string{"alice"}, update.Participants)
}

func Test_Relay_Delete_Message_Requires_Admin(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	room, err := f.rooms.Create("Open", true, 1)
	req.NoError(err)

	conn := f.dial(t, "")
	send(t, conn, ClientEvent{Type: EventJoin, RoomToken: string(room.Token)})
	readEvent(t, conn) // participant_update
	readEvent(t, conn) // entered notice

	send(t, conn, ClientEvent{
		Type:      EventDeleteMessage,
		RoomToken: string(room.Token),
		MessageID: "3b9b8e90-88a8-4a3c-a9a6-6f4b9a8e2a11",
	})
	notice := readEvent(t, conn)
	req.Equal(EventStatus, notice.Type)
	req.Equal("Error: Not authorized to delete messages.", notice.Msg)
}

func Test_Relay_Admin_Deletes_Message(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	room, err := f.rooms.Create("Open", true, 1)
	req.NoError(err)

	token, err := f.tokens.Generate(1, "root", []string{"user", "admin"})
	req.NoError(err)
	conn := f.dial(t, "?token="+token)
	send(t, conn, ClientEvent{Type: EventJoin, RoomToken: string(room.Token)})
	readEvent(t, conn)
	readEvent(t, conn)

	send(t, conn, ClientEvent{
		Type:      EventChatMessage,
		RoomToken: string(room.Token),
		Username:  "root",
		Message:   "please remove this message",
	})
	posted := readEvent(t, conn)
	req.Equal(EventChatMessage, posted.Type)

	send(t, conn, ClientEvent{
		Type:      EventDeleteMessage,
		RoomToken: string(room.Token),
		MessageID: posted.MessageDBID,
	})
	deleted := readEvent(t, conn)
	req.Equal(EventMessageDeleted, deleted.Type)
	req.Equal(posted.MessageDBID, deleted.MessageID)
}

func Test_Relay_Malformed_Event(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	conn := f.dial(t, "")
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	notice := readEvent(t, conn)
	req.Equal(EventStatus, notice.Type)
	req.Equal("Error: Malformed event.", notice.Msg)
}
