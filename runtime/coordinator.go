// Package runtime coordinates room sessions: membership, sequence
// numbering, responder fan-out and broadcast routing. It owns no
// business rules about what responders say, only when they are asked.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/responder"

	"github.com/google/uuid"
)

// roomState is the per-room mutable state owned by the coordinator.
// Its mutex is the room's mutual-exclusion scope: every read-then-write
// (sequence assignment, roster mutation) happens under it. Responder
// calls never run under this lock.
type roomState struct {
	mu     sync.Mutex
	room   domain.Room
	roster domain.Roster
}

// Coordinator serializes all mutating operations per room and emits
// the resulting broadcast events. Rooms are independent: there is no
// cross-room locking.
type Coordinator struct {
	mu               sync.Mutex
	log              *slog.Logger
	rooms            map[domain.RoomToken]*roomState
	roomRepo         repositories.IRoomRepository
	ledger           repositories.IMessageRepository
	personalities    *responder.Registry
	events           chan<- event.DomainEvent
	responderTimeout time.Duration
}

func NewCoordinator(
	log *slog.Logger,
	roomRepo repositories.IRoomRepository,
	ledger repositories.IMessageRepository,
	personalities *responder.Registry,
	events chan<- event.DomainEvent,
	responderTimeout time.Duration,
) *Coordinator {
	return &Coordinator{
		log:              log,
		rooms:            make(map[domain.RoomToken]*roomState),
		roomRepo:         roomRepo,
		ledger:           ledger,
		personalities:    personalities,
		events:           events,
		responderTimeout: responderTimeout,
	}
}

// Join admits a connection into a room. It returns the display name
// that was actually added, which differs from the requested one for
// anonymous visitors. All failures are reported to the requester as
// notices and returned for transport bookkeeping.
func (c *Coordinator) Join(cmd domain.JoinCommand) (string, error) {
	room, err := c.roomRepo.GetByToken(cmd.Room)
	if err != nil {
		c.notifySession(cmd.Room, cmd.Sender.SessionID, "Error: Chat room not found.")
		return "", fmt.Errorf("%w: %s", errors.ErrRoomNotFound, cmd.Room)
	}

	if !room.AllowAnonymous && !cmd.Sender.Authenticated {
		c.notifySession(cmd.Room, cmd.Sender.SessionID, "Error: Authentication required for this chat.")
		return "", errors.ErrAuthRequired
	}

	username := cmd.Username
	if !cmd.Sender.Authenticated {
		username = anonymousName()
	}

	state := c.state(room)
	state.mu.Lock()
	state.roster.Add(username)
	snapshot := state.roster.Snapshot()
	c.publish(event.ParticipantsChanged{Room: room.Token, Participants: snapshot})
	c.publish(event.Notice{Room: room.Token, Text: fmt.Sprintf("%s has entered the chat.", username)})
	state.mu.Unlock()

	return username, nil
}

// AddResponder puts a personality into the room roster. Re-adding a
// personality that is already present is a silent no-op: membership
// changes at most once and nothing is re-broadcast.
func (c *Coordinator) AddResponder(cmd domain.AddResponderCommand) error {
	room, err := c.roomRepo.GetByToken(cmd.Room)
	if err != nil {
		c.notifyRoom(cmd.Room, "Error: Chat room not found.")
		return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, cmd.Room)
	}

	if !c.personalities.Has(cmd.Responder) {
		c.notifyRoom(room.Token, fmt.Sprintf("Error: Personality %q not found.", cmd.Responder))
		return fmt.Errorf("%w: %s", errors.ErrResponderNotFound, cmd.Responder)
	}

	state := c.state(room)
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.roster.Has(cmd.Responder) {
		return nil
	}
	state.roster.Add(cmd.Responder)
	c.publish(event.ParticipantsChanged{Room: room.Token, Participants: state.roster.Snapshot()})
	c.publish(event.Notice{Room: room.Token, Text: fmt.Sprintf("%s has joined the chat.", cmd.Responder)})
	return nil
}

// RemoveResponder and Leave share one semantic: drop a name from the
// roster if present, broadcast, otherwise do nothing at all.
func (c *Coordinator) RemoveResponder(cmd domain.RemoveResponderCommand) {
	c.removeName(cmd.Room, cmd.Responder)
}

func (c *Coordinator) Leave(cmd domain.LeaveCommand) {
	c.removeName(cmd.Room, cmd.Username)
}

func (c *Coordinator) removeName(token domain.RoomToken, name string) {
	state, ok := c.lookup(token)
	if !ok {
		return
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if !state.roster.Has(name) {
		return
	}
	state.roster.Remove(name)
	c.publish(event.ParticipantsChanged{Room: token, Participants: state.roster.Snapshot()})
	c.publish(event.Notice{Room: token, Text: fmt.Sprintf("%s has left the chat.", name)})
}

// PostMessage appends a human message to the ledger, broadcasts it,
// then fans it out to every responder currently in the roster except
// the sender. Responder replies that pass the acceptance filter get
// their own sequence numbers and broadcasts, in invocation order.
//
// The room lock covers each ledger append and the matching broadcast
// enqueue, so observed broadcast order always matches ledger order.
// It is NOT held across responder calls: a slow personality delays its
// own reply, never message ingestion.
func (c *Coordinator) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) error {
	room, err := c.roomRepo.GetByToken(cmd.Room)
	if err != nil {
		c.notifyRoom(cmd.Room, "Error: Chat room not found.")
		return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, cmd.Room)
	}

	state := c.state(room)

	state.mu.Lock()
	msg, err := c.ledger.Append(room.ID, cmd.SenderID, cmd.Username, cmd.Body)
	if err != nil {
		state.mu.Unlock()
		c.notifyRoom(room.Token, "Error: Message could not be recorded.")
		return err
	}
	c.publish(messagePosted(room.Token, msg))
	// History snapshot for this turn: taken once, before any replies,
	// so no responder sees another responder's same-turn output.
	history, histErr := c.ledger.ListOrdered(room.ID)
	snapshot := state.roster.Snapshot()
	state.mu.Unlock()

	observability.MessagesPosted.WithLabelValues("human").Inc()
	if histErr != nil {
		c.log.Error("Ledger history read failed, responders skipped", "room", room.Token, "err", histErr)
		return nil
	}

	for _, name := range snapshot {
		if name == cmd.Username {
			continue
		}
		descriptor, ok := c.personalities.Get(name)
		if !ok {
			continue
		}
		reply := c.invoke(ctx, descriptor, room.Title, snapshot, history, cmd.Body)
		if !Acceptable(reply) {
			observability.ResponderSuppressed.WithLabelValues(name).Inc()
			continue
		}

		state.mu.Lock()
		replyMsg, err := c.ledger.Append(room.ID, domain.ResponderSenderID, name, reply)
		if err != nil {
			state.mu.Unlock()
			c.log.Error("Responder reply append failed", "room", room.Token, "personality", name, "err", err)
			continue
		}
		c.publish(messagePosted(room.Token, replyMsg))
		state.mu.Unlock()
		observability.MessagesPosted.WithLabelValues("responder").Inc()
	}
	return nil
}

// DeleteMessage removes one ledger entry on behalf of an admin and
// broadcasts the deletion. Non-admin callers get a notice and nothing
// changes.
func (c *Coordinator) DeleteMessage(cmd domain.DeleteMessageCommand) error {
	if !cmd.Sender.Admin {
		c.notifySession(cmd.Room, cmd.Sender.SessionID, "Error: Not authorized to delete messages.")
		return errors.ErrNotAllowed
	}

	room, err := c.roomRepo.GetByToken(cmd.Room)
	if err != nil {
		c.notifySession(cmd.Room, cmd.Sender.SessionID, "Error: Chat room not found.")
		return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, cmd.Room)
	}

	messageID, err := uuid.Parse(cmd.MessageID)
	if err != nil {
		c.notifySession(cmd.Room, cmd.Sender.SessionID, "Error: Message not found.")
		return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, cmd.MessageID)
	}

	state := c.state(room)
	state.mu.Lock()
	found, err := c.ledger.DeleteByID(room.ID, messageID.String())
	if err != nil {
		state.mu.Unlock()
		return err
	}
	if found {
		c.publish(event.MessageDeleted{Room: room.Token, MessageID: messageID})
	}
	state.mu.Unlock()

	if !found {
		c.notifySession(cmd.Room, cmd.Sender.SessionID, "Error: Message not found.")
		return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, cmd.MessageID)
	}
	return nil
}

// Membership returns the current roster snapshot of a room, or nil
// when the coordinator holds no state for it.
func (c *Coordinator) Membership(token domain.RoomToken) []string {
	state, ok := c.lookup(token)
	if !ok {
		return nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.roster.Snapshot()
}

// Forget drops the in-memory state of a deleted room. The persisted
// room record is handled by the repositories; live connections will
// get not-found notices on their next command.
func (c *Coordinator) Forget(token domain.RoomToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, token)
}

// invoke runs one responder capability with a timeout. Failures are
// converted to an empty reply: the user-visible behavior of a broken
// personality is silence, while the failure itself lands in logs and
// metrics.
func (c *Coordinator) invoke(ctx context.Context, descriptor responder.Descriptor, roomTitle string, participants []string, history []domain.Message, newMessage string) string {
	observability.ResponderInvocations.WithLabelValues(descriptor.Name).Inc()

	callCtx := ctx
	if c.responderTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.responderTimeout)
		defer cancel()
	}

	started := time.Now()
	reply, err := descriptor.Capability.Respond(callCtx, roomTitle, participants, history, newMessage)
	if err != nil {
		observability.ResponderFailures.WithLabelValues(descriptor.Name).Inc()
		c.log.Warn("Responder failed, reply suppressed",
			"personality", descriptor.Name,
			"took", time.Since(started),
			"err", err)
		return ""
	}
	return reply
}

// state returns the owned state for a room, creating it on first use.
func (c *Coordinator) state(room domain.Room) *roomState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.rooms[room.Token]; ok {
		existing.room = room
		return existing
	}
	created := &roomState{room: room, roster: domain.NewRoster()}
	c.rooms[room.Token] = created
	return created
}

func (c *Coordinator) lookup(token domain.RoomToken) (*roomState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.rooms[token]
	return state, ok
}

// publish enqueues an event for the fanout worker. A full pipeline is
// a delivery problem, not a correctness one: the ledger already holds
// the truth, so the event is dropped with a warning.
func (c *Coordinator) publish(e event.DomainEvent) {
	select {
	case c.events <- e:
	default:
		c.log.Warn(fmt.Sprintf("Event channel full for room %s, dropping broadcast", e.Token()))
	}
}

func (c *Coordinator) notifyRoom(token domain.RoomToken, text string) {
	c.publish(event.Notice{Room: token, Text: text})
}

func (c *Coordinator) notifySession(token domain.RoomToken, sessionID, text string) {
	c.publish(event.Notice{Room: token, SessionID: sessionID, Text: text})
}

func messagePosted(token domain.RoomToken, msg domain.Message) event.MessagePosted {
	return event.MessagePosted{
		Room:       token,
		MessageID:  msg.ID,
		Seq:        msg.Seq,
		SenderName: msg.SenderName,
		Body:       msg.Body,
		At:         msg.CreatedAt,
	}
}

// anonymousName synthesizes a short display name for unauthenticated
// visitors. Collision-tolerant, not guaranteed unique.
func anonymousName() string {
	return "anon-" + uuid.NewString()[:3]
}
