//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself. Supervision, restart and panic
// recovery belong to the Supervisor.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one consumer of broadcast events, typically a live
// client connection. Consume must not block indefinitely.
type EventSink interface {
	Consume(e event.DomainEvent) error
}

// IRegistry routes room-scoped broadcasts to the sinks of every
// connection currently subscribed to that room.
type IRegistry interface {
	GetSinksForRoom(token domain.RoomToken) []EventSink
	GetSink(sessionID string) (EventSink, bool)
	Register(sessionID string, sink EventSink)
	Subscribe(sessionID string, token domain.RoomToken, sink EventSink)
	Unsubscribe(sessionID string, token domain.RoomToken)
	Drop(sessionID string)
}

// Responder is the invocable capability behind a personality. It may
// perform network calls: treat it as slow and fallible.
type Responder interface {
	Respond(ctx context.Context, roomTitle string, participants []string, history []domain.Message, newMessage string) (string, error)
}

// Ledger is the durable ordered message log.
type Ledger interface {
	Append(room domain.RoomID, senderID int64, senderName, body string) (domain.Message, error)
	ListOrdered(room domain.RoomID) ([]domain.Message, error)
	DeleteByID(room domain.RoomID, messageID string) (bool, error)
}
