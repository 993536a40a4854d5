package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain/event"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var _ contract.EventSink = (*Session)(nil)

// Session is one live websocket connection. It implements EventSink:
// the fanout worker hands it domain events, the write pump pushes them
// down the wire.
//
// The send channel is never closed; shutdown is signalled through done
// so a late Consume from the fanout worker cannot hit a closed channel.
type Session struct {
	id        string
	log       *slog.Logger
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string, log *slog.Logger, conn *websocket.Conn) *Session {
	return &Session{
		id:   id,
		log:  log,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Consume translates a domain event to its wire form and queues it.
// A full buffer means this client cannot keep up; the event is dropped
// for this session only, never for the room.
func (s *Session) Consume(e event.DomainEvent) error {
	payload, ok := toServerEvent(e)
	if !ok {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return fmt.Errorf("session %s closed", s.id)
	case s.send <- data:
		return nil
	default:
		return fmt.Errorf("session %s send buffer full", s.id)
	}
}

// sendDirect bypasses the fanout pipeline for transport-level errors
// (malformed payloads) that never reach the coordinator.
func (s *Session) sendDirect(evt ServerEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case <-s.done:
	case s.send <- data:
	default:
	}
}

// writePump owns all writes to the connection, including pings. One
// writer goroutine per connection: gorilla/websocket forbids
// concurrent writers.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
