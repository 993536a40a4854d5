package runtime

import (
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

type set map[string]struct{}

// Registry tracks live connections and which rooms each one is
// subscribed to. It is the broadcast routing table, distinct from the
// coordinator's roster: the roster holds display names (presence), the
// registry holds transport sinks (delivery).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
	rooms    map[domain.RoomToken]set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		rooms:    make(map[domain.RoomToken]set),
	}
}

// GetSinksForRoom retrieves all active sinks for a room. It performs a
// two-step lookup so a connection present in several rooms is managed
// in a single place. Returns nil for an unknown or empty room.
func (r *Registry) GetSinksForRoom(token domain.RoomToken) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[token]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range members {
		if sink, exists := r.sessions[sessionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// GetSink resolves one connection for point-to-point notices.
func (r *Registry) GetSink(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[sessionID]
	return sink, ok
}

// Register records a connection's sink as soon as the transport
// accepts it, before any room membership exists, so that scoped
// notices (room not found, auth required) can reach it.
func (r *Registry) Register(sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = sink
}

// Subscribe registers a connection's sink and associates it with a
// room. The room entry is initialized on the fly when needed.
func (r *Registry) Subscribe(sessionID string, token domain.RoomToken, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = sink

	if _, ok := r.rooms[token]; !ok {
		r.rooms[token] = make(set)
	}
	r.rooms[token][sessionID] = struct{}{}
}

// Unsubscribe detaches a connection from one room, pruning empty room
// entries so the map does not grow without bound. The session itself
// stays registered until Drop.
func (r *Registry) Unsubscribe(sessionID string, token domain.RoomToken) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.rooms[token]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, token)
		}
	}
}

// Drop removes a disconnected session everywhere: its sink and every
// room association. Roster names are deliberately left alone: presence
// survives an ungraceful disconnect until an explicit leave.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	for token, members := range r.rooms {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, token)
		}
	}
}
