// internal/chat/registry.go
package chat

import "sync"

// Registry tracks which conversation room each live connection currently
// occupies. A connection belongs to at most one room at a time; joining a
// second room removes it from the first. Rooms exist only while they have
// members, so registry size is bounded by the number of concurrent
// connections, not by the number of conversations.
//
// The registry is presence state only. Nothing is persisted; it rebuilds
// from empty on restart.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]map[*Conn]struct{}
	byConn map[*Conn]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Conn]struct{}),
		byConn: make(map[*Conn]string),
	}
}

// Join places conn into the room for conversationID, removing it from any
// room it previously occupied.
func (r *Registry) Join(conn *Conn, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(conn)

	room, ok := r.rooms[conversationID]
	if !ok {
		room = make(map[*Conn]struct{})
		r.rooms[conversationID] = room
	}
	room[conn] = struct{}{}
	r.byConn[conn] = conversationID
}

// Leave removes conn from its current room, if any. Invoked on disconnect.
func (r *Registry) Leave(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(conn)
}

// removeLocked detaches conn from its room and garbage-collects the room if
// it became empty. Caller holds the lock.
func (r *Registry) removeLocked(conn *Conn) {
	current, ok := r.byConn[conn]
	if !ok {
		return
	}
	delete(r.byConn, conn)
	if room, ok := r.rooms[current]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(r.rooms, current)
		}
	}
}

// MembersOf returns a snapshot of the connections currently in the room for
// conversationID.
func (r *Registry) MembersOf(conversationID string) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[conversationID]
	members := make([]*Conn, 0, len(room))
	for conn := range room {
		members = append(members, conn)
	}
	return members
}

// RoomOf returns the conversation id conn currently occupies, if any.
func (r *Registry) RoomOf(conn *Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[conn]
	return id, ok
}
