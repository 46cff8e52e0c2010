package session

import (
	"sync"
)

// Registry maps room codes to the live connections joined to them. All
// methods are atomic; callers do store I/O before or after, never during.
type Registry interface {
	// Join moves c into code, leaving any previous room.
	Join(code string, c Conn)
	// Leave removes c and returns the room it was in.
	Leave(c Conn) (string, bool)
	PeersExcluding(code string, c Conn) []Conn
	Size(code string) int
	// Rooms returns live connection counts keyed by room code.
	Rooms() map[string]int
}

// LocalRegistry process-local Registry.
type LocalRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]map[Conn]struct{}
	byConn map[Conn]string
}

var _ Registry = (*LocalRegistry)(nil)

func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{
		rooms:  make(map[string]map[Conn]struct{}),
		byConn: make(map[Conn]string),
	}
}

func (r *LocalRegistry) Join(code string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[c]; ok {
		if prev == code {
			return
		}
		r.removeLocked(prev, c)
	}

	set, ok := r.rooms[code]
	if !ok {
		set = make(map[Conn]struct{})
		r.rooms[code] = set
	}
	set[c] = struct{}{}
	r.byConn[c] = code
}

func (r *LocalRegistry) Leave(c Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.byConn[c]
	if !ok {
		return "", false
	}
	r.removeLocked(code, c)
	return code, true
}

func (r *LocalRegistry) removeLocked(code string, c Conn) {
	delete(r.byConn, c)
	if set, ok := r.rooms[code]; ok {
		delete(set, c)
		// 빈 방 정리
		if len(set) == 0 {
			delete(r.rooms, code)
		}
	}
}

func (r *LocalRegistry) PeersExcluding(code string, c Conn) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.rooms[code]
	peers := make([]Conn, 0, len(set))
	for peer := range set {
		if peer != c {
			peers = append(peers, peer)
		}
	}
	return peers
}

func (r *LocalRegistry) Size(code string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[code])
}

func (r *LocalRegistry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.rooms))
	for code, set := range r.rooms {
		out[code] = len(set)
	}
	return out
}
