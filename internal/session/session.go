package session

import (
	"sync"
	"time"
)

// State 연결 상태
type State int

const (
	StateConnected    State = iota // 연결됨, 방 없음
	StateJoined                    // 방 참가
	StateDisconnected              // 연결 종료 (terminal)
)

// String 상태를 문자열로 반환
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Conn 라이브 연결 핸들. Send must not block; it reports whether the frame was queued.
type Conn interface {
	ID() string
	Send(frame []byte) bool
}

// Session 클라이언트 세션 (Thread-Safe)
type Session struct {
	Conn        Conn
	UserID      string
	ConnectedAt time.Time

	mu    sync.RWMutex
	state State
	room  string
}

// New 새 세션 생성 (StateConnected)
func New(conn Conn, userID string) *Session {
	return &Session{
		Conn:        conn,
		UserID:      userID,
		ConnectedAt: time.Now(),
		state:       StateConnected,
	}
}

// ID returns the connection id.
func (s *Session) ID() string {
	return s.Conn.ID()
}

// Join 방 참가 상태로 전환. Returns false once disconnected.
func (s *Session) Join(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return false
	}
	s.state = StateJoined
	s.room = code
	return true
}

// Room 현재 방 코드
func (s *Session) Room() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.room, s.state == StateJoined
}

// State 현재 상태 조회
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Close 세션 종료. Returns false if it was already closed.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return false
	}
	s.state = StateDisconnected
	s.room = ""
	return true
}

// Duration 연결 유지 시간
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}
