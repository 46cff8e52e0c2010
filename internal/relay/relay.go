// Package relay is the realtime core: it moves each connection through
// connected → joined → disconnected, fans drawing traffic out to room peers
// and hands snapshot writes to the Persister.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/roomcode"
	"whiteboard-backend/internal/session"
)

// Options relay tuning
type Options struct {
	LookupTimeout time.Duration
}

// Deps collaborators. Cache and Presence may be nil.
type Deps struct {
	Registry  session.Registry
	Store     SnapshotStore
	Persister *Persister
	Cache     SnapshotCache
	Presence  Presence
	Metrics   Recorder
}

type Relay struct {
	registry  session.Registry
	store     SnapshotStore
	persister *Persister
	cache     SnapshotCache
	presence  Presence
	metrics   Recorder
	opts      Options
	log       *logrus.Entry
}

func New(deps Deps, opts Options) *Relay {
	if deps.Metrics == nil {
		deps.Metrics = NopRecorder{}
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 3 * time.Second
	}
	return &Relay{
		registry:  deps.Registry,
		store:     deps.Store,
		persister: deps.Persister,
		cache:     deps.Cache,
		presence:  deps.Presence,
		metrics:   deps.Metrics,
		opts:      opts,
		log:       logger.For("relay"),
	}
}

// Registry exposes the live session registry for diagnostics.
func (r *Relay) Registry() session.Registry {
	return r.registry
}

// Connect registers a new connection in the connected state. Nothing is
// sent until the client joins a room.
func (r *Relay) Connect(conn session.Conn, userID string) *session.Session {
	r.metrics.ConnectionOpened()
	r.log.WithFields(logrus.Fields{"conn_id": conn.ID(), "user_id": userID}).Debug("connected")
	return session.New(conn, userID)
}

// Handle decodes one raw frame and dispatches it.
func (r *Relay) Handle(ctx context.Context, s *session.Session, raw []byte) {
	msg, err := Decode(raw)
	if err != nil {
		r.metrics.Dropped(DropMalformed)
		r.log.WithFields(logrus.Fields{"conn_id": s.ID()}).WithError(err).Debug("rejected frame")
		s.Conn.Send(EncodeError(err.Error()))
		return
	}
	r.Dispatch(ctx, s, msg)
}

// Dispatch routes a decoded message.
func (r *Relay) Dispatch(ctx context.Context, s *session.Session, msg Inbound) {
	r.metrics.Event(msg.Type().String())

	switch m := msg.(type) {
	case JoinRoom:
		r.JoinRoom(ctx, s, m.RoomCode)
	case DrawingData:
		r.Draw(s, m)
	case CanvasData:
		r.SyncCanvas(s, m)
	case ClearCanvas:
		r.ClearCanvas(s, m.RoomCode)
	}
}

// JoinRoom 방 참가 후 저장된 캔버스를 이 연결에만 전송. An invalid code leaves
// the session untouched and replies with an error frame; a failed snapshot
// lookup does not fail the join.
func (r *Relay) JoinRoom(ctx context.Context, s *session.Session, rawCode string) {
	code := roomcode.Normalize(rawCode)
	if !roomcode.Valid(code) {
		s.Conn.Send(EncodeError(errs.ErrInvalidRoomCode.Error()))
		return
	}

	prev, wasJoined := s.Room()
	if !s.Join(code) {
		return
	}
	r.registry.Join(code, s.Conn)

	log := r.log.WithFields(logrus.Fields{"conn_id": s.ID(), "user_id": s.UserID, "room_code": code})
	log.Info("joined room")

	if r.presence != nil && (!wasJoined || prev != code) {
		r.updatePresence(prev, wasJoined, code, s.ID())
	}

	data, err := r.lookupSnapshot(ctx, code)
	if err != nil {
		log.WithError(err).Warn("snapshot lookup failed, joining without sync")
		return
	}
	if data != "" {
		if !s.Conn.Send(EncodeCanvas(data)) {
			r.metrics.Dropped(DropSendBufferFull)
		}
	}
}

func (r *Relay) lookupSnapshot(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.LookupTimeout)
	defer cancel()

	if r.cache != nil {
		data, ok, err := r.cache.Get(ctx, code)
		if err == nil && ok {
			return data, nil
		}
		if err != nil {
			r.log.WithField("room_code", code).WithError(err).Debug("snapshot cache read failed")
		}
	}

	// 캐시를 채우지 않음: 이 읽기와 동시에 끝난 clear/update 를 덮어쓸 수 있음
	room, err := r.store.FindByCode(ctx, code)
	if errors.Is(err, errs.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return room.CanvasData, nil
}

// Draw forwards one stroke to the room's other connections. Strokes are never persisted.
func (r *Relay) Draw(s *session.Session, m DrawingData) {
	code, ok := r.target(s, m)
	if !ok {
		return
	}
	r.fanOut(code, s, EncodeDrawing(m.Stroke))
}

// SyncCanvas 캔버스 스냅샷을 피어에게 먼저 전달한 뒤 저장 작업을 큐에 넣음
func (r *Relay) SyncCanvas(s *session.Session, m CanvasData) {
	code, ok := r.target(s, m)
	if !ok {
		return
	}
	r.fanOut(code, s, EncodeCanvas(m.ImageData))
	if r.persister != nil {
		r.persister.UpdateSnapshot(code, m.ImageData)
	}
}

// ClearCanvas tells peers to wipe the canvas and queues an empty snapshot.
func (r *Relay) ClearCanvas(s *session.Session, rawCode string) {
	code, ok := r.target(s, ClearCanvas{RoomCode: rawCode})
	if !ok {
		return
	}
	r.fanOut(code, s, EncodeClear())
	if r.persister != nil {
		r.persister.ClearSnapshot(code)
	}
}

// target resolves the room a drawing-phase message applies to. The message's
// own code wins; an empty one falls back to the joined room.
func (r *Relay) target(s *session.Session, m Inbound) (string, bool) {
	joined, isJoined := s.Room()
	if !isJoined {
		r.metrics.Dropped(DropNotJoined)
		r.log.WithFields(logrus.Fields{"conn_id": s.ID(), "type": m.Type()}).Debug("dropping event before join")
		return "", false
	}

	code := roomcode.Normalize(m.Code())
	if code == "" {
		return joined, true
	}
	if !roomcode.Valid(code) {
		r.metrics.Dropped(DropMalformed)
		s.Conn.Send(EncodeError(errs.ErrInvalidRoomCode.Error()))
		return "", false
	}
	return code, true
}

func (r *Relay) fanOut(code string, sender *session.Session, frame []byte) {
	peers := r.registry.PeersExcluding(code, sender.Conn)
	delivered := 0
	for _, peer := range peers {
		if peer.Send(frame) {
			delivered++
			continue
		}
		r.metrics.Dropped(DropSendBufferFull)
		r.log.WithFields(logrus.Fields{"room_code": code, "conn_id": peer.ID()}).Warn("peer send buffer full, frame dropped")
	}
	r.metrics.Delivered(delivered)
}

// Disconnect 연결 종료 처리. Safe to call twice; peers are not notified.
func (r *Relay) Disconnect(s *session.Session) {
	if !s.Close() {
		return
	}
	code, ok := r.registry.Leave(s.Conn)
	r.metrics.ConnectionClosed()

	fields := logrus.Fields{"conn_id": s.ID(), "user_id": s.UserID, "duration": s.Duration().Round(time.Second)}
	if ok {
		fields["room_code"] = code
		if r.presence != nil {
			r.updatePresence(code, true, "", s.ID())
		}
	}
	r.log.WithFields(fields).Debug("disconnected")
}

// updatePresence fire-and-forget
func (r *Relay) updatePresence(prev string, hadPrev bool, next, connID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if hadPrev && prev != "" {
			if err := r.presence.Left(ctx, prev, connID); err != nil {
				r.log.WithError(err).Debug("presence leave failed")
			}
		}
		if next != "" {
			if err := r.presence.Joined(ctx, next, connID); err != nil {
				r.log.WithError(err).Debug("presence join failed")
			}
		}
	}()
}
