package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// entryTTL bounds how long a crashed instance's entries survive.
const entryTTL = 24 * time.Hour

// Manager cluster-wide live connection sets, one Redis set per room.
type Manager struct {
	client   *redis.Client
	serverID string
}

// NewManager 생성자. serverID scopes members so instances never collide.
func NewManager(client *redis.Client, serverID string) *Manager {
	return &Manager{client: client, serverID: serverID}
}

func roomKey(code string) string {
	return "presence:room:" + code
}

func (m *Manager) member(connID string) string {
	return m.serverID + ":" + connID
}

// Joined 연결을 방 presence에 추가
func (m *Manager) Joined(ctx context.Context, code, connID string) error {
	key := roomKey(code)
	pipe := m.client.TxPipeline()
	pipe.SAdd(ctx, key, m.member(connID))
	pipe.Expire(ctx, key, entryTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Left 연결을 방 presence에서 제거
func (m *Manager) Left(ctx context.Context, code, connID string) error {
	return m.client.SRem(ctx, roomKey(code), m.member(connID)).Err()
}

// Counts 여러 방의 클러스터 전체 연결 수 조회
func (m *Manager) Counts(ctx context.Context, codes []string) (map[string]int64, error) {
	out := make(map[string]int64, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	pipe := m.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(codes))
	for i, code := range codes {
		cmds[i] = pipe.SCard(ctx, roomKey(code))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	for i, code := range codes {
		out[code] = cmds[i].Val()
	}
	return out, nil
}

// Forget removes a deleted room's set
func (m *Manager) Forget(ctx context.Context, code string) error {
	return m.client.Del(ctx, roomKey(code)).Err()
}
