package presence

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Store mirrors room membership so other services can see who is in which
// room. The relay never reads it back for routing.
type Store interface {
	Reset(ctx context.Context) error
	AddMember(ctx context.Context, room, id string) error
	RemoveMember(ctx context.Context, room, id string) error
	Members(ctx context.Context, room string) ([]string, error)
}

// RedisStore implements Store using one Redis set per room plus a set of
// active room ids.
type RedisStore struct {
	rdb      *redis.Client
	prefix   string
	keyRooms string
}

// NewRedisStore builds a presence store backed by Redis. Prefix is optional (e.g., "signal-relay").
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = "signal-relay"
	}
	return &RedisStore{
		rdb:      rdb,
		prefix:   p,
		keyRooms: fmt.Sprintf("%s:rooms", p),
	}
}

func (s *RedisStore) membersKey(room string) string {
	return fmt.Sprintf("%s:room:%s:members", s.prefix, room)
}

// Reset clears every room this prefix knows about. Relay state is in-memory,
// so a restarted relay starts from empty rooms.
func (s *RedisStore) Reset(ctx context.Context) error {
	rooms, err := s.rdb.SMembers(ctx, s.keyRooms).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(rooms)+1)
	for _, room := range rooms {
		keys = append(keys, s.membersKey(room))
	}
	keys = append(keys, s.keyRooms)
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) AddMember(ctx context.Context, room, id string) error {
	pipe := s.rdb.TxPipeline()
	_ = pipe.SAdd(ctx, s.membersKey(room), id)
	_ = pipe.SAdd(ctx, s.keyRooms, room)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) RemoveMember(ctx context.Context, room, id string) error {
	pipe := s.rdb.TxPipeline()
	_ = pipe.SRem(ctx, s.membersKey(room), id)
	card := pipe.SCard(ctx, s.membersKey(room))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if card.Val() == 0 {
		return s.rdb.SRem(ctx, s.keyRooms, room).Err()
	}
	return nil
}

func (s *RedisStore) Members(ctx context.Context, room string) ([]string, error) {
	vals, err := s.rdb.SMembers(ctx, s.membersKey(room)).Result()
	if err != nil {
		return nil, err
	}
	return vals, nil
}
