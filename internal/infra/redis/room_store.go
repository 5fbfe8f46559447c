package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"song-trivia-service/internal/app"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Room handles stay in a local map; game state is process-local by design
//     and never persisted.
//   - Redis only marks room liveness (room id -> owner id with TTL) so
//     external tooling can observe which rooms are active.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Create(room *app.Room) {
	s.mu.Lock()
	s.rooms[room.ID()] = room
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(room.ID()), room.OwnerID(), s.ttl).Err()
}

func (s *RoomStore) Get(roomID string) (*app.Room, bool) {
	s.mu.RLock()
	room, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		// refresh the marker while the room is being used
		_ = s.client.Expire(context.Background(), s.key(roomID), s.ttl).Err()
	}
	return room, ok
}

func (s *RoomStore) key(roomID string) string {
	return "room:live:" + roomID
}
