package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"song-trivia-service/internal/app"
	"song-trivia-service/internal/domain"
)

// PlaylistCache caches playlist tracks in Redis (one JSON value per
// playlist) and falls back to the wrapped source on a miss. Question
// generation re-fetches the playlist on every start/restart, so the cache
// keeps repeated games off the provider's rate limits.
type PlaylistCache struct {
	client *redis.Client
	source app.TrackSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPlaylistCache(client *redis.Client, source app.TrackSource, ttl time.Duration) *PlaylistCache {
	return &PlaylistCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SearchPlaylists is not cached; queries are too varied to be worth keys.
func (c *PlaylistCache) SearchPlaylists(ctx context.Context, query string) ([]domain.Playlist, error) {
	return c.source.SearchPlaylists(ctx, query)
}

func (c *PlaylistCache) PlaylistTracks(ctx context.Context, playlistID string) ([]domain.Track, error) {
	key := c.tracksKey(playlistID)

	if tracks, ok := c.cached(ctx, key); ok {
		return tracks, nil
	}

	result, err, _ := c.sf.Do(playlistID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if tracks, ok := c.cached(ctx, key); ok {
			return tracks, nil
		}

		tracks, err := c.source.PlaylistTracks(ctx, playlistID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(tracks); err == nil {
			// best-effort: a failed write just means the next fetch misses
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return tracks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Track), nil
}

func (c *PlaylistCache) cached(ctx context.Context, key string) ([]domain.Track, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var tracks []domain.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, false
	}
	return tracks, true
}

func (c *PlaylistCache) tracksKey(playlistID string) string {
	return "playlist:" + playlistID + ":tracks"
}

func (c *PlaylistCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
