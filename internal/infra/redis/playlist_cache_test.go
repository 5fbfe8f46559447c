package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"song-trivia-service/internal/domain"
)

// countingSource counts provider hits so tests can assert cache behavior.
type countingSource struct {
	tracks map[string][]domain.Track
	calls  int
}

func (s *countingSource) SearchPlaylists(_ context.Context, query string) ([]domain.Playlist, error) {
	return []domain.Playlist{{ID: "pl-1", Name: query}}, nil
}

func (s *countingSource) PlaylistTracks(_ context.Context, playlistID string) ([]domain.Track, error) {
	s.calls++
	tracks, ok := s.tracks[playlistID]
	if !ok {
		return nil, domain.ErrPlaylistNotFound
	}
	return tracks, nil
}

func newTestCache(t *testing.T, source *countingSource) (*PlaylistCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPlaylistCache(client, source, time.Minute), mr
}

func TestPlaylistCacheFetchesOnce(t *testing.T) {
	source := &countingSource{tracks: map[string][]domain.Track{
		"pl-1": {{ID: "t1", Name: "Song", Artist: "Artist", PreviewURL: "u"}},
	}}
	cache, _ := newTestCache(t, source)
	ctx := context.Background()

	first, err := cache.PlaylistTracks(ctx, "pl-1")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := cache.PlaylistTracks(ctx, "pl-1")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", source.calls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].ID != "t1" {
		t.Fatalf("cache returned different tracks: %+v vs %+v", first, second)
	}
}

func TestPlaylistCacheRefetchesAfterExpiry(t *testing.T) {
	source := &countingSource{tracks: map[string][]domain.Track{
		"pl-1": {{ID: "t1", Name: "Song"}},
	}}
	cache, mr := newTestCache(t, source)
	ctx := context.Background()

	if _, err := cache.PlaylistTracks(ctx, "pl-1"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cache.PlaylistTracks(ctx, "pl-1"); err != nil {
		t.Fatalf("fetch after expiry: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected a second provider call after expiry, got %d", source.calls)
	}
}

func TestPlaylistCacheDoesNotCacheErrors(t *testing.T) {
	source := &countingSource{tracks: map[string][]domain.Track{}}
	cache, _ := newTestCache(t, source)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cache.PlaylistTracks(ctx, "missing"); !errors.Is(err, domain.ErrPlaylistNotFound) {
			t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
		}
	}
	if source.calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", source.calls)
	}
}

func TestPlaylistCacheSearchPassesThrough(t *testing.T) {
	source := &countingSource{}
	cache, _ := newTestCache(t, source)

	playlists, err := cache.SearchPlaylists(context.Background(), "hits")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(playlists) != 1 || playlists[0].Name != "hits" {
		t.Fatalf("unexpected search result %+v", playlists)
	}
}
