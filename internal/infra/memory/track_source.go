package memory

import (
	"context"
	"strings"

	"song-trivia-service/internal/domain"
)

// StaticTrackSource serves a fixed catalog. Useful for demos and tests, and
// as the fallback when no provider credentials are configured.
type StaticTrackSource struct {
	playlists []domain.Playlist
	tracks    map[string][]domain.Track
}

func NewStaticTrackSource(playlists []domain.Playlist, tracks map[string][]domain.Track) *StaticTrackSource {
	return &StaticTrackSource{playlists: playlists, tracks: tracks}
}

// SearchPlaylists matches playlist names case-insensitively. An empty query
// returns the whole catalog.
func (s *StaticTrackSource) SearchPlaylists(_ context.Context, query string) ([]domain.Playlist, error) {
	query = strings.ToLower(query)
	matches := make([]domain.Playlist, 0, len(s.playlists))
	for _, p := range s.playlists {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (s *StaticTrackSource) PlaylistTracks(_ context.Context, playlistID string) ([]domain.Track, error) {
	tracks, ok := s.tracks[playlistID]
	if !ok {
		return nil, domain.ErrPlaylistNotFound
	}
	out := make([]domain.Track, len(tracks))
	copy(out, tracks)
	return out, nil
}
