package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"song-trivia-service/internal/domain"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	trackPageSize = 100
	maxTrackPages = 10
)

// Config holds the client-credentials settings for the Spotify Web API.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Client implements app.TrackSource against the Spotify Web API using the
// client-credentials flow. Tokens are cached until shortly before expiry.
type Client struct {
	httpClient *http.Client
	cfg        Config

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cfg:        cfg,
	}
}

// SearchPlaylists returns playlists matching the query.
func (c *Client) SearchPlaylists(ctx context.Context, query string) ([]domain.Playlist, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "playlist")
	q.Set("limit", "20")

	var payload struct {
		Playlists struct {
			Items []struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Owner struct {
					DisplayName string `json:"display_name"`
				} `json:"owner"`
			} `json:"items"`
		} `json:"playlists"`
	}
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/search?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	playlists := make([]domain.Playlist, 0, len(payload.Playlists.Items))
	for _, item := range payload.Playlists.Items {
		if item.ID == "" {
			continue
		}
		playlists = append(playlists, domain.Playlist{
			ID:    item.ID,
			Name:  item.Name,
			Owner: item.Owner.DisplayName,
		})
	}
	return playlists, nil
}

// PlaylistTracks fetches every track of a playlist, following pagination.
// Episodes and local files come back without a track id and are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]domain.Track, error) {
	var tracks []domain.Track

	for page := 0; page < maxTrackPages; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(trackPageSize))
		q.Set("offset", strconv.Itoa(page*trackPageSize))

		var payload struct {
			Items []struct {
				Track struct {
					ID         string `json:"id"`
					Name       string `json:"name"`
					PreviewURL string `json:"preview_url"`
					Popularity int    `json:"popularity"`
					Album      struct {
						Name string `json:"name"`
					} `json:"album"`
					Artists []struct {
						Name string `json:"name"`
					} `json:"artists"`
				} `json:"track"`
			} `json:"items"`
			Next string `json:"next"`
		}
		endpoint := fmt.Sprintf("%s/playlists/%s/tracks?%s", c.cfg.BaseURL, url.PathEscape(playlistID), q.Encode())
		if err := c.getJSON(ctx, endpoint, &payload); err != nil {
			return nil, err
		}

		for _, item := range payload.Items {
			t := item.Track
			if t.ID == "" {
				continue
			}
			names := make([]string, 0, len(t.Artists))
			for _, a := range t.Artists {
				names = append(names, a.Name)
			}
			tracks = append(tracks, domain.Track{
				ID:         t.ID,
				Name:       t.Name,
				Artist:     strings.Join(names, ", "),
				Album:      t.Album.Name,
				PreviewURL: t.PreviewURL,
				Popularity: t.Popularity,
			})
		}

		if payload.Next == "" || len(payload.Items) < trackPageSize {
			break
		}
	}

	return tracks, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrPlaylistNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("spotify: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// accessToken returns a cached token or requests a fresh one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token: %s", resp.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("spotify token: %w", err)
	}

	c.token = payload.AccessToken
	// renew a little early so in-flight requests don't race expiry
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - 30*time.Second)
	return c.token, nil
}
