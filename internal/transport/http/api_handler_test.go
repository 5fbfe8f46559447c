package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"song-trivia-service/internal/app"
	"song-trivia-service/internal/domain"
	"song-trivia-service/internal/infra/memory"
)

func testCatalog() ([]domain.Playlist, map[string][]domain.Track) {
	playlists := []domain.Playlist{{ID: "pl-1", Name: "Test Hits", Owner: "tester"}}
	tracks := make([]domain.Track, 0, 12)
	for i := 0; i < 12; i++ {
		tracks = append(tracks, domain.Track{
			ID:         fmt.Sprintf("track-%02d", i),
			Name:       fmt.Sprintf("Song %02d", i),
			Artist:     fmt.Sprintf("Artist %02d", i),
			Album:      fmt.Sprintf("Album %02d", i),
			PreviewURL: fmt.Sprintf("https://example.com/preview/%02d", i),
			Popularity: 100 - i,
		})
	}
	return playlists, map[string][]domain.Track{"pl-1": tracks}
}

func newTestServer(t *testing.T, timing app.Timing, poll time.Duration) (*httptest.Server, *app.RoomService) {
	t.Helper()
	playlists, tracks := testCatalog()
	service := app.NewRoomService(
		memory.NewRoomStore(),
		memory.NewStaticTrackSource(playlists, tracks),
		timing,
		2,
	)
	router := NewRouter(service, NewWSHandler(service, poll))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, service
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateRoomEndpoint(t *testing.T) {
	server, _ := newTestServer(t, app.DefaultTiming(), 100*time.Millisecond)

	resp := doJSON(t, http.MethodPost, server.URL+"/rooms", map[string]string{"ownerId": "owner-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		RoomID string `json:"roomId"`
	}
	decodeInto(t, resp, &created)
	if created.RoomID == "" {
		t.Fatalf("expected a room id")
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/rooms/"+created.RoomID+"/is_owner?userId=owner-1", nil)
	var owner bool
	decodeInto(t, resp, &owner)
	if !owner {
		t.Fatalf("expected owner-1 to own the created room")
	}
}

func TestNewGameEndpoint(t *testing.T) {
	server, service := newTestServer(t, app.DefaultTiming(), 100*time.Millisecond)
	roomID := service.CreateRoom("owner-1")
	room, _ := service.Room(roomID)
	room.Join("owner-1", "Alice")

	// missing playlist id
	resp := doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/new_game", map[string]any{"userId": "owner-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without playlistId, got %d", resp.StatusCode)
	}

	// non-owner
	resp = doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/new_game", map[string]any{"userId": "impostor", "playlistId": "pl-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-owner, got %d", resp.StatusCode)
	}

	// happy path
	resp = doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/new_game", map[string]any{"userId": "owner-1", "playlistId": "pl-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	// already running
	resp = doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/new_game", map[string]any{"userId": "owner-1", "playlistId": "pl-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while a game is running, got %d", resp.StatusCode)
	}

	// unknown room
	resp = doJSON(t, http.MethodPut, server.URL+"/rooms/missing/new_game", map[string]any{"userId": "owner-1", "playlistId": "pl-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown room, got %d", resp.StatusCode)
	}

	// unknown playlist
	resp = doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/reset", map[string]any{"userId": "owner-1"})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/new_game", map[string]any{"userId": "owner-1", "playlistId": "missing"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown playlist, got %d", resp.StatusCode)
	}
}

func TestRestartEndpointRequiresEndedGame(t *testing.T) {
	server, service := newTestServer(t, app.DefaultTiming(), 100*time.Millisecond)
	roomID := service.CreateRoom("owner-1")

	resp := doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/restart", map[string]any{"userId": "owner-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 restarting from the lobby, got %d", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	server, _ := newTestServer(t, app.DefaultTiming(), 100*time.Millisecond)

	resp, err := http.Get(server.URL + "/search?query=hits")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var playlists []domain.Playlist
	decodeInto(t, resp, &playlists)
	if len(playlists) != 1 || playlists[0].ID != "pl-1" {
		t.Fatalf("unexpected search result %+v", playlists)
	}

	resp, err = http.Get(server.URL + "/search")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without a query, got %d", resp.StatusCode)
	}
}
