package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"song-trivia-service/internal/app"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil drains frames until one of the wanted type arrives. Extra frames
// are expected: every roster or phase change re-renders the room.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %q frame: %v", wantType, err)
		}
		if f.Type == wantType {
			return f.Payload
		}
	}
	t.Fatalf("no %q frame before the deadline", wantType)
	return nil
}

func wsURL(serverURL, roomID, userID, name string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") +
		"/rooms/" + roomID + "/ws?userId=" + userID + "&name=" + name
}

func dialRoom(t *testing.T, serverURL, roomID, userID, name string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(serverURL, roomID, userID, name), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServeWSRejectsBadRequests(t *testing.T) {
	server, service := newTestServer(t, app.DefaultTiming(), 10*time.Millisecond)
	roomID := service.CreateRoom("")

	resp, err := http.Get(server.URL + "/rooms/" + roomID + "/ws?name=Alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/rooms/missing/ws?userId=u1&name=Alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown room, got %d", resp.StatusCode)
	}
}

func TestServeWSFullGame(t *testing.T) {
	timing := app.Timing{AnswerTimeout: 2 * time.Second, GracePeriod: 100 * time.Millisecond}
	server, service := newTestServer(t, timing, 10*time.Millisecond)
	roomID := service.CreateRoom("owner-1")

	conn := dialRoom(t, server.URL, roomID, "owner-1", "Alice")
	payload := readUntil(t, conn, "Waiting")

	var waiting struct {
		Users []struct {
			Name string `json:"name"`
		} `json:"users"`
	}
	if err := json.Unmarshal(payload, &waiting); err != nil {
		t.Fatalf("decode waiting payload: %v", err)
	}
	if len(waiting.Users) != 1 || waiting.Users[0].Name != "Alice" {
		t.Fatalf("expected Alice in the lobby, got %+v", waiting.Users)
	}

	resp := doJSON(t, http.MethodPut, server.URL+"/rooms/"+roomID+"/new_game",
		map[string]any{"userId": "owner-1", "playlistId": "pl-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("new_game: expected 202, got %d", resp.StatusCode)
	}

	payload = readUntil(t, conn, "Playing")
	var playing struct {
		Question      map[string]json.RawMessage `json:"question"`
		QuestionIndex int                        `json:"questionIndex"`
		NumQuestions  int                        `json:"numQuestions"`
	}
	if err := json.Unmarshal(payload, &playing); err != nil {
		t.Fatalf("decode playing payload: %v", err)
	}
	if playing.QuestionIndex != 0 || playing.NumQuestions != 2 {
		t.Fatalf("expected question 1 of 2, got %+v", playing)
	}
	var choices []string
	if err := json.Unmarshal(playing.Question["choices"], &choices); err != nil || len(choices) != 4 {
		t.Fatalf("expected 4 choices, got %v %v", choices, err)
	}
	// The open question must never leak the answer or the media reference.
	for _, leak := range []string{"answerIndex", "AnswerIndex", "songUrl", "SongURL"} {
		if _, ok := playing.Question[leak]; ok {
			t.Fatalf("open question leaked %q", leak)
		}
	}

	if err := conn.WriteJSON(map[string]any{
		"type":    "Submit",
		"payload": map[string]any{"choice": 0, "offsetMs": 50},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Sole online user has answered: the question resolves immediately.
	payload = readUntil(t, conn, "QuestionResolved")
	var resolved struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(payload, &resolved); err != nil {
		t.Fatalf("decode resolved payload: %v", err)
	}
	if resolved.Answer == "" {
		t.Fatalf("resolved frame must reveal the answer")
	}

	// The connection's own poll tick advances past the grace period.
	payload = readUntil(t, conn, "Playing")
	if err := json.Unmarshal(payload, &playing); err != nil {
		t.Fatalf("decode second playing payload: %v", err)
	}
	if playing.QuestionIndex != 1 {
		t.Fatalf("expected advance to question 2, got index %d", playing.QuestionIndex)
	}

	if err := conn.WriteJSON(map[string]any{
		"type":    "Submit",
		"payload": map[string]any{"choice": 1, "offsetMs": 80},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	readUntil(t, conn, "QuestionResolved")
	readUntil(t, conn, "Ended")
}

func TestServeWSUnsupportedMessage(t *testing.T) {
	server, service := newTestServer(t, app.DefaultTiming(), 10*time.Millisecond)
	roomID := service.CreateRoom("")

	conn := dialRoom(t, server.URL, roomID, "u1", "Alice")
	readUntil(t, conn, "Waiting")

	if err := conn.WriteJSON(map[string]any{"type": "Dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, "Error")
}
