package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"song-trivia-service/internal/app"
)

// NewRouter wires the REST and websocket endpoints.
func NewRouter(service *app.RoomService, ws *WSHandler) http.Handler {
	api := NewAPIHandler(service)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/rooms", api.CreateRoom)
	r.Route("/rooms/{roomID}", func(r chi.Router) {
		r.Get("/ws", ws.ServeWS)
		r.Get("/is_owner", api.IsOwner)
		r.Put("/new_game", api.NewGame)
		r.Put("/reset", api.Reset)
		r.Put("/restart", api.Restart)
	})
	r.Get("/search", api.Search)

	return r
}
