package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"song-trivia-service/internal/app"
	"song-trivia-service/internal/domain"
)

// APIHandler serves the REST surface around the websocket game sessions.
type APIHandler struct {
	service *app.RoomService
}

func NewAPIHandler(service *app.RoomService) *APIHandler {
	return &APIHandler{service: service}
}

type createRoomRequest struct {
	OwnerID string `json:"ownerId"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

type roomActionRequest struct {
	UserID string `json:"userId"`
}

type newGameRequest struct {
	UserID        string                `json:"userId"`
	PlaylistID    string                `json:"playlistId"`
	NumQuestions  int                   `json:"numQuestions"`
	QuestionTypes []domain.QuestionType `json:"questionTypes"`
}

func (h *APIHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	roomID := h.service.CreateRoom(req.OwnerID)
	writeJSON(w, http.StatusCreated, createRoomResponse{RoomID: roomID})
}

func (h *APIHandler) IsOwner(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	owner, err := h.service.IsOwner(roomID, r.URL.Query().Get("userId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, owner)
}

func (h *APIHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	var req newGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlaylistID == "" {
		writeError(w, http.StatusBadRequest, "playlistId is required")
		return
	}

	err := h.service.StartGame(r.Context(), roomID, req.UserID, domain.GameParams{
		PlaylistID:    req.PlaylistID,
		NumQuestions:  req.NumQuestions,
		QuestionTypes: req.QuestionTypes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, struct{}{})
}

func (h *APIHandler) Reset(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	var req roomActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.Reset(roomID, req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *APIHandler) Restart(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	var req roomActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.RestartGame(r.Context(), roomID, req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, struct{}{})
}

func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	playlists, err := h.service.SearchPlaylists(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrPlaylistNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrGameInProgress), errors.Is(err, domain.ErrGameNotEnded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotEnoughTracks):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrProvider):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("unclassified error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
