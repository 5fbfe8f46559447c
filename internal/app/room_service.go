package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"song-trivia-service/internal/domain"
	"song-trivia-service/internal/game"
)

// RoomRepository abstracts how live room handles are tracked (in-memory,
// Redis-marked, etc).
type RoomRepository interface {
	Create(room *Room)
	Get(roomID string) (*Room, bool)
}

// TrackSource resolves playlists via the external catalog provider.
type TrackSource interface {
	SearchPlaylists(ctx context.Context, query string) ([]domain.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]domain.Track, error)
}

// RoomService contains the room use cases exposed to the transport layer.
type RoomService struct {
	rooms            RoomRepository
	tracks           TrackSource
	timing           Timing
	defaultQuestions int
	newID            func() string
	newRand          func() *rand.Rand
}

// NewRoomService wires the service with production defaults (15 questions
// per game unless the request says otherwise).
func NewRoomService(rooms RoomRepository, tracks TrackSource, timing Timing, defaultQuestions int) *RoomService {
	if defaultQuestions <= 0 {
		defaultQuestions = 15
	}
	return &RoomService{
		rooms:            rooms,
		tracks:           tracks,
		timing:           timing,
		defaultQuestions: defaultQuestions,
		newID:            uuid.NewString,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// CreateRoom registers a new empty room and returns its identifier. An empty
// ownerID creates an ownerless room anyone may control.
func (s *RoomService) CreateRoom(ownerID string) string {
	room := newRoom(s.newID(), ownerID, s.timing)
	s.rooms.Create(room)
	return room.ID()
}

// Room returns the live handle for a room.
func (s *RoomService) Room(roomID string) (*Room, error) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// IsOwner reports whether userID owns the room.
func (s *RoomService) IsOwner(roomID, userID string) (bool, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return false, err
	}
	return room.OwnerID() == userID, nil
}

// StartGame fetches the playlist, generates the question sequence and starts
// the game. Provider or generation failures abort before any state mutation,
// leaving the room exactly as it was.
func (s *RoomService) StartGame(ctx context.Context, roomID, userID string, params domain.GameParams) error {
	room, err := s.Room(roomID)
	if err != nil {
		return err
	}
	if err := s.checkOwner(room, userID); err != nil {
		return err
	}
	if !room.Startable() {
		return domain.ErrGameInProgress
	}

	params = s.normalizeParams(params)
	questions, err := s.generate(ctx, params)
	if err != nil {
		return err
	}
	return room.StartGame(params, questions)
}

// RestartGame replays the previous game's parameters. Legal only once the
// game has ended.
func (s *RoomService) RestartGame(ctx context.Context, roomID, userID string) error {
	room, err := s.Room(roomID)
	if err != nil {
		return err
	}
	if err := s.checkOwner(room, userID); err != nil {
		return err
	}
	params, err := room.EndedParams()
	if err != nil {
		return err
	}

	questions, err := s.generate(ctx, params)
	if err != nil {
		return err
	}
	return room.StartGame(params, questions)
}

// Reset returns the room to the lobby, dropping offline users and zeroing
// scores.
func (s *RoomService) Reset(roomID, userID string) error {
	room, err := s.Room(roomID)
	if err != nil {
		return err
	}
	if err := s.checkOwner(room, userID); err != nil {
		return err
	}
	room.Reset()
	return nil
}

// Submit is fire-and-forget: it is silently ignored outside an open question
// or for unknown rooms.
func (s *RoomService) Submit(roomID, userID string, choice int, offsetMs int64) {
	room, err := s.Room(roomID)
	if err != nil {
		return
	}
	room.Submit(userID, choice, offsetMs)
}

// SearchPlaylists is a pass-through to the catalog provider.
func (s *RoomService) SearchPlaylists(ctx context.Context, query string) ([]domain.Playlist, error) {
	playlists, err := s.tracks.SearchPlaylists(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", domain.ErrProvider, query, err)
	}
	return playlists, nil
}

func (s *RoomService) checkOwner(room *Room, userID string) error {
	if room.OwnerID() != "" && room.OwnerID() != userID {
		return domain.ErrNotOwner
	}
	return nil
}

func (s *RoomService) normalizeParams(params domain.GameParams) domain.GameParams {
	if params.NumQuestions <= 0 {
		params.NumQuestions = s.defaultQuestions
	}
	types := params.QuestionTypes[:0:0]
	for _, t := range params.QuestionTypes {
		if t.Valid() {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = domain.AllQuestionTypes()
	}
	params.QuestionTypes = types
	return params
}

func (s *RoomService) generate(ctx context.Context, params domain.GameParams) ([]domain.Question, error) {
	tracks, err := s.tracks.PlaylistTracks(ctx, params.PlaylistID)
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetch playlist %s: %v", domain.ErrProvider, params.PlaylistID, err)
	}
	return game.GenerateQuestions(tracks, params.NumQuestions, params.QuestionTypes, s.newRand())
}

// isDomainErr keeps already-classified errors out of the provider wrapper.
func isDomainErr(err error) bool {
	return errors.Is(err, domain.ErrPlaylistNotFound) || errors.Is(err, domain.ErrNotEnoughTracks)
}
