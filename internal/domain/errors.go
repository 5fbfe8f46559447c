package domain

import "errors"

var (
	// ErrRoomNotFound is returned for operations on an unknown room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotOwner is returned when a non-owner attempts an owner-only operation.
	ErrNotOwner = errors.New("only the room owner may do that")
	// ErrGameInProgress rejects start_game while a game is being played.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrGameNotEnded rejects restart_game before the game has ended.
	ErrGameNotEnded = errors.New("game has not ended yet")
	// ErrNotEnoughTracks means the playlist cannot fill four distinct choices.
	ErrNotEnoughTracks = errors.New("playlist has too few distinct tracks")
	// ErrPlaylistNotFound indicates the provider does not know the playlist.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrProvider wraps catalog-provider fetch or parsing failures.
	ErrProvider = errors.New("catalog provider error")
)
