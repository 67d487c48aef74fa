package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrUnknownFaction = errors.New("unknown faction")

	// Lobby errors
	ErrLobbyNotFound       = errors.New("lobby not found")
	ErrLobbyFull           = errors.New("lobby is full")
	ErrAlreadyInLobby      = errors.New("player is already in lobby")
	ErrNotInLobby          = errors.New("player is not in lobby")
	ErrInsufficientPlayers = errors.New("at least two players are required to start")
	ErrNotAllReady         = errors.New("all players must be ready")
	ErrSoloModeDisabled    = errors.New("solo mode is not enabled")
	ErrUnknownDifficulty   = errors.New("unknown difficulty")

	// Match errors
	ErrMatchNotFound   = errors.New("match not found")
	ErrSummaryNotFound = errors.New("match summary not found")
	ErrMatchNotStarted = errors.New("match has not started")
	ErrAlreadyStarted  = errors.New("match has already started")
	ErrMatchOver       = errors.New("match is over")
	ErrMatchStopped    = errors.New("match is no longer running")
	ErrNotInMatch      = errors.New("player not found in match")

	// Action rejections
	ErrOutOfBounds       = errors.New("coordinates out of range")
	ErrTileOwned         = errors.New("tile is already owned")
	ErrTileUnowned       = errors.New("tile is not owned by anyone")
	ErrOwnTile           = errors.New("cannot occupy your own tile")
	ErrNotAdjacent       = errors.New("tile is not adjacent to your territory")
	ErrNotTileOwner      = errors.New("you do not own this tile")
	ErrStructurePresent  = errors.New("tile already has a structure")
	ErrNoStructure       = errors.New("tile has no structure")
	ErrUnknownStructure  = errors.New("unknown structure type")
	ErrInsufficientGold  = errors.New("not enough gold")
	ErrInsufficientUnits = errors.New("not enough units")

	// Session errors
	ErrSessionNotBound = errors.New("session is not bound to a player")
)
