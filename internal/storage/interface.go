package storage

import (
	"context"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Lobby operations
	SaveLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context) (*model.Lobby, error)

	// Match snapshot operations
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	DeleteMatch(ctx context.Context, id model.MatchID) error
	ListMatchIDs(ctx context.Context) ([]model.MatchID, error)

	// Summary operations
	SaveSummary(ctx context.Context, summary *model.MatchSummary) error
	GetSummary(ctx context.Context, id model.MatchID) (*model.MatchSummary, error)
	ListSummaries(ctx context.Context) ([]*model.MatchSummary, error)
}
