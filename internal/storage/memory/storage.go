package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	lobby     *model.Lobby
	matches   map[model.MatchID]*model.Match
	summaries map[model.MatchID]*model.MatchSummary
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		matches:   make(map[model.MatchID]*model.Match),
		summaries: make(map[model.MatchID]*model.MatchSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Lobby operations

func (s *Storage) SaveLobby(ctx context.Context, lobby *model.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobby = lobby.Clone()
	return nil
}

func (s *Storage) GetLobby(ctx context.Context) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lobby == nil {
		return nil, model.ErrLobbyNotFound
	}
	return s.lobby.Clone(), nil
}

// Match snapshot operations.
// Snapshots are immutable once committed, so they are stored by reference.

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = match
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}

func (s *Storage) ListMatchIDs(ctx context.Context) ([]model.MatchID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.MatchID, 0, len(s.matches))
	for id := range s.matches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Summary operations

func (s *Storage) SaveSummary(ctx context.Context, summary *model.MatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.ID] = summary
	return nil
}

func (s *Storage) GetSummary(ctx context.Context, id model.MatchID) (*model.MatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[id]
	if !ok {
		return nil, model.ErrSummaryNotFound
	}
	return summary, nil
}

// ListSummaries returns summaries ordered by end time, oldest first
func (s *Storage) ListSummaries(ctx context.Context) ([]*model.MatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.MatchSummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		result = append(result, summary)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EndedAt.Before(result[j].EndedAt)
	})
	return result, nil
}
