package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/dependencies/ids"
	"github.com/mcoot/conquestgame-go/internal/events"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/services/ai"
	"github.com/mcoot/conquestgame-go/internal/services/match"
	"github.com/mcoot/conquestgame-go/internal/storage"
)

// aiIDLength is how much of a generated ID is kept after the AI prefix
const aiIDLength = 8

// MatchCreator starts matches from a lobby roster
type MatchCreator interface {
	Create(ctx context.Context, roster []model.LobbyPlayer, difficulty model.Difficulty) (*match.Runner, error)
}

// Controller manages the single shared lobby. Every mutation is persisted and
// followed by a lobby_snapshot to everyone waiting.
type Controller struct {
	mu sync.Mutex

	storage   storage.Storage
	matches   MatchCreator
	publisher events.Publisher
	ids       ids.Generator
	clock     clock.Clock
	rules     model.Rules
	logger    *slog.Logger
}

// NewController creates a new lobby Controller
func NewController(
	storage storage.Storage,
	matches MatchCreator,
	publisher events.Publisher,
	idGen ids.Generator,
	clock clock.Clock,
	rules model.Rules,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:   storage,
		matches:   matches,
		publisher: publisher,
		ids:       idGen,
		clock:     clock,
		rules:     rules,
		logger:    logger.With(slog.String("component", "lobby-controller")),
	}
}

// Snapshot returns a copy of the current lobby
func (c *Controller) Snapshot(ctx context.Context) (*model.Lobby, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Join adds a human player to the lobby
func (c *Controller) Join(ctx context.Context, name string, faction model.Faction) (model.LobbyPlayer, error) {
	if !faction.IsValid() {
		return model.LobbyPlayer{}, model.ErrUnknownFaction
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.load(ctx)
	if err != nil {
		return model.LobbyPlayer{}, err
	}
	if len(lobby.Players) >= c.rules.MaxPlayers {
		return model.LobbyPlayer{}, model.ErrLobbyFull
	}

	player := model.LobbyPlayer{
		ID:       model.PlayerID(c.ids.NewID()),
		Name:     strings.TrimSpace(name),
		Faction:  faction,
		Color:    faction.Color(),
		JoinedAt: c.clock.Now(),
	}
	lobby.Players = append(lobby.Players, player)

	if err := c.save(ctx, lobby); err != nil {
		return model.LobbyPlayer{}, err
	}
	c.logger.Info("player joined lobby",
		slog.String("player_id", string(player.ID)),
		slog.String("faction", string(faction)),
		slog.Int("player_count", len(lobby.Players)))
	return player, nil
}

// Leave removes a player from the lobby. When the last human leaves, any AI
// players and the solo setting go with them.
func (c *Controller) Leave(ctx context.Context, playerID model.PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.load(ctx)
	if err != nil {
		return err
	}
	if !lobby.RemovePlayer(playerID) {
		return model.ErrNotInLobby
	}
	if humanCount(lobby) == 0 {
		lobby.Players = nil
		lobby.Solo = false
		lobby.Difficulty = ""
	}

	c.logger.Info("player left lobby", slog.String("player_id", string(playerID)))
	return c.save(ctx, lobby)
}

// ToggleReady flips a player's ready flag
func (c *Controller) ToggleReady(ctx context.Context, playerID model.PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.load(ctx)
	if err != nil {
		return err
	}
	p := lobby.GetPlayer(playerID)
	if p == nil {
		return model.ErrNotInLobby
	}
	p.IsReady = !p.IsReady

	return c.save(ctx, lobby)
}

// SetSoloMode turns AI opponents on or off. Disabling removes every AI player.
func (c *Controller) SetSoloMode(ctx context.Context, playerID model.PlayerID, enabled bool, difficulty model.Difficulty) error {
	if difficulty == "" {
		difficulty = model.DefaultDifficulty
	}
	if enabled && !difficulty.IsValid() {
		return model.ErrUnknownDifficulty
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.load(ctx)
	if err != nil {
		return err
	}
	if lobby.GetPlayer(playerID) == nil {
		return model.ErrNotInLobby
	}

	lobby.Solo = enabled
	if enabled {
		lobby.Difficulty = difficulty
	} else {
		lobby.Difficulty = ""
		humans := lobby.Players[:0]
		for _, p := range lobby.Players {
			if !p.IsAI {
				humans = append(humans, p)
			}
		}
		lobby.Players = humans
	}

	c.logger.Info("solo mode changed",
		slog.Bool("enabled", enabled),
		slog.String("difficulty", string(lobby.Difficulty)))
	return c.save(ctx, lobby)
}

// AddAIPlayer adds an always-ready AI opponent. Solo mode must be on.
func (c *Controller) AddAIPlayer(ctx context.Context, playerID model.PlayerID, faction model.Faction) (model.LobbyPlayer, error) {
	if !faction.IsValid() {
		return model.LobbyPlayer{}, model.ErrUnknownFaction
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.load(ctx)
	if err != nil {
		return model.LobbyPlayer{}, err
	}
	if lobby.GetPlayer(playerID) == nil {
		return model.LobbyPlayer{}, model.ErrNotInLobby
	}
	if !lobby.Solo {
		return model.LobbyPlayer{}, model.ErrSoloModeDisabled
	}
	if len(lobby.Players) >= c.rules.MaxPlayers {
		return model.LobbyPlayer{}, model.ErrLobbyFull
	}

	id := strings.ReplaceAll(c.ids.NewID(), "-", "")
	if len(id) > aiIDLength {
		id = id[:aiIDLength]
	}
	player := model.LobbyPlayer{
		ID:       model.PlayerID(ai.PlayerIDPrefix + id),
		Name:     fmt.Sprintf("AI %s", faction),
		Faction:  faction,
		Color:    faction.Color(),
		IsReady:  true,
		IsAI:     true,
		JoinedAt: c.clock.Now(),
	}
	lobby.Players = append(lobby.Players, player)

	if err := c.save(ctx, lobby); err != nil {
		return model.LobbyPlayer{}, err
	}
	c.logger.Info("ai player added",
		slog.String("player_id", string(player.ID)),
		slog.String("faction", string(faction)))
	return player, nil
}

// StartMatch turns the lobby into a match and empties the lobby.
// The returned runner has not been started.
func (c *Controller) StartMatch(ctx context.Context, playerID model.PlayerID) (*match.Runner, []model.LobbyPlayer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, err := c.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if lobby.GetPlayer(playerID) == nil {
		return nil, nil, model.ErrNotInLobby
	}
	if len(lobby.Players) < 2 {
		return nil, nil, model.ErrInsufficientPlayers
	}
	if !lobby.AllReady() {
		return nil, nil, model.ErrNotAllReady
	}

	difficulty := model.DefaultDifficulty
	if lobby.Solo && lobby.Difficulty != "" {
		difficulty = lobby.Difficulty
	}
	roster := lobby.Clone().Players
	runner, err := c.matches.Create(ctx, roster, difficulty)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create match: %w", err)
	}

	c.logger.Info("match started from lobby",
		slog.String("match_id", string(runner.ID())),
		slog.String("requested_by", string(playerID)),
		slog.Int("player_count", len(roster)))

	if err := c.save(ctx, &model.Lobby{}); err != nil {
		return nil, nil, err
	}
	return runner, roster, nil
}

// load returns the stored lobby, or an empty one if none has been saved yet
func (c *Controller) load(ctx context.Context) (*model.Lobby, error) {
	lobby, err := c.storage.GetLobby(ctx)
	if errors.Is(err, model.ErrLobbyNotFound) {
		return &model.Lobby{}, nil
	}
	if err != nil {
		return nil, err
	}
	return lobby, nil
}

func (c *Controller) save(ctx context.Context, lobby *model.Lobby) error {
	lobby.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return err
	}
	c.publisher.Publish(ctx, model.Event{
		Type:      model.EventLobbySnapshot,
		Timestamp: lobby.UpdatedAt,
		Room:      model.LobbyRoom,
		Audience:  model.AudienceRoom,
		Payload:   model.LobbySnapshotPayload{Lobby: *lobby.Clone()},
	})
	return nil
}

func humanCount(l *model.Lobby) int {
	n := 0
	for _, p := range l.Players {
		if !p.IsAI {
			n++
		}
	}
	return n
}
