package protocol

import (
	"time"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// PositionView is a tile coordinate
type PositionView struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// StructureView is a structure as seen by clients
type StructureView struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// TileView is one grid cell
type TileView struct {
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Owner     *string        `json:"owner"`
	Structure *StructureView `json:"structure"`
	GoldValue int            `json:"goldValue"`
	UnitValue int            `json:"unitValue"`
}

// PlayerView is a match participant as seen by clients
type PlayerView struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Faction      string         `json:"faction"`
	Color        string         `json:"color"`
	Gold         int            `json:"gold"`
	Units        int            `json:"units"`
	GoldRate     int            `json:"goldRate"`
	UnitRate     int            `json:"unitRate"`
	Tiles        []PositionView `json:"tiles"`
	IsReady      bool           `json:"isReady"`
	IsEliminated bool           `json:"isEliminated"`
	IsAI         bool           `json:"isAI"`
	Connected    bool           `json:"connected"`
}

// StateView is a full match snapshot
type StateView struct {
	MatchID       string       `json:"matchId"`
	Version       uint64       `json:"version"`
	Players       []PlayerView `json:"players"`
	Grid          [][]TileView `json:"grid"`
	TimeRemaining int          `json:"timeRemaining"`
	IsGameStarted bool         `json:"isGameStarted"`
	IsGameOver    bool         `json:"isGameOver"`
	Winner        *string      `json:"winner"`
	Difficulty    string       `json:"difficulty,omitempty"`
	IsSoloMode    bool         `json:"isSoloMode"`
}

// LobbyPlayerView is a waiting player
type LobbyPlayerView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Faction string `json:"faction"`
	Color   string `json:"color"`
	IsReady bool   `json:"isReady"`
	IsAI    bool   `json:"isAI"`
}

// LobbyView is the whole lobby
type LobbyView struct {
	Players    []LobbyPlayerView `json:"players"`
	Solo       bool              `json:"solo"`
	Difficulty string            `json:"difficulty,omitempty"`
}

// ActionView echoes an applied action
type ActionView struct {
	Kind      string  `json:"kind"`
	PlayerID  *string `json:"playerId"`
	X         *int    `json:"x,omitempty"`
	Y         *int    `json:"y,omitempty"`
	Structure string  `json:"structure,omitempty"`
}

// SummaryView is a finished match record
type SummaryView struct {
	MatchID    string            `json:"matchId"`
	TileCounts map[string]int    `json:"tileCounts"`
	Names      map[string]string `json:"names"`
	Winner     *string           `json:"winner"`
	EndedAt    string            `json:"endedAt"`
}

func optionalID[T ~string](id T) *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}

// NewStateView renders a match snapshot
func NewStateView(m *model.Match) StateView {
	factions := make(map[model.PlayerID]model.Faction, len(m.Players))
	for _, p := range m.Players {
		factions[p.ID] = p.Faction
	}

	grid := make([][]TileView, m.Grid.Size)
	for y := 0; y < m.Grid.Size; y++ {
		row := make([]TileView, m.Grid.Size)
		for x := 0; x < m.Grid.Size; x++ {
			t := m.Grid.At(model.Position{X: x, Y: y})
			view := TileView{
				X:         x,
				Y:         y,
				Owner:     optionalID(t.Owner),
				GoldValue: t.GoldValue,
				UnitValue: t.UnitValue,
			}
			if t.HasStructure() {
				st := model.StructureFor(factions[t.Owner], t.Structure)
				view.Structure = &StructureView{Type: string(st.Type), Name: st.Name, Symbol: st.Symbol}
			}
			row[x] = view
		}
		grid[y] = row
	}

	return StateView{
		MatchID:       string(m.ID),
		Version:       m.Version,
		Players:       NewPlayerViews(m.Players),
		Grid:          grid,
		TimeRemaining: m.TimeRemaining,
		IsGameStarted: m.IsGameStarted,
		IsGameOver:    m.IsGameOver,
		Winner:        optionalID(m.Winner),
		Difficulty:    string(m.Difficulty),
		IsSoloMode:    m.HasAI,
	}
}

// NewPlayerViews renders match players in join order
func NewPlayerViews(players []model.Player) []PlayerView {
	views := make([]PlayerView, len(players))
	for i, p := range players {
		tiles := make([]PositionView, len(p.Tiles))
		for j, t := range p.Tiles {
			tiles[j] = PositionView{X: t.X, Y: t.Y}
		}
		views[i] = PlayerView{
			ID:           string(p.ID),
			Name:         p.Name,
			Faction:      string(p.Faction),
			Color:        p.Color,
			Gold:         p.Gold,
			Units:        p.Units,
			GoldRate:     p.GoldRate,
			UnitRate:     p.UnitRate,
			Tiles:        tiles,
			IsReady:      p.IsReady,
			IsEliminated: p.IsEliminated,
			IsAI:         p.IsAI,
			Connected:    p.IsAI || p.Connection.Connected,
		}
	}
	return views
}

// NewLobbyView renders the lobby
func NewLobbyView(l *model.Lobby) LobbyView {
	players := make([]LobbyPlayerView, len(l.Players))
	for i, p := range l.Players {
		players[i] = NewLobbyPlayerView(p)
	}
	view := LobbyView{Players: players, Solo: l.Solo}
	if l.Solo {
		view.Difficulty = string(l.Difficulty)
	}
	return view
}

// NewLobbyPlayerView renders a single waiting player
func NewLobbyPlayerView(p model.LobbyPlayer) LobbyPlayerView {
	return LobbyPlayerView{
		ID:      string(p.ID),
		Name:    p.Name,
		Faction: string(p.Faction),
		Color:   p.Color,
		IsReady: p.IsReady,
		IsAI:    p.IsAI,
	}
}

// NewActionView renders an applied action
func NewActionView(a model.Action) ActionView {
	view := ActionView{
		Kind:      string(a.Kind),
		PlayerID:  optionalID(a.PlayerID),
		Structure: string(a.Structure),
	}
	if a.Targeted() {
		x, y := a.Target.X, a.Target.Y
		view.X = &x
		view.Y = &y
	}
	return view
}

// NewSummaryView renders a finished match record
func NewSummaryView(s *model.MatchSummary) SummaryView {
	counts := make(map[string]int, len(s.TileCounts))
	for id, n := range s.TileCounts {
		counts[string(id)] = n
	}
	names := make(map[string]string, len(s.Names))
	for id, name := range s.Names {
		names[string(id)] = name
	}
	return SummaryView{
		MatchID:    string(s.ID),
		TileCounts: counts,
		Names:      names,
		Winner:     optionalID(s.Winner),
		EndedAt:    s.EndedAt.UTC().Format(time.RFC3339),
	}
}
