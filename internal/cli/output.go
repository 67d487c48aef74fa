package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mcoot/conquestgame-go/internal/api/response"
	"github.com/mcoot/conquestgame-go/internal/journal"
	"github.com/mcoot/conquestgame-go/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return newOutputTo(format, os.Stdout)
}

func newOutputTo(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		fmt.Fprintf(o.w, "Live matches: %d\n", v.LiveMatches)
	case protocol.LobbyView:
		o.printLobby(v)
	case response.MatchList:
		o.printMatchList(v)
	case protocol.StateView:
		o.printState(v)
	case response.SummaryList:
		if len(v.Summaries) == 0 {
			fmt.Fprintln(o.w, "No finished matches")
		}
		for _, s := range v.Summaries {
			o.printSummary(s)
		}
	case protocol.SummaryView:
		o.printSummary(v)
	case []journal.Entry:
		for _, e := range v {
			o.printJournalEntry(e)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printLobby(l protocol.LobbyView) {
	mode := "multiplayer"
	if l.Solo {
		mode = "solo"
		if l.Difficulty != "" {
			mode += " (" + l.Difficulty + ")"
		}
	}
	fmt.Fprintf(o.w, "Lobby: %s\n", mode)
	fmt.Fprintf(o.w, "Players (%d):\n", len(l.Players))
	for _, p := range l.Players {
		flags := []string{}
		if p.IsReady {
			flags = append(flags, "ready")
		}
		if p.IsAI {
			flags = append(flags, "ai")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  - %s (%s) %s%s\n", p.Name, p.ID, p.Faction, suffix)
	}
}

func (o *Output) printMatchList(l response.MatchList) {
	if len(l.Matches) == 0 {
		fmt.Fprintln(o.w, "No matches")
		return
	}
	for _, id := range l.Matches {
		fmt.Fprintln(o.w, id)
	}
}

func (o *Output) printState(s protocol.StateView) {
	status := "waiting"
	switch {
	case s.IsGameOver:
		status = "over"
	case s.IsGameStarted:
		status = "running"
	}
	fmt.Fprintf(o.w, "Match: %s (%s, v%d)\n", s.MatchID, status, s.Version)
	fmt.Fprintf(o.w, "Time remaining: %ds\n", s.TimeRemaining)
	if s.IsSoloMode {
		fmt.Fprintf(o.w, "Solo: %s\n", s.Difficulty)
	}

	labels := make(map[string]string, len(s.Players))
	fmt.Fprintln(o.w, "Players:")
	for i, p := range s.Players {
		label := fmt.Sprintf("%d", i+1)
		labels[p.ID] = label
		state := ""
		switch {
		case p.IsEliminated:
			state = " [eliminated]"
		case !p.Connected && !p.IsAI:
			state = " [disconnected]"
		}
		fmt.Fprintf(o.w, "  %s %s (%s) %s gold=%d units=%d tiles=%d%s\n",
			label, p.Name, p.ID, p.Faction, p.Gold, p.Units, len(p.Tiles), state)
	}

	if s.Winner != nil {
		fmt.Fprintf(o.w, "Winner: %s\n", *s.Winner)
	} else if s.IsGameOver {
		fmt.Fprintln(o.w, "Winner: tie")
	}

	fmt.Fprintln(o.w, renderGrid(s.Grid, labels))
}

// renderGrid draws owners by player number. Tiles with a structure show its initial.
func renderGrid(grid [][]protocol.TileView, labels map[string]string) string {
	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x, t := range row {
			if x > 0 {
				b.WriteByte(' ')
			}
			switch {
			case t.Structure != nil && t.Structure.Type != "":
				b.WriteString(t.Structure.Type[:1])
			case t.Owner != nil:
				label, ok := labels[*t.Owner]
				if !ok {
					label = "?"
				}
				b.WriteString(label)
			default:
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}

func (o *Output) printSummary(s protocol.SummaryView) {
	winner := "tie"
	if s.Winner != nil {
		winner = *s.Winner
		if name, ok := s.Names[winner]; ok {
			winner = name
		}
	}
	fmt.Fprintf(o.w, "%s ended %s, winner: %s\n", s.MatchID, s.EndedAt, winner)

	ids := make([]string, 0, len(s.TileCounts))
	for id := range s.TileCounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.TileCounts[ids[i]] != s.TileCounts[ids[j]] {
			return s.TileCounts[ids[i]] > s.TileCounts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		name := s.Names[id]
		if name == "" {
			name = id
		}
		fmt.Fprintf(o.w, "  %s: %d tiles\n", name, s.TileCounts[id])
	}
}

func (o *Output) printJournalEntry(e journal.Entry) {
	line := fmt.Sprintf("%s v%d t=%d %s", e.At.Format("15:04:05.000"), e.Version, e.TimeRemaining, e.Kind)
	if e.PlayerID != "" {
		line += " by " + string(e.PlayerID)
	}
	if e.Target != nil {
		line += fmt.Sprintf(" at (%d,%d)", e.Target.X, e.Target.Y)
	}
	if e.Structure != "" {
		line += " " + e.Structure
	}
	line += ": " + e.Outcome
	if e.Reason != "" {
		line += " (" + e.Reason + ")"
	}
	fmt.Fprintln(o.w, line)
}
