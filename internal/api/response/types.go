package response

import (
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
)

// Health is the health check body
type Health struct {
	Status      string `json:"status"`
	LiveMatches int    `json:"liveMatches"`
}

// MatchList lists the stored match snapshots
type MatchList struct {
	Matches []string `json:"matches"`
}

// MatchListFromIDs converts snapshot ids
func MatchListFromIDs(ids []model.MatchID) MatchList {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return MatchList{Matches: out}
}

// SummaryList lists finished matches, oldest first
type SummaryList struct {
	Summaries []protocol.SummaryView `json:"summaries"`
}

// SummaryListFromModels converts stored summaries
func SummaryListFromModels(summaries []*model.MatchSummary) SummaryList {
	out := make([]protocol.SummaryView, len(summaries))
	for i, s := range summaries {
		out[i] = protocol.NewSummaryView(s)
	}
	return SummaryList{Summaries: out}
}
