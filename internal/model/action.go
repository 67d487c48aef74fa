package model

// ActionKind tags the variant of an Action
type ActionKind string

const (
	// Player-issuable
	ActionAnnex    ActionKind = "Annex"
	ActionBuild    ActionKind = "Build"
	ActionDemolish ActionKind = "Demolish"
	ActionOccupy   ActionKind = "Occupy"
	ActionTick     ActionKind = "Tick"

	// Server-issued
	ActionStart  ActionKind = "Start"
	ActionAccrue ActionKind = "Accrue"
)

// PlayerActionKinds returns the kinds a client may submit
func PlayerActionKinds() []ActionKind {
	return []ActionKind{ActionAnnex, ActionBuild, ActionDemolish, ActionOccupy, ActionTick}
}

// PlayerIssuable reports whether a client may submit this kind
func (k ActionKind) PlayerIssuable() bool {
	for _, v := range PlayerActionKinds() {
		if v == k {
			return true
		}
	}
	return false
}

// Action is a request to transition a match
type Action struct {
	Kind      ActionKind
	PlayerID  PlayerID      // Issuer; empty for server-issued actions
	Target    Position      // Annex, Build, Demolish, Occupy
	Structure StructureType // Build
}

// Targeted returns true if the action kind addresses a tile
func (a Action) Targeted() bool {
	switch a.Kind {
	case ActionAnnex, ActionBuild, ActionDemolish, ActionOccupy:
		return true
	}
	return false
}
