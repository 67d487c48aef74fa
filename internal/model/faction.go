package model

// Faction is a cosmetic player affiliation with a small economic twist
type Faction string

const (
	FactionHumans Faction = "Humans"
	FactionRobots Faction = "Robots"
	FactionAliens Faction = "Aliens"
)

// FallbackColor is used for factions without an accent colour
const FallbackColor = "#808080"

var factionColors = map[Faction]string{
	FactionHumans: "#4169E1",
	FactionRobots: "#B22222",
	FactionAliens: "#228B22",
}

// ValidFactions returns all playable factions
func ValidFactions() []Faction {
	return []Faction{FactionHumans, FactionRobots, FactionAliens}
}

// IsValid reports whether f is a playable faction
func (f Faction) IsValid() bool {
	_, ok := factionColors[f]
	return ok
}

// Color returns the faction's accent colour
func (f Faction) Color() string {
	if c, ok := factionColors[f]; ok {
		return c
	}
	return FallbackColor
}

// BaseGoldRate is the gold income every player starts with
const BaseGoldRate = 1

// BaseUnitRate returns the starting unit income. Aliens breed from the start.
func (f Faction) BaseUnitRate() int {
	if f == FactionAliens {
		return 1
	}
	return 0
}

// StructureType is the functional kind of a structure
type StructureType string

const (
	StructureNone     StructureType = ""
	StructureEconomy  StructureType = "Economy"
	StructureMilitary StructureType = "Military"
	StructureDefense  StructureType = "Defense"
)

// ValidStructureTypes returns the buildable structure kinds
func ValidStructureTypes() []StructureType {
	return []StructureType{StructureEconomy, StructureMilitary, StructureDefense}
}

// IsValid reports whether s is a buildable structure kind
func (s StructureType) IsValid() bool {
	switch s {
	case StructureEconomy, StructureMilitary, StructureDefense:
		return true
	}
	return false
}

// Structure is the faction-specific presentation of a structure type
type Structure struct {
	Type   StructureType
	Name   string
	Symbol string
}

var structureNames = map[Faction]map[StructureType]string{
	FactionHumans: {StructureEconomy: "Farm", StructureMilitary: "Barracks", StructureDefense: "Fort"},
	FactionRobots: {StructureEconomy: "Network", StructureMilitary: "Factory", StructureDefense: "Autoturret"},
	FactionAliens: {StructureEconomy: "Hive", StructureMilitary: "Nest", StructureDefense: "Biowall"},
}

var structureSymbols = map[StructureType]string{
	StructureEconomy:  "G",
	StructureMilitary: "U",
	StructureDefense:  "D",
}

// StructureFor returns the named structure a faction builds for the given type
func StructureFor(f Faction, t StructureType) Structure {
	name := string(t)
	if names, ok := structureNames[f]; ok {
		if n, ok := names[t]; ok {
			name = n
		}
	}
	return Structure{Type: t, Name: name, Symbol: structureSymbols[t]}
}
