package model

// Position identifies a tile on the grid
type Position struct {
	X int // 0-indexed from left
	Y int // 0-indexed from top
}

// Tile is a single grid cell
type Tile struct {
	Position
	Owner     PlayerID // Empty when unowned
	Structure StructureType
	GoldValue int
	UnitValue int
}

// IsOwned returns true if a player holds the tile
func (t *Tile) IsOwned() bool {
	return t.Owner != ""
}

// HasStructure returns true if the tile carries a structure
func (t *Tile) HasStructure() bool {
	return t.Structure != StructureNone
}

// Grid is the square board, stored row-major
type Grid struct {
	Size  int
	Tiles []Tile
}

// NewGrid creates a grid of neutral tiles
func NewGrid(size, neutralGold int) Grid {
	tiles := make([]Tile, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			tiles[y*size+x] = Tile{
				Position:  Position{X: x, Y: y},
				GoldValue: neutralGold,
			}
		}
	}
	return Grid{Size: size, Tiles: tiles}
}

// InBounds returns true if the position is on the grid
func (g *Grid) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < g.Size && pos.Y >= 0 && pos.Y < g.Size
}

// At returns the tile at pos, or nil if out of bounds
func (g *Grid) At(pos Position) *Tile {
	if !g.InBounds(pos) {
		return nil
	}
	return &g.Tiles[pos.Y*g.Size+pos.X]
}

// Neighbors returns the in-bounds 4-neighbours of pos: left, right, up, down
func (g *Grid) Neighbors(pos Position) []Position {
	candidates := [4]Position{
		{X: pos.X - 1, Y: pos.Y},
		{X: pos.X + 1, Y: pos.Y},
		{X: pos.X, Y: pos.Y - 1},
		{X: pos.X, Y: pos.Y + 1},
	}
	result := make([]Position, 0, 4)
	for _, c := range candidates {
		if g.InBounds(c) {
			result = append(result, c)
		}
	}
	return result
}

// IsAdjacentTo returns true if pos shares an edge with a tile owned by owner
func (g *Grid) IsAdjacentTo(pos Position, owner PlayerID) bool {
	for _, n := range g.Neighbors(pos) {
		if g.At(n).Owner == owner {
			return true
		}
	}
	return false
}

// OwnedCount returns the number of tiles with an owner
func (g *Grid) OwnedCount() int {
	count := 0
	for i := range g.Tiles {
		if g.Tiles[i].IsOwned() {
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the grid
func (g Grid) Clone() Grid {
	tiles := make([]Tile, len(g.Tiles))
	copy(tiles, g.Tiles)
	return Grid{Size: g.Size, Tiles: tiles}
}
