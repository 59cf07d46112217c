package world

// TileKind is drawn from a closed set of material tags.
type TileKind int

const (
	Floor TileKind = iota
	Wall
	Water
	Road
	Town
	Forest
	Desert
	Swamp
	Mountain
)

func (k TileKind) String() string {
	switch k {
	case Floor:
		return "floor"
	case Wall:
		return "wall"
	case Water:
		return "water"
	case Road:
		return "road"
	case Town:
		return "town"
	case Forest:
		return "forest"
	case Desert:
		return "desert"
	case Swamp:
		return "swamp"
	case Mountain:
		return "mountain"
	default:
		return "unknown"
	}
}

// Tile carries a movement-cost weight and a walkability flag alongside its
// material tag.
type Tile struct {
	Kind     TileKind
	Walkable bool
	MoveCost float64
}

var tileDefaults = map[TileKind]Tile{
	Floor:    {Kind: Floor, Walkable: true, MoveCost: 1.0},
	Wall:     {Kind: Wall, Walkable: false, MoveCost: 0},
	Water:    {Kind: Water, Walkable: false, MoveCost: 0},
	Road:     {Kind: Road, Walkable: true, MoveCost: 0.7},
	Town:     {Kind: Town, Walkable: true, MoveCost: 1.0},
	Forest:   {Kind: Forest, Walkable: true, MoveCost: 1.2},
	Desert:   {Kind: Desert, Walkable: true, MoveCost: 1.3},
	Swamp:    {Kind: Swamp, Walkable: true, MoveCost: 1.5},
	Mountain: {Kind: Mountain, Walkable: true, MoveCost: 2.0},
}

// DefaultTile returns the canonical Tile value for a material kind.
func DefaultTile(kind TileKind) Tile {
	if t, ok := tileDefaults[kind]; ok {
		return t
	}
	return tileDefaults[Floor]
}

// Grid is a rectangular array of tiles, mutated only during world generation
// and by map-altering actions.
type Grid struct {
	Width, Height int32
	tiles         [][]Tile // tiles[y][x]
}

func NewGrid(width, height int32, fill TileKind) *Grid {
	t := DefaultTile(fill)
	rows := make([][]Tile, height)
	for y := range rows {
		row := make([]Tile, width)
		for x := range row {
			row[x] = t
		}
		rows[y] = row
	}
	return &Grid{Width: width, Height: height, tiles: rows}
}

func (g *Grid) InBounds(x, y int32) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

func (g *Grid) At(x, y int32) (Tile, bool) {
	if !g.InBounds(x, y) {
		return Tile{}, false
	}
	return g.tiles[y][x], true
}

func (g *Grid) Set(x, y int32, t Tile) {
	if !g.InBounds(x, y) {
		return
	}
	g.tiles[y][x] = t
}

// Clone returns an independent deep copy for embedding in a Snapshot.
func (g *Grid) Clone() *Grid {
	rows := make([][]Tile, len(g.tiles))
	for i, row := range g.tiles {
		rows[i] = append([]Tile(nil), row...)
	}
	return &Grid{Width: g.Width, Height: g.Height, tiles: rows}
}
