// Package content loads the opaque startup data tables the engine reads
// once at boot: terrain layout and entity templates. Item catalogs, skill
// trees, and loot tables are deliberately not modeled here; this package
// exists only far enough to let the tick engine boot a runnable world
// without a separate content-authoring tool.
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tickforge/engine/internal/world"
)

// TileRect paints a rectangular region of the grid with one material kind;
// a map file is a short list of rects layered in order, last write wins,
// rather than a giant per-cell array.
type TileRect struct {
	Kind string `yaml:"kind"`
	MinX int32  `yaml:"min_x"`
	MinY int32  `yaml:"min_y"`
	MaxX int32  `yaml:"max_x"`
	MaxY int32  `yaml:"max_y"`
}

// EntityTemplate is an opaque starting-entity archetype: the core reads
// these fields to populate an Entity and never interprets them further.
type EntityTemplate struct {
	Kind        string  `yaml:"kind"`
	Faction     string  `yaml:"faction"`
	Weight      int     `yaml:"weight"` // relative spawn frequency
	HP          int32   `yaml:"hp"`
	ATK         int32   `yaml:"atk"`
	DEF         int32   `yaml:"def"`
	SPD         int32   `yaml:"spd"`
	CritRate    float64 `yaml:"crit_rate"`
	Evasion     float64 `yaml:"evasion"`
	MATK        int32   `yaml:"matk"`
	MDEF        int32   `yaml:"mdef"`
	VisionRange int32   `yaml:"vision_range"`
	BagCapacity int     `yaml:"bag_capacity"`
}

// Map is the loaded content document: a base fill tile, the rects painted
// over it, and the entity archetypes available at world generation.
type Map struct {
	BaseTile  string           `yaml:"base_tile"`
	Rects     []TileRect       `yaml:"rects"`
	Templates []EntityTemplate `yaml:"templates"`
}

// Load reads a YAML content file from disk.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", path, err)
	}
	if len(m.Templates) == 0 {
		return nil, fmt.Errorf("content: %s defines no entity templates", path)
	}
	return &m, nil
}

// Default returns the built-in content used when no map file is
// configured: a mostly-open floor with a lake, a forest band, a road, and
// two archetypes (hero, goblin).
func Default() *Map {
	return &Map{
		BaseTile: "floor",
		Rects: []TileRect{
			{Kind: "water", MinX: 20, MinY: 20, MaxX: 26, MaxY: 24},
			{Kind: "forest", MinX: 0, MinY: 0, MaxX: 63, MaxY: 4},
			{Kind: "road", MinX: 0, MinY: 30, MaxX: 63, MaxY: 31},
		},
		Templates: []EntityTemplate{
			{
				Kind: "hero", Faction: "heroes", Weight: 1,
				HP: 120, ATK: 18, DEF: 10, SPD: 12, CritRate: 0.08, Evasion: 0.05,
				MATK: 8, MDEF: 6, VisionRange: 8, BagCapacity: 20,
			},
			{
				Kind: "goblin", Faction: "monsters", Weight: 4,
				HP: 40, ATK: 9, DEF: 4, SPD: 9, CritRate: 0.03, Evasion: 0.03,
				MATK: 2, MDEF: 2, VisionRange: 6, BagCapacity: 6,
			},
		},
	}
}

func tileKind(name string) world.TileKind {
	switch name {
	case "wall":
		return world.Wall
	case "water":
		return world.Water
	case "road":
		return world.Road
	case "town":
		return world.Town
	case "forest":
		return world.Forest
	case "desert":
		return world.Desert
	case "swamp":
		return world.Swamp
	case "mountain":
		return world.Mountain
	default:
		return world.Floor
	}
}

// PaintGrid fills g with m's base tile, then layers each rect in order.
func (m *Map) PaintGrid(g *world.Grid) {
	base := world.DefaultTile(tileKind(m.BaseTile))
	for y := int32(0); y < g.Height; y++ {
		for x := int32(0); x < g.Width; x++ {
			g.Set(x, y, base)
		}
	}
	for _, r := range m.Rects {
		t := world.DefaultTile(tileKind(r.Kind))
		for y := r.MinY; y <= r.MaxY && y < g.Height; y++ {
			for x := r.MinX; x <= r.MaxX && x < g.Width; x++ {
				if x < 0 || y < 0 {
					continue
				}
				g.Set(x, y, t)
			}
		}
	}
}

// TotalWeight sums every template's spawn weight, used by weighted
// selection at world generation.
func (m *Map) TotalWeight() int {
	total := 0
	for _, t := range m.Templates {
		if t.Weight <= 0 {
			total++
			continue
		}
		total += t.Weight
	}
	return total
}

// PickTemplate returns the template selected by a draw in [0, TotalWeight()).
func (m *Map) PickTemplate(draw int) EntityTemplate {
	acc := 0
	for _, t := range m.Templates {
		w := t.Weight
		if w <= 0 {
			w = 1
		}
		acc += w
		if draw < acc {
			return t
		}
	}
	return m.Templates[len(m.Templates)-1]
}
