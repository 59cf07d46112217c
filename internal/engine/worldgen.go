package engine

import (
	"github.com/tickforge/engine/internal/config"
	"github.com/tickforge/engine/internal/content"
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/world"
)

// BuildWorld constructs a fresh authoritative World from cfg and m: paints
// the grid from m's rects, then places cfg.World.InitialEntityCount
// entities at deterministically-chosen walkable tiles, picking each one's
// archetype with the Spawn domain RNG stream. Called once at engine start
// and again on every `reset`, so it must be a pure function of
// (cfg, m, src) — src carries the world seed, so two calls with the same
// arguments always produce byte-identical worlds.
func BuildWorld(cfg *config.Config, m *content.Map, src *rng.Source) *world.World {
	w := world.NewWorld(cfg.World.GridWidth, cfg.World.GridHeight, cfg.World.EventBufferCap)
	m.PaintGrid(w.Grid)

	totalWeight := m.TotalWeight()
	placed := 0
	for attempt := uint64(0); placed < cfg.World.InitialEntityCount && attempt < uint64(cfg.World.InitialEntityCount)*50; attempt++ {
		x, _ := src.NextInt(rng.Spawn, attempt, 0, 0, 0, int64(w.Grid.Width))
		y, _ := src.NextInt(rng.Spawn, attempt, 0, 1, 0, int64(w.Grid.Height))
		pos := spatial.Position{X: int32(x), Y: int32(y)}

		tile, ok := w.TileAt(pos)
		if !ok || !tile.Walkable || w.Spatial.IsOccupied(pos) {
			continue
		}

		draw, _ := src.Choice(rng.Spawn, attempt, 0, 2, totalWeight)
		tmpl := m.PickTemplate(draw)

		id := w.Dir.CreateEntity()
		e := world.NewEntity(id, tmpl.Kind, pos)
		e.Faction = tmpl.Faction
		e.HP, e.MaxHP = tmpl.HP, tmpl.HP
		e.ATK, e.DEF, e.SPD = tmpl.ATK, tmpl.DEF, tmpl.SPD
		e.CritRate, e.Evasion = tmpl.CritRate, tmpl.Evasion
		e.MATK, e.MDEF = tmpl.MATK, tmpl.MDEF
		e.VisionRange = tmpl.VisionRange
		if e.VisionRange == 0 {
			e.VisionRange = cfg.World.VisionRange
		}
		if tmpl.BagCapacity > 0 {
			e.BagCapacity = tmpl.BagCapacity
		}
		e.NextActAt = 0
		w.AddEntity(e)
		placed++
	}

	return w
}
