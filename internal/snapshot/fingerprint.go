package snapshot

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/world"
)

// Fingerprint returns a canonical 64-bit hash of the snapshot: the tick,
// every entity tuple in ascending id order, the full tile grid, and every
// ground pile in ascending position order. Two runs of the same
// (seed, config, initial world) must produce equal fingerprints at every
// tick boundary; any divergence means determinism broke somewhere upstream.
//
// The run id and the event log are deliberately excluded — the former
// differs by construction across runs, and the latter's intra-tick record
// order is not part of the determinism contract.
func (s *Snapshot) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	writeI64 := func(v int64) { writeU64(uint64(v)) }
	writeF64 := func(v float64) { writeU64(math.Float64bits(v)) }
	writeStr := func(v string) {
		writeU64(uint64(len(v)))
		_, _ = d.WriteString(v)
	}

	writeU64(s.Tick)

	ids := make([]ecs.EntityID, 0, len(s.Entities))
	for id := range s.Entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e := s.Entities[id]
		writeU64(uint64(e.ID))
		writeStr(e.Kind)
		writeStr(e.Faction)
		writeI64(int64(e.Pos.X))
		writeI64(int64(e.Pos.Y))
		writeI64(int64(e.HP))
		writeI64(int64(e.MaxHP))
		writeI64(int64(e.Stamina))
		writeI64(e.Experience)
		writeI64(int64(e.Level))
		writeI64(e.Gold)
		writeI64(int64(e.ATK))
		writeI64(int64(e.DEF))
		writeI64(int64(e.SPD))
		writeF64(e.CritRate)
		writeF64(e.Evasion)
		writeI64(int64(e.MATK))
		writeI64(int64(e.MDEF))
		writeU64(uint64(len(e.Inventory)))
		for _, item := range e.Inventory {
			writeU64(item)
		}
		if e.Dead {
			writeU64(1)
		} else {
			writeU64(0)
		}
		writeU64(e.NextActAt)
		writeU64(e.RespawnAt)
		writeI64(int64(e.LootProgress))
	}

	for y := int32(0); y < s.Grid.Height; y++ {
		for x := int32(0); x < s.Grid.Width; x++ {
			tile, _ := s.Grid.At(x, y)
			writeI64(int64(tile.Kind))
			writeF64(tile.MoveCost)
		}
	}

	piles := append([]world.GroundItemPile(nil), s.GroundItems...)
	sort.Slice(piles, func(i, j int) bool {
		if piles[i].Pos.Y != piles[j].Pos.Y {
			return piles[i].Pos.Y < piles[j].Pos.Y
		}
		return piles[i].Pos.X < piles[j].Pos.X
	})
	for _, p := range piles {
		writeI64(int64(p.Pos.X))
		writeI64(int64(p.Pos.Y))
		writeU64(uint64(len(p.Items)))
		for _, item := range p.Items {
			writeU64(item)
		}
	}

	return d.Sum64()
}
