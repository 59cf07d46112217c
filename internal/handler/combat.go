package handler

import (
	"fmt"

	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/scripting"
	"github.com/tickforge/engine/internal/world"
)

const (
	defaultWeaponRange = 1
	critMultiplier     = 1.5
	damageVarianceSpan = 0.1
	baseCombatDelay    = 8
)

// CombatPayload carries the skill the attacker used; the damage type
// decides whether ATK/DEF or MATK/MDEF applies.
type CombatPayload struct {
	SkillID         uint32
	SkillPower      float64
	DamageType      world.DamageType
	Range           int32
	CooldownTicks   int32
}

// NewCombatHandler builds the COMBAT validate/apply pair. Crit and evasion
// are rolled directly against the RNG source (domain Combat, fixed salts)
// rather than delegated to a scripted engine; only the raw damage scaling
// formula is pluggable via formula.
func NewCombatHandler(formula *scripting.DamageFormula) Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			attacker, ok := base.Entities[p.ActorID]
			if !ok || attacker.Dead || !p.HasTarget {
				return false
			}
			defender, ok := base.Entities[p.TargetID]
			if !ok || defender.Dead {
				return false
			}
			rangeAttr := int32(defaultWeaponRange)
			if payload, ok := p.Payload.(CombatPayload); ok {
				if payload.Range > 0 {
					rangeAttr = payload.Range
				}
				if payload.SkillID != 0 {
					if sk, ok := attacker.Skills[payload.SkillID]; ok && sk.CooldownRemaining > 0 {
						return false
					}
				}
			}
			dist := spatial.Manhattan(attacker.Pos, defender.Pos)
			if dist > rangeAttr {
				return false
			}
			if rangeAttr > 1 && !hasLineOfSight(base, attacker.Pos, defender.Pos) {
				return false
			}
			return true
		},
		Apply: func(w *world.World, src *rng.Source, tick uint64, p proposal.Proposal) {
			attacker, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			defender, ok := w.Entities[p.TargetID]
			if !ok {
				return
			}
			payload, _ := p.Payload.(CombatPayload)
			if payload.SkillPower == 0 {
				payload.SkillPower = 1.0
			}

			attacker.AIState = world.AIHunting
			defender.AIState = world.AIHunting

			attacker.NextActAt = tick + baseCombatDelay

			evaded, _ := src.NextBool(rng.Combat, uint64(defender.ID), tick, 2, defender.Evasion)
			if evaded {
				w.RecordEvent(tick, "combat", "attack evaded", nil, p.ActorID, p.TargetID)
				advanceCooldowns(attacker, payload, tick)
				return
			}

			variance, _ := src.Variance(rng.Combat, uint64(attacker.ID), tick, 0, damageVarianceSpan)
			scale := formula.Scale(attacker.StatFor(payload.DamageType), payload.SkillPower, variance)

			crit, _ := src.NextBool(rng.Combat, uint64(attacker.ID), tick, 1, attacker.CritRate)
			raw := scale
			if crit {
				raw *= critMultiplier
			}

			def := float64(defender.DefenseFor(payload.DamageType))
			dmg := raw - def
			if dmg < 1 {
				dmg = 1
			}

			_ = w.ApplyDamage(defender.ID, int32(dmg), tick)
			w.AddThreat(defender.ID, attacker.ID, int64(dmg))

			w.RecordEvent(tick, "combat", "damage dealt", map[string]string{
				"damage": fmt.Sprintf("%.0f", dmg),
				"crit":   fmt.Sprintf("%v", crit),
			}, p.ActorID, p.TargetID)

			advanceCooldowns(attacker, payload, tick)

			if defender.HP == 0 {
				w.RecordEvent(tick, "death", "entity died", nil, defender.ID, attacker.ID)
			}
		},
	}
}

// advanceCooldowns updates the attacker's skill usage bookkeeping: mastery
// climbs toward 100% with use, and the skill's remaining cooldown is reset
// to the payload's configured value. Per-tick cooldown decay happens in
// World.AdvanceEffects during Cleanup, not here.
func advanceCooldowns(attacker *world.Entity, payload CombatPayload, tick uint64) {
	if payload.SkillID == 0 {
		return
	}
	sk, ok := attacker.Skills[payload.SkillID]
	if !ok {
		sk = &world.Skill{ID: payload.SkillID}
		attacker.Skills[payload.SkillID] = sk
	}
	sk.TimesUsed++
	if sk.MasteryPercent < 100 {
		sk.MasteryPercent += 0.1
		if sk.MasteryPercent > 100 {
			sk.MasteryPercent = 100
		}
	}
	sk.CooldownRemaining = payload.CooldownTicks
}

// hasLineOfSight walks a Bresenham line between from and to, rejecting the
// shot if any intervening tile is unwalkable.
func hasLineOfSight(w *world.World, from, to spatial.Position) bool {
	x0, y0 := from.X, from.Y
	x1, y1 := to.X, to.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := int32(1), int32(1)
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		if x0 == x1 && y0 == y1 {
			return true
		}
		if !(x0 == from.X && y0 == from.Y) {
			tile, ok := w.TileAt(spatial.Position{X: x0, Y: y0})
			if !ok || !tile.Walkable {
				return false
			}
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
