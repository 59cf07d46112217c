// Package world holds the engine's single authoritative mutable store: every
// entity, the tile grid, ground item piles, buildings, resource nodes,
// regions, and the observable event log. It is owned exclusively by the
// tick loop goroutine; no worker or reader ever holds a reference to it.
package world

import (
	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/spatial"
)

// AIState is the entity's current cognitive mode, consulted by goal scorers.
type AIState int

const (
	AIIdle AIState = iota
	AIHunting
	AIFleeing
	AIResting
	AIChannelling
)

// Attribute is one of the entity's 9 trainable attributes: a current value,
// fractional training progress toward the next point, and a per-entity cap.
type Attribute struct {
	Value    int32
	Progress float64
	Cap      int32
}

// AttributeKind indexes the fixed 9-attribute vector.
type AttributeKind int

const (
	Strength AttributeKind = iota
	Constitution
	Dexterity
	Intelligence
	Wisdom
	Mentality
	Charisma
	Luck
	Willpower

	AttributeCount
)

// DamageType selects which stat pair (ATK/DEF or MATK/MDEF) a skill uses.
type DamageType int

const (
	Physical DamageType = iota
	Magical
)

// StatusEffect is a duration-scoped multiplier/delta bundle, advanced once
// per tick in Cleanup and removed when RemainingTicks reaches zero.
// RemainingTicks == -1 means permanent.
type StatusEffect struct {
	Source         string
	Kind           string
	ATKMul         float64
	DEFMul         float64
	SPDMul         float64
	CritMul        float64
	EvasionMul     float64
	HPDeltaPerTick int32
	RemainingTicks int32
}

func (s StatusEffect) expired() bool { return s.RemainingTicks == 0 }

// Skill is a known ability with per-instance progression.
type Skill struct {
	ID                uint32
	CooldownRemaining int32
	TimesUsed         uint32
	MasteryPercent    float64
}

// MemoryEntry is what an entity remembers about another entity it has seen,
// keyed by id rather than by pointer so it survives the remembered entity's
// death without dangling.
type MemoryEntry struct {
	ID           ecs.EntityID
	Kind         string
	LastHP       int32
	LastMaxHP    int32
	LastPosition spatial.Position
	LastSeenTick uint64
	Visible      bool
}

// Entity is the central simulation subject. Fields are grouped exactly as
// the data model specifies: identity & placement, vitals, capabilities,
// cognition.
type Entity struct {
	// Identity & placement
	ID      ecs.EntityID
	Kind    string
	Pos     spatial.Position
	Home    spatial.Position
	Faction string

	// Vitals
	HP, MaxHP     int32
	Stamina       int32
	Experience    int64
	Level         int32
	Gold          int64
	ATK, DEF      int32
	SPD           int32
	CritRate      float64
	Evasion       float64
	MATK, MDEF    int32
	Attributes    [AttributeCount]Attribute

	// Capabilities
	WeaponID    uint64
	ArmorID     uint64
	AccessoryID uint64
	Inventory   []uint64
	BagCapacity int

	Skills       map[uint32]*Skill
	KnownRecipes map[uint32]struct{}
	Quests       map[uint32]*QuestProgress

	// Cognition
	AIState        AIState
	VisionRange    int32
	TerrainMemory  map[spatial.Position]uint64
	EntityMemory   map[ecs.EntityID]*MemoryEntry
	StatusEffects  []StatusEffect
	CraftTarget    uint32
	CachedPath     []spatial.Position
	PathTargetID   ecs.EntityID

	// Scheduling
	NextActAt    uint64
	LootProgress int32
	Dead         bool
	RespawnAt    uint64 // hero: tick it revives at. NPC corpse: tick it is removed at.
}

// QuestProgress tracks a single accepted quest's explore/kill/collect
// counters. Which quest wants what is opaque content; only the progress
// bookkeeping lives here.
type QuestProgress struct {
	QuestID   uint32
	Progress  int32
	Target    int32
	Completed bool
}

// NewEntity returns a freshly allocated entity with its maps initialized,
// Home set to pos and a 20-slot bag. Every other field, HP, MaxHP and
// Stamina included, is zero; callers set vitals before World.AddEntity.
func NewEntity(id ecs.EntityID, kind string, pos spatial.Position) *Entity {
	return &Entity{
		ID:            id,
		Kind:          kind,
		Pos:           pos,
		Home:          pos,
		Skills:        make(map[uint32]*Skill),
		KnownRecipes:  make(map[uint32]struct{}),
		Quests:        make(map[uint32]*QuestProgress),
		TerrainMemory: make(map[spatial.Position]uint64),
		EntityMemory:  make(map[ecs.EntityID]*MemoryEntry),
		BagCapacity:   20,
	}
}

// StatFor returns the attacking stat for a skill's damage type, used by
// COMBAT's raw damage formula.
func (e *Entity) StatFor(dt DamageType) int32 {
	if dt == Magical {
		return e.MATK
	}
	return e.ATK
}

// DefenseFor returns the defending stat for a skill's damage type.
func (e *Entity) DefenseFor(dt DamageType) int32 {
	if dt == Magical {
		return e.MDEF
	}
	return e.DEF
}

// Clone performs a deep copy suitable for embedding in a Snapshot.
func (e *Entity) Clone() *Entity {
	out := *e
	out.Inventory = append([]uint64(nil), e.Inventory...)
	out.Skills = make(map[uint32]*Skill, len(e.Skills))
	for k, v := range e.Skills {
		sk := *v
		out.Skills[k] = &sk
	}
	out.KnownRecipes = make(map[uint32]struct{}, len(e.KnownRecipes))
	for k := range e.KnownRecipes {
		out.KnownRecipes[k] = struct{}{}
	}
	out.Quests = make(map[uint32]*QuestProgress, len(e.Quests))
	for k, v := range e.Quests {
		q := *v
		out.Quests[k] = &q
	}
	out.TerrainMemory = make(map[spatial.Position]uint64, len(e.TerrainMemory))
	for k, v := range e.TerrainMemory {
		out.TerrainMemory[k] = v
	}
	out.EntityMemory = make(map[ecs.EntityID]*MemoryEntry, len(e.EntityMemory))
	for k, v := range e.EntityMemory {
		m := *v
		out.EntityMemory[k] = &m
	}
	out.StatusEffects = append([]StatusEffect(nil), e.StatusEffects...)
	out.CachedPath = append([]spatial.Position(nil), e.CachedPath...)
	return &out
}
