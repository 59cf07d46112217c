package handler

import (
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/scripting"
)

// RegisterDefaults wires every built-in action kind into t: move, combat,
// rest, loot, harvest, trade, use_item, craft, learn_skill. Adding a
// further kind never requires touching the tick loop or resolver, only a
// call here (or an equivalent t.Register from a plug-in).
func RegisterDefaults(t *Table, formula *scripting.DamageFormula) {
	t.Register(proposal.Move, NewMoveHandler())
	t.Register(proposal.Combat, NewCombatHandler(formula))
	t.Register(proposal.Rest, NewRestHandler())
	t.Register(proposal.Loot, NewLootHandler())
	t.Register(proposal.Harvest, NewHarvestHandler())
	t.Register(proposal.Trade, NewTradeHandler())
	t.Register(proposal.UseItem, NewUseItemHandler())
	t.Register(proposal.Craft, NewCraftHandler())
	t.Register(proposal.LearnSkill, NewLearnSkillHandler())
}
