package engine

import "github.com/tickforge/engine/internal/world"

// runQuestProgress marks quests whose Progress has reached Target as
// Completed. The quest templates themselves (what counts toward progress)
// are opaque content the engine never interprets; advancing the counters
// happens in the handlers that cause progress (combat kills, harvests),
// not here.
func runQuestProgress(w *world.World) {
	w.AllEntities(func(e *world.Entity) {
		for _, q := range e.Quests {
			if !q.Completed && q.Progress >= q.Target {
				q.Completed = true
			}
		}
	})
}
