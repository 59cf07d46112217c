package engine

import (
	"go.uber.org/zap"

	"github.com/tickforge/engine/internal/ai"
	"github.com/tickforge/engine/internal/config"
	"github.com/tickforge/engine/internal/core/event"
	"github.com/tickforge/engine/internal/core/rng"
	coresys "github.com/tickforge/engine/internal/core/system"
	"github.com/tickforge/engine/internal/handler"
	"github.com/tickforge/engine/internal/queue"
	"github.com/tickforge/engine/internal/scripting"
	"github.com/tickforge/engine/internal/worker"
	"github.com/tickforge/engine/internal/world"
)

// NewLoop wires every collaborator for one run: the goal registry, the
// handler table, the worker pool, the proposal queue, the Cleanup-phase
// divisor-cadenced maintenance tasks (spawner), and the signal bus with
// its kill-experience and respawn-record subscribers, then returns a Loop
// ready for RunTick. w, src, and runID are supplied by the caller
// (Manager) so reset can rebuild a Loop around a freshly generated world
// without re-deriving the rest of the wiring.
func NewLoop(cfg *config.Config, w *world.World, src *rng.Source, formula *scripting.DamageFormula, runID string, log *zap.Logger) *Loop {
	goals := worker.NewRegistry()
	ai.RegisterDefaults(goals, ai.Config{FleeHPThreshold: cfg.World.FleeHPThreshold})

	handlers := handler.NewTable()
	handler.RegisterDefaults(handlers, formula)
	handlers.SetLogger(log)

	q := queue.NewProposalQueue()
	pool := worker.NewPool(cfg.Engine.NumWorkers, goals, src, q, log)

	cleanup := coresys.NewRunner()
	cleanup.Register(coresys.Task{
		Name:    "spawner",
		Divisor: cfg.Spawner.SpawnInterval,
		Run: func(tick uint64) {
			runSpawner(w, src, cfg.Spawner.MaxEntities, tick)
		},
	})

	bus := event.NewBus()
	event.Subscribe(bus, func(ev event.EntityKilled) {
		awardKillExperience(w, ev)
	})
	event.Subscribe(bus, func(ev event.EntityRespawned) {
		w.RecordEvent(ev.AtTick, "respawn", "hero respawned", nil, ev.EntityID)
	})

	return &Loop{
		World:              w,
		RNG:                src,
		Goals:              goals,
		Pool:               pool,
		Queue:              q,
		Handlers:           handlers,
		Cleanup:            cleanup,
		Bus:                bus,
		RunID:                runID,
		Tick:                 0,
		WorkerDeadline:       cfg.Engine.WorkerDeadline.Duration(),
		HeroRespawnTicks:     cfg.World.HeroRespawnTicks,
		NPCCorpseLingerTicks: cfg.World.NPCCorpseLingerTicks,
		EnvironmentDivisor:   cfg.Engine.EnvironmentDivisor,
		Log:                  log,
	}
}
