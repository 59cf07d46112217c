package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tickforge/engine/internal/config"
	"github.com/tickforge/engine/internal/content"
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/replay"
	"github.com/tickforge/engine/internal/scripting"
	"github.com/tickforge/engine/internal/snapshot"
)

// commandKind is the closed set of control operations the engine accepts.
type commandKind int

const (
	cmdPause commandKind = iota
	cmdResume
	cmdStep
	cmdReset
	cmdSetSpeed
)

type command struct {
	kind commandKind
	tps  float64 // only used by cmdSetSpeed
}

// Stats is the snapshot of Manager's atomics returned by Stats(). It never
// blocks the tick loop: every field is read from an atomic.
type Stats struct {
	Tick               uint64
	AliveCount         int
	DegradedTickCount  uint64
	SpawnTotal         uint64
	DeathTotal         uint64
	Running            bool
	Paused             bool
	LastError          string
}

// Manager wraps Loop in a background goroutine: it owns the atomic
// published-snapshot pointer, the non-blocking control channel, and the
// atomic stats counters, none of which require the tick loop to hold a
// lock. Exactly one Manager drives exactly one Loop for the lifetime of a
// run; reset rebuilds both the world and the Loop in place.
type Manager struct {
	cfg     *config.Config
	content *content.Map
	formula *scripting.DamageFormula
	log     *zap.Logger
	action  *replay.ActionLog

	loop *Loop

	currentSnapshot atomic.Pointer[snapshot.Snapshot]
	controlCh       chan command

	tick              atomic.Uint64
	aliveCount        atomic.Int64
	degradedTickCount atomic.Uint64
	spawnTotal        atomic.Uint64
	deathTotal        atomic.Uint64
	running           atomic.Bool
	paused            atomic.Bool
	lastError         atomic.Pointer[string]

	stopped chan struct{}
}

// NewManager builds a Manager and its initial World/Loop from cfg. It does
// not start the background goroutine; call Start for that.
func NewManager(cfg *config.Config, m *content.Map, formula *scripting.DamageFormula, action *replay.ActionLog, log *zap.Logger) *Manager {
	mgr := &Manager{
		cfg:       cfg,
		content:   m,
		formula:   formula,
		log:       log,
		action:    action,
		controlCh: make(chan command, 16),
		stopped:   make(chan struct{}),
	}
	mgr.rebuild()
	return mgr
}

// rebuild constructs a fresh World and Loop from (seed, config, content)
// and publishes its initial snapshot. Used by NewManager and by reset; a
// call with the same cfg/content/seed always produces the same world, so a
// reset followed by N ticks fingerprints identically to a fresh run of N
// ticks.
func (m *Manager) rebuild() {
	src := rng.NewSource(m.cfg.World.Seed)
	w := BuildWorld(m.cfg, m.content, src)
	w.ConsumeTickCounters() // discard initial population count, not a runtime spawn
	runID := snapshot.NewRunID()
	m.loop = NewLoop(m.cfg, w, src, m.formula, runID, m.log)

	initial := snapshot.FromWorld(w, 0, runID)
	m.currentSnapshot.Store(initial)

	m.tick.Store(0)
	m.aliveCount.Store(int64(len(w.Entities)))
	m.degradedTickCount.Store(0)
	m.spawnTotal.Store(0)
	m.deathTotal.Store(0)
	m.lastError.Store(nil)
}

// CurrentSnapshot returns the latest published snapshot via an atomic load.
// Never blocks the tick loop; a reader may retain the result indefinitely.
func (m *Manager) CurrentSnapshot() *snapshot.Snapshot {
	return m.currentSnapshot.Load()
}

// Stats reads every atomic counter into a single consistent-enough view.
// It is not a transaction: no lock is ever taken on domain data, so two
// fields read here may straddle a tick boundary.
func (m *Manager) Stats() Stats {
	var lastErr string
	if p := m.lastError.Load(); p != nil {
		lastErr = *p
	}
	return Stats{
		Tick:              m.tick.Load(),
		AliveCount:        int(m.aliveCount.Load()),
		DegradedTickCount: m.degradedTickCount.Load(),
		SpawnTotal:        m.spawnTotal.Load(),
		DeathTotal:        m.deathTotal.Load(),
		Running:           m.running.Load(),
		Paused:            m.paused.Load(),
		LastError:         lastErr,
	}
}

// SubmitControl enqueues a control command without blocking the caller. If
// the control channel is full the command is dropped; callers that need a
// guaranteed delivery should retry. There is no synchronous reply either
// way — the caller observes effect via Stats() and subsequent snapshots.
func (m *Manager) SubmitControl(kind string, tps float64) {
	var k commandKind
	switch kind {
	case "pause":
		k = cmdPause
	case "start", "resume":
		// The goroutine itself is launched by Start; "start" as a control
		// command just clears a paused state, same as resume.
		k = cmdResume
	case "step":
		k = cmdStep
	case "reset":
		k = cmdReset
	case "set_speed":
		k = cmdSetSpeed
	default:
		return
	}
	select {
	case m.controlCh <- command{kind: k, tps: tps}:
	default:
	}
}

// Start launches the background goroutine and returns immediately. It is an
// error to call Start twice on the same Manager.
func (m *Manager) Start(ctx context.Context) {
	if !m.running.CompareAndSwap(false, true) {
		return
	}
	go m.run(ctx)
}

// Stop requests the background goroutine to exit and waits for it.
func (m *Manager) Stop() {
	m.running.Store(false)
	<-m.stopped
}

// run is the Manager's background goroutine: it owns pacing and processes
// control commands only between ticks, never mid-phase.
func (m *Manager) run(ctx context.Context) {
	defer close(m.stopped)

	limiter := rate.NewLimiter(rate.Limit(1.0/m.cfg.Engine.TickRate.Duration().Seconds()), 1)
	paused := false

	for {
		select {
		case <-ctx.Done():
			m.running.Store(false)
			return
		case cmd := <-m.controlCh:
			m.handleCommand(cmd, &paused, limiter)
			continue
		default:
		}

		if !m.running.Load() {
			return
		}

		if paused {
			select {
			case <-ctx.Done():
				m.running.Store(false)
				return
			case cmd := <-m.controlCh:
				m.handleCommand(cmd, &paused, limiter)
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			m.running.Store(false)
			return
		}

		m.runOneTick(ctx)

		if max := m.cfg.Engine.MaxTicks; max > 0 && m.tick.Load() >= max {
			m.running.Store(false)
			return
		}
	}
}

// handleCommand applies exactly one control command. Called only from run,
// so it never races the tick loop.
func (m *Manager) handleCommand(cmd command, paused *bool, limiter *rate.Limiter) {
	switch cmd.kind {
	case cmdPause:
		*paused = true
		m.paused.Store(true)
	case cmdResume:
		*paused = false
		m.paused.Store(false)
	case cmdStep:
		if *paused {
			m.runOneTick(context.Background())
		}
	case cmdReset:
		m.rebuild()
	case cmdSetSpeed:
		if cmd.tps > 0 {
			limiter.SetLimit(rate.Limit(cmd.tps))
		}
	}
}

// runOneTick drives exactly one Loop.RunTick, publishes its snapshot,
// feeds the action log, and updates every atomic stat. Any panic escaping
// RunTick is an invariant violation and is caught here once: the engine
// aborts, sets running=false, and records the last error rather than
// crashing the process.
func (m *Manager) runOneTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			msg := panicMessage(r)
			m.lastError.Store(&msg)
			m.running.Store(false)
			if m.log != nil {
				m.log.Error("invariant violation, aborting engine", zap.Any("panic", r))
			}
			m.currentSnapshot.Store(snapshot.FromWorld(m.loop.World, m.loop.Tick, m.loop.RunID))
		}
	}()

	result := m.loop.RunTick(ctx)

	m.tick.Store(result.Tick)
	m.aliveCount.Store(int64(result.AliveCount))
	if result.Degraded {
		m.degradedTickCount.Add(1)
	}
	if result.SpawnCount > 0 {
		m.spawnTotal.Add(uint64(result.SpawnCount))
	}
	if result.DeathCount > 0 {
		m.deathTotal.Add(uint64(result.DeathCount))
	}

	m.currentSnapshot.Store(result.Snapshot)

	if m.action != nil {
		entries := make([]replay.Entry, 0, len(result.AcceptedDecisions))
		for _, d := range result.AcceptedDecisions {
			entries = append(entries, replay.Entry{
				Tick:    result.Tick,
				ActorID: d.Proposal.ActorID,
				Kind:    d.Proposal.Kind,
				Target:  d.Proposal.TargetID,
				Payload: d.Proposal.Payload,
			})
		}
		if err := m.action.RecordTick(result.Tick, entries); err != nil && m.log != nil {
			m.log.Warn("replay sink write failed", zap.Error(err))
		}
	}
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "panic: engine aborted"
}
