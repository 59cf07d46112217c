// Package metrics exposes the engine's Prometheus collectors (DOMAIN STACK:
// prometheus/client_golang) behind an optional HTTP server, gated by
// metrics.enabled in config so a standalone run pays nothing for it.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tickforge/engine/internal/engine"
)

// Collectors holds every gauge/counter the engine updates each tick.
type Collectors struct {
	Tick              prometheus.Gauge
	AliveEntities     prometheus.Gauge
	DegradedTickTotal prometheus.Counter
	SpawnTotal        prometheus.Counter
	DeathTotal        prometheus.Counter
	Registry          *prometheus.Registry
}

// NewCollectors registers a fresh set of collectors on their own registry,
// so a test can construct one without colliding with prometheus's global
// default registry.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collectors{
		Tick: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tickforge",
			Name:      "tick",
			Help:      "Current tick counter.",
		}),
		AliveEntities: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tickforge",
			Name:      "alive_entities",
			Help:      "Number of entities alive in the world.",
		}),
		DegradedTickTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tickforge",
			Name:      "degraded_ticks_total",
			Help:      "Ticks marked degraded: worker pool deadline exceeded or an action handler panicked.",
		}),
		SpawnTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tickforge",
			Name:      "spawns_total",
			Help:      "Entities spawned over the run.",
		}),
		DeathTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tickforge",
			Name:      "deaths_total",
			Help:      "Entities that died over the run.",
		}),
		Registry: reg,
	}
}

// Sample pulls the latest Manager.Stats() into the collectors. Counters only
// move forward, so Sample tracks the previous cumulative value itself.
type Sampler struct {
	c              *Collectors
	mgr            *engine.Manager
	lastDegraded   uint64
	lastSpawn      uint64
	lastDeath      uint64
}

func NewSampler(c *Collectors, mgr *engine.Manager) *Sampler {
	return &Sampler{c: c, mgr: mgr}
}

func (s *Sampler) Sample() {
	stats := s.mgr.Stats()
	s.c.Tick.Set(float64(stats.Tick))
	s.c.AliveEntities.Set(float64(stats.AliveCount))

	if stats.DegradedTickCount > s.lastDegraded {
		s.c.DegradedTickTotal.Add(float64(stats.DegradedTickCount - s.lastDegraded))
		s.lastDegraded = stats.DegradedTickCount
	}
	if stats.SpawnTotal > s.lastSpawn {
		s.c.SpawnTotal.Add(float64(stats.SpawnTotal - s.lastSpawn))
		s.lastSpawn = stats.SpawnTotal
	}
	if stats.DeathTotal > s.lastDeath {
		s.c.DeathTotal.Add(float64(stats.DeathTotal - s.lastDeath))
		s.lastDeath = stats.DeathTotal
	}
}

// Server wraps the promhttp handler in a plain http.Server so main can
// start/stop it alongside the engine.
type Server struct {
	httpServer *http.Server
}

func NewServer(bindAddr string, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Server{httpServer: &http.Server{Addr: bindAddr, Handler: mux}}
}

func (s *Server) ListenAndServe(log *zap.Logger) {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server stopped", zap.Error(err))
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
