package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tickforge/engine/internal/config"
	"github.com/tickforge/engine/internal/content"
	"github.com/tickforge/engine/internal/engine"
	"github.com/tickforge/engine/internal/metrics"
	"github.com/tickforge/engine/internal/replay"
	"github.com/tickforge/engine/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            tickforge engine                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      deterministic tick-based simulation    \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s %s %s\n", label, strings.Repeat(".", dotsLen), numStr)
}

func run() error {
	// 1. Load config
	cfgPath := "config/config.toml"
	if p := os.Getenv("TICKFORGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Load startup content
	printSection("content")
	m := content.Default()
	if cfg.Content.MapPath != "" {
		loaded, err := content.Load(cfg.Content.MapPath)
		if err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		m = loaded
	}
	printStat("entity templates", len(m.Templates))
	printStat("terrain rects", len(m.Rects))

	// 4. Load the damage formula (optional Lua script, linear fallback)
	formula, err := scripting.NewDamageFormula(cfg.Engine.DamageFormulaPath, log)
	if err != nil {
		return fmt.Errorf("load damage formula: %w", err)
	}
	defer formula.Close()
	if cfg.Engine.DamageFormulaPath != "" {
		printOK("damage formula script loaded")
	} else {
		printOK("damage formula: linear fallback")
	}
	fmt.Println()

	// 5. Optional replay sink
	printSection("replay")
	var sink replay.Sink
	if cfg.Replay.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pgSink, err := replay.NewPostgresSink(ctx, cfg.Replay.DSN)
		cancel()
		if err != nil {
			return fmt.Errorf("replay sink: %w", err)
		}
		defer pgSink.Close()
		sink = pgSink
		printOK("postgres replay sink connected, migrations applied")
	} else {
		printOK("replay sink disabled, action log is in-core only")
	}
	actionLog := replay.NewActionLog(10_000, sink)
	fmt.Println()

	// 6. Build the engine manager and start the background tick loop
	printSection("engine")
	mgr := engine.NewManager(cfg, m, formula, actionLog, log)
	printStat("initial entities", mgr.Stats().AliveCount)

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	mgr.Start(ctx)
	printOK(fmt.Sprintf("tick loop running at %s", cfg.Engine.TickRate))

	// 7. Optional metrics server
	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		collectors := metrics.NewCollectors()
		sampler := metrics.NewSampler(collectors, mgr)
		metricsSrv = metrics.NewServer(cfg.Metrics.BindAddress, collectors.Registry)
		go metricsSrv.ListenAndServe(log)
		go sampleLoop(ctx, sampler, cfg.Engine.TickRate.Duration())
		printOK(fmt.Sprintf("metrics listening on %s/metrics", cfg.Metrics.BindAddress))
	}
	fmt.Println()

	printSection("ready")
	fmt.Println()

	// 8. Run until a shutdown signal, logging periodic stats.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-statsTicker.C:
			s := mgr.Stats()
			log.Info("engine stats",
				zap.Uint64("tick", s.Tick),
				zap.Int("alive", s.AliveCount),
				zap.Uint64("degraded_ticks", s.DegradedTickCount),
				zap.Uint64("spawns", s.SpawnTotal),
				zap.Uint64("deaths", s.DeathTotal),
			)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			cancelRun()
			mgr.Stop()
			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				metricsSrv.Shutdown(shutdownCtx)
				cancel()
			}
			log.Info("engine stopped")
			return nil
		}
	}
}

func sampleLoop(ctx context.Context, sampler *metrics.Sampler, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sampler.Sample()
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
