package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/pitchcontrol/config"
	"github.com/pthm-cable/pitchcontrol/control"
	"github.com/pthm-cable/pitchcontrol/pitch"
	"github.com/pthm-cable/pitchcontrol/scenario"
	"github.com/pthm-cable/pitchcontrol/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	framePath := flag.String("frame", "", "Path to a frame YAML (empty = embedded kickoff frame)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV files and config snapshot")
	player := flag.String("player", "", "Also write one player's influence surface, e.g. offense:3")
	repeat := flag.Int("repeat", 1, "Evaluate the frame N times and log perf stats")
	peak := flag.Bool("peak", false, "Search for the point of maximum offensive control")

	flag.Parse()

	// .env is optional; it only feeds the environment overrides in config.
	_ = godotenv.Load()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Telemetry.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, *framePath, *player, *repeat, *peak); err != nil {
		slog.Error("evaluation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, framePath, player string, repeat int, peak bool) error {
	frame, err := scenario.Load(framePath)
	if err != nil {
		return err
	}
	if off := frame.OffPitch(cfg.Derived.Pitch); len(off) > 0 {
		slog.Warn("players outside the pitch", "players", off)
	}

	g, err := cfg.PitchGrid()
	if err != nil {
		return err
	}

	om, err := telemetry.NewOutputManager(cfg.Output.Dir, cfg.Output.WriteTeamSurfaces)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}

	eval := &control.Evaluator{
		Model:     cfg.InfluenceModel(),
		Workers:   cfg.Derived.Workers,
		Threshold: cfg.Parallel.Threshold,
	}

	slog.Info("evaluating frame",
		"frame", frame.Name,
		"offense", len(frame.Offense),
		"defense", len(frame.Defense),
		"grid_rows", cfg.Grid.Rows,
		"grid_cols", cfg.Grid.Cols,
		"workers", eval.Workers,
	)

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	var stats telemetry.SurfaceStats
	for i := 0; i < max(repeat, 1); i++ {
		stats, err = evaluateOnce(eval, frame, g, perf, om, i == 0)
		if err != nil {
			return err
		}
	}

	slog.Info("control surface", "stats", stats)
	slog.Info("perf", "stats", perf.Stats())
	if err := om.WriteStats(stats); err != nil {
		return err
	}
	if err := om.WritePerf(perf.Stats()); err != nil {
		return err
	}
	if player != "" {
		p, err := frame.Select(player)
		if err != nil {
			return err
		}
		surf, err := eval.Player(p, frame.Ball, g)
		if err != nil {
			return err
		}
		slog.Info("player influence", "player", player, "total", floats.Sum(surf.RawMatrix().Data))
		if err := om.WriteInfluence("influence.csv", g, surf); err != nil {
			return err
		}
	}

	if peak {
		pk, err := eval.Peak(frame.Offense, frame.Defense, frame.Ball, cfg.Derived.Pitch)
		if err != nil {
			return err
		}
		slog.Info("peak control", "x", pk.X, "y", pk.Y, "control", pk.Control, "evals", pk.Evals)
	}

	if om != nil {
		slog.Info("output written", "dir", om.Dir())
	}
	return nil
}

// evaluateOnce runs one timed pass. Only the first pass writes control.csv.
func evaluateOnce(eval *control.Evaluator, frame *scenario.Frame, g pitch.Grid,
	perf *telemetry.PerfCollector, om *telemetry.OutputManager, write bool) (telemetry.SurfaceStats, error) {
	perf.StartEval()
	defer perf.EndEval()

	perf.StartPhase(telemetry.PhaseOffense)
	off, err := eval.Team(frame.Offense, frame.Ball, g)
	if err != nil {
		return telemetry.SurfaceStats{}, err
	}

	perf.StartPhase(telemetry.PhaseDefense)
	def, err := eval.Team(frame.Defense, frame.Ball, g)
	if err != nil {
		return telemetry.SurfaceStats{}, err
	}

	perf.StartPhase(telemetry.PhaseTransform)
	ctl, err := control.Transform(off, def)
	if err != nil {
		return telemetry.SurfaceStats{}, err
	}
	res := &control.Result{Offense: off, Defense: def, Control: ctl}

	perf.StartPhase(telemetry.PhaseSummary)
	stats, err := telemetry.ComputeSurfaceStats(ctl)
	if err != nil {
		return telemetry.SurfaceStats{}, err
	}

	if write {
		perf.StartPhase(telemetry.PhaseOutput)
		if err := om.WriteControl(g, res); err != nil {
			return telemetry.SurfaceStats{}, err
		}
	}
	return stats, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
