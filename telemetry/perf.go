package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one control evaluation.
const (
	PhaseOffense   = "offense"
	PhaseDefense   = "defense"
	PhaseTransform = "transform"
	PhaseSummary   = "summary"
	PhaseOutput    = "output"
)

var phases = []string{PhaseOffense, PhaseDefense, PhaseTransform, PhaseSummary, PhaseOutput}

// PerfSample holds timing data for a single evaluation.
type PerfSample struct {
	EvalDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	evalStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of evaluations to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartEval begins timing a new evaluation.
func (p *PerfCollector) StartEval() {
	p.evalStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndEval finishes timing the current evaluation and records the sample.
func (p *PerfCollector) EndEval() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		EvalDuration: now.Sub(p.evalStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Samples int

	AvgEvalDuration time.Duration
	MinEvalDuration time.Duration
	MaxEvalDuration time.Duration

	// Phase breakdown (average durations and share of an evaluation)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	EvalsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minEval, maxEval time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.EvalDuration
		if i == 0 || s.EvalDuration < minEval {
			minEval = s.EvalDuration
		}
		if s.EvalDuration > maxEval {
			maxEval = s.EvalDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		Samples:         p.sampleCount,
		AvgEvalDuration: avg,
		MinEvalDuration: minEval,
		MaxEvalDuration: maxEval,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		EvalsPerSecond:  perSec,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Int64("avg_eval_us", s.AvgEvalDuration.Microseconds()),
		slog.Int64("min_eval_us", s.MinEvalDuration.Microseconds()),
		slog.Int64("max_eval_us", s.MaxEvalDuration.Microseconds()),
		slog.Float64("evals_per_sec", s.EvalsPerSecond),
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Samples      int     `csv:"samples"`
	AvgEvalUS    int64   `csv:"avg_eval_us"`
	MinEvalUS    int64   `csv:"min_eval_us"`
	MaxEvalUS    int64   `csv:"max_eval_us"`
	EvalsPerSec  float64 `csv:"evals_per_sec"`
	OffensePct   float64 `csv:"offense_pct"`
	DefensePct   float64 `csv:"defense_pct"`
	TransformPct float64 `csv:"transform_pct"`
	SummaryPct   float64 `csv:"summary_pct"`
	OutputPct    float64 `csv:"output_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		Samples:      s.Samples,
		AvgEvalUS:    s.AvgEvalDuration.Microseconds(),
		MinEvalUS:    s.MinEvalDuration.Microseconds(),
		MaxEvalUS:    s.MaxEvalDuration.Microseconds(),
		EvalsPerSec:  s.EvalsPerSecond,
		OffensePct:   s.PhasePct[PhaseOffense],
		DefensePct:   s.PhasePct[PhaseDefense],
		TransformPct: s.PhasePct[PhaseTransform],
		SummaryPct:   s.PhasePct[PhaseSummary],
		OutputPct:    s.PhasePct[PhaseOutput],
	}
}
