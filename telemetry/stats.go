package telemetry

import (
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SurfaceStats summarizes one control surface.
type SurfaceStats struct {
	Cells int     `csv:"cells"`
	Mean  float64 `csv:"mean"`
	Std   float64 `csv:"std"`
	Min   float64 `csv:"min"`
	Max   float64 `csv:"max"`
	P10   float64 `csv:"p10"`
	P50   float64 `csv:"p50"`
	P90   float64 `csv:"p90"`

	// Fraction of cells where the offense is favoured (control > 0.5)
	OffenseShare float64 `csv:"offense_share"`
	// Fraction of cells where the defense is favoured (control < 0.5)
	DefenseShare float64 `csv:"defense_share"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSurfaceStats summarizes every cell of a control surface.
func ComputeSurfaceStats(surface mat.Matrix) (SurfaceStats, error) {
	r, c := surface.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			values = append(values, surface.At(i, j))
		}
	}
	if len(values) == 0 {
		return SurfaceStats{}, fmt.Errorf("surface stats: empty surface")
	}
	if floats.HasNaN(values) {
		return SurfaceStats{}, fmt.Errorf("surface stats: surface contains NaN")
	}

	sort.Float64s(values)
	mean, std := stat.PopMeanStdDev(values, nil)

	var off, def int
	for _, v := range values {
		switch {
		case v > 0.5:
			off++
		case v < 0.5:
			def++
		}
	}
	n := float64(len(values))

	return SurfaceStats{
		Cells:        len(values),
		Mean:         mean,
		Std:          std,
		Min:          values[0],
		Max:          values[len(values)-1],
		P10:          Percentile(values, 0.10),
		P50:          Percentile(values, 0.50),
		P90:          Percentile(values, 0.90),
		OffenseShare: float64(off) / n,
		DefenseShare: float64(def) / n,
	}, nil
}

// LogValue implements slog.LogValuer for structured logging.
func (s SurfaceStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("cells", s.Cells),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Float64("offense_share", s.OffenseShare),
		slog.Float64("defense_share", s.DefenseShare),
	)
}
