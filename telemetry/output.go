package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/pitchcontrol/config"
	"github.com/pthm-cable/pitchcontrol/control"
	"github.com/pthm-cable/pitchcontrol/pitch"
)

// CellRecord is one grid cell of a control evaluation.
type CellRecord struct {
	Row     int     `csv:"row"`
	Col     int     `csv:"col"`
	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
	Offense float64 `csv:"offense"`
	Defense float64 `csv:"defense"`
	Control float64 `csv:"control"`
}

// ControlRecord is a CellRecord without the team surfaces.
type ControlRecord struct {
	Row     int     `csv:"row"`
	Col     int     `csv:"col"`
	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
	Control float64 `csv:"control"`
}

// InfluenceRecord is one grid cell of a single player's influence surface.
type InfluenceRecord struct {
	Row       int     `csv:"row"`
	Col       int     `csv:"col"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	Influence float64 `csv:"influence"`
}

// OutputManager writes evaluation results as CSV files into one directory.
type OutputManager struct {
	dir       string
	teamCols  bool
	statsFile *os.File
	perfFile  *os.File

	// Track if headers have been written
	statsHeaderWritten bool
	perfHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string, teamColumns bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, teamCols: teamColumns}

	f, err := os.Create(filepath.Join(dir, "stats.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	om.statsFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.statsFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteControl writes control.csv, one row per grid cell.
func (om *OutputManager) WriteControl(g pitch.Grid, res *control.Result) error {
	if om == nil {
		return nil
	}
	if err := sameShape(g, res.Control); err != nil {
		return fmt.Errorf("writing control: %w", err)
	}

	rows, cols := g.Dims()
	var records any
	if om.teamCols {
		recs := make([]CellRecord, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				x, y := g.At(i, j)
				recs = append(recs, CellRecord{
					Row: i, Col: j, X: x, Y: y,
					Offense: res.Offense.At(i, j),
					Defense: res.Defense.At(i, j),
					Control: res.Control.At(i, j),
				})
			}
		}
		records = recs
	} else {
		recs := make([]ControlRecord, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				x, y := g.At(i, j)
				recs = append(recs, ControlRecord{Row: i, Col: j, X: x, Y: y, Control: res.Control.At(i, j)})
			}
		}
		records = recs
	}
	return om.writeFile("control.csv", records)
}

// WriteInfluence writes a single player's surface to name.
func (om *OutputManager) WriteInfluence(name string, g pitch.Grid, surface mat.Matrix) error {
	if om == nil {
		return nil
	}
	if err := sameShape(g, surface); err != nil {
		return fmt.Errorf("writing influence: %w", err)
	}

	rows, cols := g.Dims()
	recs := make([]InfluenceRecord, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x, y := g.At(i, j)
			recs = append(recs, InfluenceRecord{Row: i, Col: j, X: x, Y: y, Influence: surface.At(i, j)})
		}
	}
	return om.writeFile(name, recs)
}

// WriteStats appends a surface summary to stats.csv.
func (om *OutputManager) WriteStats(s SurfaceStats) error {
	if om == nil {
		return nil
	}
	if err := appendRecords(om.statsFile, &om.statsHeaderWritten, []SurfaceStats{s}); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WritePerf appends a performance summary to perf.csv.
func (om *OutputManager) WritePerf(s PerfStats) error {
	if om == nil {
		return nil
	}
	if err := appendRecords(om.perfFile, &om.perfHeaderWritten, []PerfStatsCSV{s.ToCSV()}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

func (om *OutputManager) writeFile(name string, records any) error {
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := gocsv.MarshalFile(records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// appendRecords writes headers on the first call only.
func appendRecords(f *os.File, headerWritten *bool, records any) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

func sameShape(g pitch.Grid, m mat.Matrix) error {
	gr, gc := g.Dims()
	mr, mc := m.Dims()
	if gr != mr || gc != mc {
		return &pitch.ShapeMismatchError{XRows: gr, XCols: gc, YRows: mr, YCols: mc}
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.statsFile != nil {
		if err := om.statsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
