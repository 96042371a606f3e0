// Package report writes experiment results: CSV tables for the tilings, the
// learned light grids and the method summary, plus the effective config.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-adaptive-ibl/pkg/config"
	"github.com/df07/go-adaptive-ibl/pkg/lightgrid"
	"github.com/df07/go-adaptive-ibl/pkg/tiling"
)

// TileRecord is one row of tiles_<method>.csv
type TileRecord struct {
	Tile      int     `csv:"tile"`
	MinX      int     `csv:"min_x"`
	MinY      int     `csv:"min_y"`
	MaxX      int     `csv:"max_x"`
	MaxY      int     `csv:"max_y"`
	Area      int     `csv:"area"`
	Magnitude float64 `csv:"magnitude"`
	Share     float64 `csv:"share"` // Fraction of the map's luminance mass
}

// CellRecord is one row of cells_<method>.csv
type CellRecord struct {
	I              int     `csv:"i"`
	J              int     `csv:"j"`
	Observations   int64   `csv:"observations"`
	MaxTile        int     `csv:"max_tile"`
	MaxProbability float64 `csv:"max_probability"`
	Entropy        float64 `csv:"entropy"`
	EffectiveTiles float64 `csv:"effective_tiles"` // exp(entropy)
}

// SummaryRecord is one row of summary.csv
type SummaryRecord struct {
	Method          string  `csv:"method"`
	Scene           string  `csv:"scene"`
	Tiles           int     `csv:"tiles"`
	Iterations      int     `csv:"iterations"`
	TotalSamples    int     `csv:"total_samples"`
	RenderTimeMs    float64 `csv:"render_time_ms"`
	LearningTimeMs  float64 `csv:"learning_time_ms"`
	Pilots          int     `csv:"pilots"`
	Recorded        int64   `csv:"recorded"`
	BudgetExhausted bool    `csv:"budget_exhausted"`
	MeanLuminance   float64 `csv:"mean_luminance"`
	RelMSE          float64 `csv:"rel_mse"` // NaN without a reference
}

// OutputManager writes result files into one directory.
// A nil manager writes nothing.
type OutputManager struct {
	dir string
}

// NewOutputManager creates the output directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &OutputManager{dir: dir}, nil
}

// Dir returns the output directory
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Path returns the location of a result file
func (om *OutputManager) Path(name string) string {
	return filepath.Join(om.dir, name)
}

// FileName turns a method name into a file name stem, "AdaptiveSampler-ES" -> "adaptivesampler-es"
func FileName(method string) string {
	return strings.ToLower(strings.ReplaceAll(method, " ", "_"))
}

// WriteConfig saves the effective configuration as YAML
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(om.Path("config.yaml"))
}

// WriteTiles writes the environment partition of one method
func (om *OutputManager) WriteTiles(method string, tiler tiling.Tiler) error {
	if om == nil {
		return nil
	}
	return writeCSV(om.Path("tiles_"+FileName(method)+".csv"), TileRecords(tiler))
}

// WriteCells writes one summary row per light-grid cell of one method
func (om *OutputManager) WriteCells(method string, grid *lightgrid.Cache) error {
	if om == nil {
		return nil
	}
	return writeCSV(om.Path("cells_"+FileName(method)+".csv"), CellRecords(grid))
}

// WriteSummary writes the per-method results
func (om *OutputManager) WriteSummary(records []SummaryRecord) error {
	if om == nil {
		return nil
	}
	return writeCSV(om.Path("summary.csv"), records)
}

func writeCSV[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// TileRecords describes every tile of a partition
func TileRecords(tiler tiling.Tiler) []TileRecord {
	magnitudes := make([]float64, tiler.TileCount())
	for t := range magnitudes {
		magnitudes[t] = tiler.TileMagnitude(t)
	}
	total := 0.0
	for _, m := range magnitudes {
		total += m
	}

	records := make([]TileRecord, 0, len(magnitudes))
	for t, m := range magnitudes {
		bounds := tiler.Bounds(t)
		share := 0.0
		if total > 0 {
			share = m / total
		}
		records = append(records, TileRecord{
			Tile:      t,
			MinX:      bounds.Min.X,
			MinY:      bounds.Min.Y,
			MaxX:      bounds.Max.X,
			MaxY:      bounds.Max.Y,
			Area:      bounds.Area(),
			Magnitude: m,
			Share:     share,
		})
	}
	return records
}

// CellRecords summarizes every cell of a built light grid
func CellRecords(grid *lightgrid.Cache) []CellRecord {
	gridX, gridY := grid.Size()
	records := make([]CellRecord, 0, gridX*gridY)
	for j := 0; j < gridY; j++ {
		for i := 0; i < gridX; i++ {
			records = append(records, CellRecordAt(grid, i, j))
		}
	}
	return records
}

// CellRecordAt summarizes the learned distribution of cell (i, j)
func CellRecordAt(grid *lightgrid.Cache, i, j int) CellRecord {
	probs := grid.Probabilities(i, j)
	record := CellRecord{I: i, J: j}
	for t, p := range probs {
		if p > record.MaxProbability {
			record.MaxProbability = p
			record.MaxTile = t
		}
		// Accumulators start at count 1
		_, n := grid.Accumulator(i, j, t)
		record.Observations += n - 1
	}
	record.Entropy = stat.Entropy(probs)
	record.EffectiveTiles = math.Exp(record.Entropy)
	return record
}
