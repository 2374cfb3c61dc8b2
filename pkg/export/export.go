// Package export writes batch reports as CSV, JSON or an HTML chart page.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kilianp07/warehouse-sim/core/scenario"
)

// Supported report formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatHTML = "html"
)

var csvHeader = []string{
	"scenario", "run_id", "rows", "cols", "agents", "tasks", "edge_base_cost",
	"occupancy_cost", "lambda", "seed", "cost", "processed_ticks",
	"idle_arrival_ticks", "operational_ticks", "assignments", "average_path_length",
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WriteJSON writes the report to w in JSON format.
func WriteJSON(w io.Writer, rep scenario.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteCSV writes one row per scenario run.
func WriteCSV(w io.Writer, rep scenario.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range rep.Entries {
		p, r := e.Scenario.Params, e.Result
		rec := []string{
			e.Scenario.Name,
			e.RunID,
			strconv.Itoa(p.Rows),
			strconv.Itoa(p.Cols),
			strconv.Itoa(p.Agents),
			strconv.Itoa(p.Tasks),
			ftoa(p.EdgeBaseCost),
			ftoa(p.OccupancyCost),
			ftoa(p.Lambda),
			strconv.FormatInt(p.Seed, 10),
			ftoa(r.UtilitarianCost),
			strconv.Itoa(r.ProcessedTicks),
			strconv.Itoa(r.IdleArrivalTicks),
			strconv.Itoa(r.OperationalTicks),
			strconv.Itoa(r.Assignments),
			ftoa(r.AveragePathLength),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes the report into dir once per format as report.<format>
// and returns the created paths.
func WriteFiles(dir string, formats []string, rep scenario.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, f := range formats {
		var write func(io.Writer, scenario.Report) error
		switch f {
		case FormatCSV:
			write = WriteCSV
		case FormatJSON:
			write = WriteJSON
		case FormatHTML:
			write = WriteHTML
		default:
			return paths, fmt.Errorf("unknown report format %q", f)
		}
		path := filepath.Join(dir, "report."+f)
		if err := writeFile(path, rep, write); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, rep scenario.Report, write func(io.Writer, scenario.Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, rep); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
