package stats

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// BenchmarkGraph holds per-round Hawk portion series aggregated across every
// run of a sweep. WriteBenchmarkGraph renders it as a gnuplot-style data
// file, one indexed block per series.
type BenchmarkGraph struct {
	Stage      string    `json:"stage"`
	RoundIndex []int     `json:"round_index"`
	AvgHawk    []float64 `json:"avg_hawk"`
	HawkStd    []float64 `json:"hawk_std"`
	MaxHawk    []float64 `json:"max_hawk"`
	MinHawk    []float64 `json:"min_hawk"`
}

// BuildBenchmarkGraph reads every run series of the sweep back from baseDir
// and folds them into per-round aggregates. Runs shorter than the longest
// series simply stop contributing past their last round.
func BuildBenchmarkGraph(baseDir string, summary BenchmarkSummary) (BenchmarkGraph, error) {
	graph := BenchmarkGraph{Stage: summary.Stage}

	seriesPerRun := make([][]float64, 0, len(summary.RunIDs))
	maxRounds := 0
	for _, runID := range summary.RunIDs {
		series, ok, err := ReadHawkSeries(baseDir, runID)
		if err != nil {
			return BenchmarkGraph{}, err
		}
		if !ok {
			return BenchmarkGraph{}, fmt.Errorf("hawk series not found for run id: %s", runID)
		}
		seriesPerRun = append(seriesPerRun, series)
		if len(series) > maxRounds {
			maxRounds = len(series)
		}
	}

	graph.RoundIndex = make([]int, 0, maxRounds)
	for round := 0; round < maxRounds; round++ {
		graph.RoundIndex = append(graph.RoundIndex, round+1)

		values := make([]float64, 0, len(seriesPerRun))
		for _, series := range seriesPerRun {
			if round < len(series) {
				values = append(values, series[round])
			}
		}

		avg, std := avgStd(values)
		graph.AvgHawk = append(graph.AvgHawk, avg)
		graph.HawkStd = append(graph.HawkStd, std)
		graph.MaxHawk = append(graph.MaxHawk, maxOrZero(values))
		graph.MinHawk = append(graph.MinHawk, minOrZero(values))
	}
	return graph, nil
}

func WriteBenchmarkGraph(baseDir, benchmarkID string, graph BenchmarkGraph) (string, error) {
	if benchmarkID == "" {
		return "", fmt.Errorf("benchmark id is required")
	}
	benchmarkDir := filepath.Join(baseDir, benchmarkID)
	if err := os.MkdirAll(benchmarkDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(benchmarkDir, "graph_hawk_vs_round.txt")
	if err := writeBenchmarkGraphFile(path, graph); err != nil {
		return "", err
	}
	return path, nil
}

func writeBenchmarkGraphFile(path string, graph BenchmarkGraph) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "#Avg Hawk Portion Vs Round, Stage:%s\n", graph.Stage); err != nil {
		return err
	}
	if err := writeSeriesWithStd(file, graph.RoundIndex, graph.AvgHawk, graph.HawkStd); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(file, "\n\n#Max Hawk Portion Vs Round, Stage:%s\n", graph.Stage); err != nil {
		return err
	}
	if err := writeSeries(file, graph.RoundIndex, graph.MaxHawk); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(file, "\n\n#Min Hawk Portion Vs Round, Stage:%s\n", graph.Stage); err != nil {
		return err
	}
	return writeSeries(file, graph.RoundIndex, graph.MinHawk)
}

func writeSeriesWithStd(file *os.File, index []int, values, std []float64) error {
	length := minInt(len(index), minInt(len(values), len(std)))
	for i := 0; i < length; i++ {
		if _, err := fmt.Fprintf(file, "%d %g %g\n", index[i], values[i], std[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeSeries(file *os.File, index []int, values []float64) error {
	length := minInt(len(index), len(values))
	for i := 0; i < length; i++ {
		if _, err := fmt.Fprintf(file, "%d %g\n", index[i], values[i]); err != nil {
			return err
		}
	}
	return nil
}

func avgStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	avg, _ := avgOf(values)
	sum := 0.0
	for _, value := range values {
		diff := avg - value
		sum += diff * diff
	}
	return avg, math.Sqrt(sum / float64(len(values)))
}

func maxOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, value := range values[1:] {
		if value > max {
			max = value
		}
	}
	return max
}

func minOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, value := range values[1:] {
		if value < min {
			min = value
		}
	}
	return min
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
