package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"hawkdove/internal/game"
)

// BenchmarkSummary aggregates a seed sweep of otherwise identical runs and
// compares the observed final Hawk portions against the mixed-equilibrium
// prediction for the run's payoff matrix.
type BenchmarkSummary struct {
	BenchmarkID      string    `json:"benchmark_id"`
	Stage            string    `json:"stage"`
	Rounds           int       `json:"rounds"`
	Agents           int       `json:"agents"`
	Cost             float64   `json:"cost"`
	Reward           float64   `json:"reward"`
	Seeds            []int64   `json:"seeds"`
	RunIDs           []string  `json:"run_ids"`
	FinalPortions    []float64 `json:"final_portions"`
	PredictedPortion float64   `json:"predicted_portion"`
	PortionMean      float64   `json:"portion_mean"`
	PortionStd       float64   `json:"portion_std"`
	PortionMin       float64   `json:"portion_min"`
	PortionMax       float64   `json:"portion_max"`
	Deviation        float64   `json:"deviation"`
	Tolerance        float64   `json:"tolerance"`
	Passed           bool      `json:"passed"`
	CreatedAtUTC     string    `json:"created_at_utc,omitempty"`
}

// BuildBenchmarkSummary reads the artifacts of every run in the sweep back
// from baseDir and folds their final Hawk portions into one summary. The
// deviation of the sweep mean from the predicted portion decides pass/fail.
func BuildBenchmarkSummary(baseDir, benchmarkID string, runIDs []string, tolerance float64) (BenchmarkSummary, error) {
	if benchmarkID == "" {
		return BenchmarkSummary{}, fmt.Errorf("benchmark id is required")
	}
	if len(runIDs) == 0 {
		return BenchmarkSummary{}, fmt.Errorf("at least one run id is required")
	}

	summary := BenchmarkSummary{
		BenchmarkID:   benchmarkID,
		Seeds:         make([]int64, 0, len(runIDs)),
		RunIDs:        make([]string, 0, len(runIDs)),
		FinalPortions: make([]float64, 0, len(runIDs)),
		Tolerance:     tolerance,
	}
	for i, runID := range runIDs {
		cfg, ok, err := ReadRunConfig(baseDir, runID)
		if err != nil {
			return BenchmarkSummary{}, err
		}
		if !ok {
			return BenchmarkSummary{}, fmt.Errorf("run config not found for run id: %s", runID)
		}
		series, ok, err := ReadHawkSeries(baseDir, runID)
		if err != nil {
			return BenchmarkSummary{}, err
		}
		if !ok {
			return BenchmarkSummary{}, fmt.Errorf("hawk series not found for run id: %s", runID)
		}
		if len(series) == 0 {
			return BenchmarkSummary{}, fmt.Errorf("hawk series is empty for run id: %s", runID)
		}

		if i == 0 {
			summary.Stage = cfg.Stage
			summary.Rounds = cfg.Rounds
			summary.Agents = cfg.AgentCount()
			summary.Cost = cfg.Cost
			summary.Reward = cfg.Reward
		}
		summary.Seeds = append(summary.Seeds, cfg.Seed)
		summary.RunIDs = append(summary.RunIDs, runID)
		summary.FinalPortions = append(summary.FinalPortions, series[len(series)-1])
	}

	payoffs := game.PayoffMatrix{Cost: summary.Cost, Reward: summary.Reward}
	summary.PredictedPortion = payoffs.HawkEquilibrium()

	summary.PortionMean, _ = avgOf(summary.FinalPortions)
	summary.PortionStd, _ = stdOf(summary.FinalPortions)
	summary.PortionMin = summary.FinalPortions[0]
	summary.PortionMax = summary.FinalPortions[0]
	for _, portion := range summary.FinalPortions[1:] {
		if portion < summary.PortionMin {
			summary.PortionMin = portion
		}
		if portion > summary.PortionMax {
			summary.PortionMax = portion
		}
	}
	summary.Deviation = math.Abs(summary.PortionMean - summary.PredictedPortion)
	summary.Passed = summary.Deviation <= summary.Tolerance
	return summary, nil
}

func WriteBenchmarkSummary(baseDir string, summary BenchmarkSummary) (string, error) {
	if summary.BenchmarkID == "" {
		return "", fmt.Errorf("benchmark id is required")
	}
	if summary.CreatedAtUTC == "" {
		summary.CreatedAtUTC = time.Now().UTC().Format(time.RFC3339Nano)
	}
	benchmarkDir := filepath.Join(baseDir, summary.BenchmarkID)
	if err := os.MkdirAll(benchmarkDir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(benchmarkDir, "benchmark_summary.json"), summary); err != nil {
		return "", err
	}
	return benchmarkDir, nil
}

// ListBenchmarkSummaries scans baseDir for benchmark directories and returns
// their summaries newest-first. Plain run directories carry no
// benchmark_summary.json and are skipped.
func ListBenchmarkSummaries(baseDir string) ([]BenchmarkSummary, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BenchmarkSummary{}, nil
		}
		return nil, err
	}

	summaries := make([]BenchmarkSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		summary, ok, err := ReadBenchmarkSummary(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		switch {
		case summaries[i].CreatedAtUTC == summaries[j].CreatedAtUTC:
			return summaries[i].BenchmarkID < summaries[j].BenchmarkID
		case summaries[i].CreatedAtUTC == "":
			return false
		case summaries[j].CreatedAtUTC == "":
			return true
		default:
			return summaries[i].CreatedAtUTC > summaries[j].CreatedAtUTC
		}
	})
	return summaries, nil
}

func ReadBenchmarkSummary(baseDir, benchmarkID string) (BenchmarkSummary, bool, error) {
	path := filepath.Join(baseDir, benchmarkID, "benchmark_summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BenchmarkSummary{}, false, nil
		}
		return BenchmarkSummary{}, false, err
	}
	var summary BenchmarkSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return BenchmarkSummary{}, false, err
	}
	return summary, true, nil
}

func avgOf(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("values must not be empty")
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values)), nil
}

// stdOf returns population standard deviation.
func stdOf(values []float64) (float64, error) {
	mean, err := avgOf(values)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, value := range values {
		diff := mean - value
		sum += diff * diff
	}
	return math.Sqrt(sum/float64(len(values))), nil
}
