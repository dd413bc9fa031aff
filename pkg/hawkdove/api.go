package hawkdove

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"hawkdove/internal/game"
	"hawkdove/internal/history"
	"hawkdove/internal/model"
	"hawkdove/internal/platform"
	"hawkdove/internal/stage"
	"hawkdove/internal/stats"
	"hawkdove/internal/storage"
	"hawkdove/internal/strategy"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "hawkdove.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	RedisAddr    string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store storage.Store
	arena *platform.Arena

	artifactsDir string
	exportsDir   string
}

type DecideRequest struct {
	Stage         string
	AgentID       string
	AgentColor    string
	AgentStrategy string
	OpponentColor string
	Cost          float64
	Reward        float64
	Random        float64

	// Observed opponent-color plays from the previous round. When either
	// count is positive the decision sees a one-round history of that many
	// encounters against the opponent color; when both are zero the
	// decision is history-free.
	OpponentHawkPlays int
	OpponentDovePlays int
}

type RunRequest struct {
	Stage   string
	Rounds  int
	Workers int
	Seed    int64
	Cost    float64
	Reward  float64
	Colors  map[string]int
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	HawkByRound      []float64
	FinalHawkPortion float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Stage            string
	Seed             int64
	Rounds           int
	Agents           int
	Workers          int
	FinalHawkPortion float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type AgentsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type HawkHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type EncountersRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type BenchmarkRequest struct {
	Stage     string
	Rounds    int
	Workers   int
	Seed      int64
	Seeds     []int64
	Runs      int
	Cost      float64
	Reward    float64
	Colors    map[string]int
	Tolerance float64
}

type BenchmarkResult struct {
	BenchmarkID      string
	Directory        string
	GraphPath        string
	RunIDs           []string
	PredictedPortion float64
	PortionMean      float64
	PortionStd       float64
	PortionMin       float64
	PortionMax       float64
	Deviation        float64
	Tolerance        float64
	Passed           bool
}

type StageItem struct {
	Name        string
	Description string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, storage.Options{
		SQLitePath: dbPath,
		RedisAddr:  opts.RedisAddr,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureArena(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	a, err := c.ensureArena(ctx)
	if err != nil {
		return err
	}
	return a.Reset(ctx)
}

func (c *Client) Decide(_ context.Context, req DecideRequest) (string, error) {
	if req.Stage == "" {
		req.Stage = stage.DefaultName
	}
	if req.AgentColor == "" {
		return "", errors.New("agent color is required")
	}
	if req.OpponentColor == "" {
		req.OpponentColor = req.AgentColor
	}
	if req.Cost < 0 || req.Reward < 0 {
		return "", errors.New("payoff parameters must be >= 0")
	}
	if req.Random < 0 || req.Random >= 1 {
		return "", errors.New("random draw must be in [0.0, 1.0)")
	}
	if req.OpponentHawkPlays < 0 || req.OpponentDovePlays < 0 {
		return "", errors.New("observation counts must be >= 0")
	}

	decide, err := stage.Resolve(req.Stage)
	if err != nil {
		return "", err
	}

	agent := game.Agent{ID: req.AgentID, Color: game.Color(req.AgentColor)}
	if req.AgentStrategy != "" {
		move, err := game.ParseStrategy(req.AgentStrategy)
		if err != nil {
			return "", err
		}
		agent.Strategy = &move
	}

	log := history.NewLog()
	if req.OpponentHawkPlays > 0 || req.OpponentDovePlays > 0 {
		challenge := game.DifferentColor
		if req.OpponentColor == req.AgentColor {
			challenge = game.SameColor
		}
		agentMove := game.Dove
		if agent.Strategy != nil {
			agentMove = *agent.Strategy
		}
		total := req.OpponentHawkPlays + req.OpponentDovePlays
		encounters := make([]history.Encounter, 0, total)
		for i := 0; i < total; i++ {
			observedMove := game.Hawk
			if i >= req.OpponentHawkPlays {
				observedMove = game.Dove
			}
			encounters = append(encounters, history.Encounter{
				AgentID:       agent.ID,
				OpponentID:    fmt.Sprintf("observed-%d", i+1),
				AgentColor:    agent.Color,
				OpponentColor: game.Color(req.OpponentColor),
				Challenge:     challenge,
				AgentMove:     agentMove,
				OpponentMove:  observedMove,
			})
		}
		log.RecordRound(encounters)
	}

	move := decide(game.Information{
		Agent:         agent,
		OpponentColor: game.Color(req.OpponentColor),
		Payoffs:       game.PayoffMatrix{Cost: req.Cost, Reward: req.Reward},
		History:       log,
		RandomNumber:  req.Random,
	})
	return move.String(), nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Stage == "" {
		req.Stage = stage.DefaultName
	}
	if req.Rounds <= 0 {
		req.Rounds = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.Cost == 0 && req.Reward == 0 {
		req.Cost = 20
		req.Reward = 10
	}
	if req.Cost < 0 || req.Reward < 0 {
		return RunSummary{}, errors.New("payoff parameters must be >= 0")
	}
	if len(req.Colors) == 0 {
		req.Colors = map[string]int{"red": 20, "blue": 20}
	}

	spec, err := stage.Describe(req.Stage)
	if err != nil {
		return RunSummary{}, err
	}

	a, err := c.ensureArena(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", spec.Name, req.Seed, now.Unix())

	result, err := a.RunSimulation(ctx, platform.RunConfig{
		RunID:   runID,
		Stage:   spec.Name,
		Rounds:  req.Rounds,
		Workers: req.Workers,
		Seed:    req.Seed,
		Cost:    req.Cost,
		Reward:  req.Reward,
		Colors:  req.Colors,
	})
	if err != nil {
		return RunSummary{}, err
	}

	runConfig := stats.RunConfig{
		RunID:   runID,
		Stage:   spec.Name,
		Rounds:  req.Rounds,
		Seed:    req.Seed,
		Workers: req.Workers,
		Cost:    req.Cost,
		Reward:  req.Reward,
		Colors:  req.Colors,
	}
	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config:           runConfig,
		HawkByRound:      result.HawkByRound,
		RoundDiagnostics: result.Diagnostics,
		Agents:           result.Agents,
		FinalHawkPortion: result.FinalHawkPortion,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.WriteHawkSeries(runDir, result.HawkByRound); err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:            runID,
		Stage:            spec.Name,
		Rounds:           req.Rounds,
		Agents:           runConfig.AgentCount(),
		Seed:             req.Seed,
		Workers:          req.Workers,
		FinalHawkPortion: result.FinalHawkPortion,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		HawkByRound:      append([]float64(nil), result.HawkByRound...),
		FinalHawkPortion: result.FinalHawkPortion,
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Stage:            e.Stage,
			Seed:             e.Seed,
			Rounds:           e.Rounds,
			Agents:           e.Agents,
			Workers:          e.Workers,
			FinalHawkPortion: e.FinalHawkPortion,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.RoundDiagnostics, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, errors.New("diagnostics requires run id or latest")
	}

	if _, err := c.ensureArena(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetRoundDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.RoundDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) Agents(ctx context.Context, req AgentsRequest) ([]model.AgentRecord, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, errors.New("agents requires run id or latest")
	}

	if _, err := c.ensureArena(ctx); err != nil {
		return nil, err
	}
	agents, ok, err := c.store.GetAgents(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("agents not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(agents) > req.Limit {
		agents = agents[:req.Limit]
	}
	out := make([]model.AgentRecord, len(agents))
	copy(out, agents)
	return out, nil
}

func (c *Client) HawkHistory(ctx context.Context, req HawkHistoryRequest) ([]float64, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, errors.New("hawk history requires run id or latest")
	}

	if _, err := c.ensureArena(ctx); err != nil {
		return nil, err
	}
	series, ok, err := c.store.GetHawkHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("hawk history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(series) > req.Limit {
		series = series[:req.Limit]
	}
	return append([]float64(nil), series...), nil
}

func (c *Client) Encounters(ctx context.Context, req EncountersRequest) ([]model.EncounterRecord, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, errors.New("encounters requires run id or latest")
	}

	if _, err := c.ensureArena(ctx); err != nil {
		return nil, err
	}
	encounters, ok, err := c.store.GetEncounters(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("encounters not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(encounters) > req.Limit {
		encounters = encounters[:req.Limit]
	}
	out := make([]model.EncounterRecord, len(encounters))
	copy(out, encounters)
	return out, nil
}

func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkResult, error) {
	if req.Stage == "" {
		req.Stage = stage.DefaultName
	}
	if req.Runs <= 0 {
		req.Runs = 5
	}
	if req.Tolerance <= 0 {
		req.Tolerance = 0.05
	}

	spec, err := stage.Describe(req.Stage)
	if err != nil {
		return BenchmarkResult{}, err
	}

	seeds := append([]int64(nil), req.Seeds...)
	if len(seeds) == 0 {
		for i := 0; i < req.Runs; i++ {
			seeds = append(seeds, req.Seed+int64(i))
		}
	}

	runIDs := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		summary, err := c.Run(ctx, RunRequest{
			Stage:   spec.Name,
			Rounds:  req.Rounds,
			Workers: req.Workers,
			Seed:    seed,
			Cost:    req.Cost,
			Reward:  req.Reward,
			Colors:  req.Colors,
		})
		if err != nil {
			return BenchmarkResult{}, err
		}
		runIDs = append(runIDs, summary.RunID)
	}

	benchmarkID := fmt.Sprintf("bench-%s-%d", spec.Name, time.Now().UTC().Unix())
	summary, err := stats.BuildBenchmarkSummary(c.artifactsDir, benchmarkID, runIDs, req.Tolerance)
	if err != nil {
		return BenchmarkResult{}, err
	}
	benchmarkDir, err := stats.WriteBenchmarkSummary(c.artifactsDir, summary)
	if err != nil {
		return BenchmarkResult{}, err
	}
	graph, err := stats.BuildBenchmarkGraph(c.artifactsDir, summary)
	if err != nil {
		return BenchmarkResult{}, err
	}
	graphPath, err := stats.WriteBenchmarkGraph(c.artifactsDir, benchmarkID, graph)
	if err != nil {
		return BenchmarkResult{}, err
	}

	return BenchmarkResult{
		BenchmarkID:      benchmarkID,
		Directory:        filepath.Clean(benchmarkDir),
		GraphPath:        filepath.Clean(graphPath),
		RunIDs:           runIDs,
		PredictedPortion: summary.PredictedPortion,
		PortionMean:      summary.PortionMean,
		PortionStd:       summary.PortionStd,
		PortionMin:       summary.PortionMin,
		PortionMax:       summary.PortionMax,
		Deviation:        summary.Deviation,
		Tolerance:        summary.Tolerance,
		Passed:           summary.Passed,
	}, nil
}

func (c *Client) Stages(_ context.Context) []StageItem {
	specs := stage.Specs()
	out := make([]StageItem, 0, len(specs))
	for _, spec := range specs {
		out = append(out, StageItem{Name: spec.Name, Description: spec.Description})
	}
	return out
}

func (c *Client) Strategies(_ context.Context) []string {
	return strategy.List()
}

func (c *Client) ensureArena(ctx context.Context) (*platform.Arena, error) {
	if c.arena != nil {
		return c.arena, nil
	}
	a := platform.NewArena(platform.Config{Store: c.store})
	if err := a.Init(ctx); err != nil {
		return nil, err
	}
	c.arena = a
	return c.arena, nil
}
