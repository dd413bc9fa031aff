package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"hawkdove/internal/platform"
	"hawkdove/internal/stats"
	"hawkdove/internal/storage"
	hdapi "hawkdove/pkg/hawkdove"
)

const (
	artifactsDir = "artifacts"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "decide":
		return runDecide(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "stages":
		return runStages(ctx, args[1:])
	case "strategies":
		return runStrategies(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "agents":
		return runAgents(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "encounters":
		return runEncounters(ctx, args[1:])
	case "report":
		return runReport(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, storage.Options{SQLitePath: *dbPath, RedisAddr: *redisAddr})
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	arena := platform.NewArena(platform.Config{Store: store})
	if err := arena.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, storage.Options{SQLitePath: *dbPath, RedisAddr: *redisAddr})
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	arena := platform.NewArena(platform.Config{Store: store})
	if err := arena.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config YAML/JSON path")
	stageName := fs.String("stage", "stage1", "decision stage name")
	rounds := fs.Int("rounds", 100, "round count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count")
	cost := fs.Float64("cost", 20, "hawk-hawk conflict cost")
	reward := fs.Float64("reward", 10, "contested resource value")
	colorsFlag := fs.String("colors", "red=20,blue=20", "color populations as name=count pairs")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	colors, err := parseColors(*colorsFlag)
	if err != nil {
		return err
	}

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = hdapi.RunRequest{
			Stage:   *stageName,
			Rounds:  *rounds,
			Workers: *workers,
			Seed:    *seed,
			Cost:    *cost,
			Reward:  *reward,
			Colors:  colors,
		}
	} else {
		err := overrideFromFlags(&req, setFlags, map[string]any{
			"stage":   *stageName,
			"rounds":  *rounds,
			"workers": *workers,
			"seed":    *seed,
			"cost":    *cost,
			"reward":  *reward,
			"colors":  colors,
		})
		if err != nil {
			return err
		}
	}

	client, err := hdapi.New(hdapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		RedisAddr:    *redisAddr,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s stage=%s rounds=%d seed=%d\n", summary.RunID, req.Stage, req.Rounds, req.Seed)
	for i, portion := range summary.HawkByRound {
		fmt.Printf("round=%d hawk_portion=%.6f\n", i+1, portion)
	}
	fmt.Printf("final_hawk_portion=%.6f\n", summary.FinalHawkPortion)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runDecide(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	stageName := fs.String("stage", "stage1", "decision stage name")
	agentID := fs.String("agent-id", "", "agent id (optional)")
	agentColor := fs.String("color", "", "agent color")
	agentStrategy := fs.String("strategy", "", "agent's prior move: hawk|dove (optional)")
	opponentColor := fs.String("opponent-color", "", "opponent color (defaults to agent color)")
	cost := fs.Float64("cost", 20, "hawk-hawk conflict cost")
	reward := fs.Float64("reward", 10, "contested resource value")
	random := fs.Float64("random", -1, "random draw in [0.0, 1.0) (negative draws one)")
	opponentHawks := fs.Int("opponent-hawks", 0, "observed opponent-color hawk plays in the previous round")
	opponentDoves := fs.Int("opponent-doves", 0, "observed opponent-color dove plays in the previous round")
	jsonOut := fs.Bool("json", false, "emit decision as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *agentColor == "" {
		return errors.New("decide requires --color")
	}
	draw := *random
	if draw < 0 {
		draw = rand.New(rand.NewSource(time.Now().UnixNano())).Float64()
	}
	opponent := *opponentColor
	if opponent == "" {
		opponent = *agentColor
	}

	client, err := hdapi.New(hdapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	move, err := client.Decide(ctx, hdapi.DecideRequest{
		Stage:             *stageName,
		AgentID:           *agentID,
		AgentColor:        *agentColor,
		AgentStrategy:     *agentStrategy,
		OpponentColor:     opponent,
		Cost:              *cost,
		Reward:            *reward,
		Random:            draw,
		OpponentHawkPlays: *opponentHawks,
		OpponentDovePlays: *opponentDoves,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		type decisionItem struct {
			Stage         string  `json:"stage"`
			AgentColor    string  `json:"agent_color"`
			OpponentColor string  `json:"opponent_color"`
			Random        float64 `json:"random"`
			Move          string  `json:"move"`
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(decisionItem{
			Stage:         *stageName,
			AgentColor:    *agentColor,
			OpponentColor: opponent,
			Random:        draw,
			Move:          move,
		})
	}
	fmt.Printf("decision stage=%s color=%s opponent_color=%s random=%.6f move=%s\n", *stageName, *agentColor, opponent, draw, move)
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	stageName := fs.String("stage", "stage1", "decision stage name")
	rounds := fs.Int("rounds", 100, "round count per run")
	runsCount := fs.Int("runs", 5, "number of seeded runs")
	seed := fs.Int64("seed", 1, "base rng seed (runs use seed..seed+runs-1)")
	seedsFlag := fs.String("seeds", "", "comma-separated explicit seeds (overrides --runs)")
	workers := fs.Int("workers", 4, "worker count")
	cost := fs.Float64("cost", 20, "hawk-hawk conflict cost")
	reward := fs.Float64("reward", 10, "contested resource value")
	colorsFlag := fs.String("colors", "red=20,blue=20", "color populations as name=count pairs")
	tolerance := fs.Float64("tolerance", 0.05, "max deviation of the mean final portion from the equilibrium")
	jsonOut := fs.Bool("json", false, "emit benchmark result as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	colors, err := parseColors(*colorsFlag)
	if err != nil {
		return err
	}
	seeds, err := parseSeeds(*seedsFlag)
	if err != nil {
		return err
	}

	client, err := hdapi.New(hdapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		RedisAddr:    *redisAddr,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := client.Benchmark(ctx, hdapi.BenchmarkRequest{
		Stage:     *stageName,
		Rounds:    *rounds,
		Workers:   *workers,
		Seed:      *seed,
		Seeds:     seeds,
		Runs:      *runsCount,
		Cost:      *cost,
		Reward:    *reward,
		Colors:    colors,
		Tolerance: *tolerance,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		type benchmarkItem struct {
			BenchmarkID      string   `json:"benchmark_id"`
			Stage            string   `json:"stage"`
			RunIDs           []string `json:"run_ids"`
			PredictedPortion float64  `json:"predicted_portion"`
			PortionMean      float64  `json:"portion_mean"`
			PortionStd       float64  `json:"portion_std"`
			PortionMin       float64  `json:"portion_min"`
			PortionMax       float64  `json:"portion_max"`
			Deviation        float64  `json:"deviation"`
			Tolerance        float64  `json:"tolerance"`
			Passed           bool     `json:"passed"`
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(benchmarkItem{
			BenchmarkID:      result.BenchmarkID,
			Stage:            *stageName,
			RunIDs:           result.RunIDs,
			PredictedPortion: result.PredictedPortion,
			PortionMean:      result.PortionMean,
			PortionStd:       result.PortionStd,
			PortionMin:       result.PortionMin,
			PortionMax:       result.PortionMax,
			Deviation:        result.Deviation,
			Tolerance:        result.Tolerance,
			Passed:           result.Passed,
		})
	}

	fmt.Printf("benchmark id=%s stage=%s runs=%d predicted=%.6f mean=%.6f std=%.6f min=%.6f max=%.6f deviation=%.6f tolerance=%.6f passed=%t\n",
		result.BenchmarkID,
		*stageName,
		len(result.RunIDs),
		result.PredictedPortion,
		result.PortionMean,
		result.PortionStd,
		result.PortionMin,
		result.PortionMax,
		result.Deviation,
		result.Tolerance,
		result.Passed,
	)
	for _, id := range result.RunIDs {
		fmt.Printf("benchmark_run run_id=%s\n", id)
	}
	fmt.Printf("benchmark_summary=%s\n", filepath.Join(result.Directory, "benchmark_summary.json"))
	fmt.Printf("benchmark_graph=%s\n", result.GraphPath)
	return nil
}

func runRuns(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	entries, err := stats.ListRunIndex(artifactsDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if len(entries) > *limit {
		entries = entries[:*limit]
	}
	if *jsonOut {
		type runsItem struct {
			RunID            string  `json:"run_id"`
			CreatedAtUTC     string  `json:"created_at_utc"`
			Stage            string  `json:"stage"`
			Seed             int64   `json:"seed"`
			Rounds           int     `json:"rounds"`
			Agents           int     `json:"agents"`
			Workers          int     `json:"workers"`
			FinalHawkPortion float64 `json:"final_hawk_portion"`
		}
		items := make([]runsItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, runsItem{
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
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, e := range entries {
		fmt.Printf("run_id=%s created_at=%s stage=%s seed=%d rounds=%d agents=%d workers=%d final_hawk_portion=%.6f\n",
			e.RunID,
			e.CreatedAtUTC,
			e.Stage,
			e.Seed,
			e.Rounds,
			e.Agents,
			e.Workers,
			e.FinalHawkPortion,
		)
	}
	return nil
}

func runStages(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stages", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit stages as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := hdapi.New(hdapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	stages := client.Stages(ctx)
	if *jsonOut {
		type stageItem struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		items := make([]stageItem, 0, len(stages))
		for _, s := range stages {
			items = append(items, stageItem{Name: s.Name, Description: s.Description})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	for _, s := range stages {
		fmt.Printf("stage=%s description=%s\n", s.Name, s.Description)
	}
	return nil
}

func runStrategies(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("strategies", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit strategies as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := hdapi.New(hdapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	names := client.Strategies(ctx)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}
	for _, name := range names {
		fmt.Printf("strategy=%s\n", name)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run from run index")
	limit := fs.Int("limit", 50, "max rounds to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("diagnostics requires --run-id or --latest")
	}

	client, err := hdapi.New(hdapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		RedisAddr:    *redisAddr,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, hdapi.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("round=%d encounters=%d hawk_plays=%d dove_plays=%d hawk_portion=%.6f mean_payoff=%.6f\n",
			d.Round,
			d.Encounters,
			d.HawkPlays,
			d.DovePlays,
			d.HawkPortion,
			d.MeanPayoff,
		)
		for _, c := range d.Colors {
			fmt.Printf("color=%s hawk_plays=%d dove_plays=%d hawk_portion=%.6f mean_payoff=%.6f\n",
				c.Color,
				c.HawkPlays,
				c.DovePlays,
				c.HawkPortion,
				c.MeanPayoff,
			)
		}
	}
	return nil
}

func runAgents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("agents", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show agents for the most recent run from run index")
	limit := fs.Int("limit", 20, "max agents to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit agents as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("agents requires --run-id or --latest")
	}

	client, err := hdapi.New(hdapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		RedisAddr:    *redisAddr,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	agents, err := client.Agents(ctx, hdapi.AgentsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("no agents")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(agents)
	}

	for _, agent := range agents {
		fmt.Printf("agent_id=%s color=%s strategy=%s score=%.2f hawk_plays=%d dove_plays=%d\n",
			agent.ID,
			agent.Color,
			agent.Strategy,
			agent.Score,
			agent.HawkPlays,
			agent.DovePlays,
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show hawk history for the most recent run from run index")
	limit := fs.Int("limit", 50, "max rounds to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit hawk history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("history requires --run-id or --latest")
	}

	client, err := hdapi.New(hdapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		RedisAddr:    *redisAddr,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	series, err := client.HawkHistory(ctx, hdapi.HawkHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(series) == 0 {
		fmt.Println("no hawk history")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(series)
	}

	for i, portion := range series {
		fmt.Printf("round=%d hawk_portion=%.6f\n", i+1, portion)
	}
	return nil
}

func runEncounters(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("encounters", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show encounters for the most recent run from run index")
	limit := fs.Int("limit", 50, "max encounters to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit encounters as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|redis")
	dbPath := fs.String("db-path", "hawkdove.db", "sqlite database path")
	redisAddr := fs.String("redis-addr", "", "redis address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("encounters requires --run-id or --latest")
	}

	client, err := hdapi.New(hdapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		RedisAddr:    *redisAddr,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	encounters, err := client.Encounters(ctx, hdapi.EncountersRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(encounters) == 0 {
		fmt.Println("no encounters")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(encounters)
	}

	for _, e := range encounters {
		fmt.Printf("round=%d agent=%s opponent=%s challenge=%s agent_move=%s opponent_move=%s agent_payoff=%.2f opponent_payoff=%.2f\n",
			e.Round,
			e.AgentID,
			e.OpponentID,
			e.ChallengeType,
			e.AgentMove,
			e.OpponentMove,
			e.AgentPayoff,
			e.OpponentPayoff,
		)
	}
	return nil
}

func runExport(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}
	if *latest {
		entries, err := stats.ListRunIndex(artifactsDir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("no runs available to export")
		}
		*runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(artifactsDir, *runID, *outDir)
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", *runID, filepath.Clean(exportedDir))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: hawkdovectl <init|reset|run|decide|benchmark|runs|stages|strategies|diagnostics|agents|history|encounters|report|export> [flags]", msg)
}
