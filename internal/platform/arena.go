package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hawkdove/internal/game"
	"hawkdove/internal/model"
	"hawkdove/internal/sim"
	"hawkdove/internal/stage"
	"hawkdove/internal/storage"
)

type Config struct {
	Store          storage.Store
	SupportModules []SupportModule
	Supervision    SupervisorPolicy
}

// SupportModule is a named service the arena starts before it accepts
// simulations and stops when it shuts down.
type SupportModule interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// BackgroundRunner marks a support module that also carries a long
// running loop. After Start succeeds the arena keeps the loop alive
// under its supervisor until the module is stopped.
type BackgroundRunner interface {
	Run(ctx context.Context) error
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

// RunConfig describes one simulation the arena should play out.
type RunConfig struct {
	RunID   string
	Stage   string
	Rounds  int
	Workers int
	Seed    int64
	Cost    float64
	Reward  float64
	Colors  map[string]int
}

type RunResult struct {
	RunID            string
	Stage            string
	HawkByRound      []float64
	FinalHawkPortion float64
	Diagnostics      []model.RoundDiagnostics
	Agents           []model.AgentRecord
	Encounters       []model.EncounterRecord
	CreatedAtUTC     string
}

// Arena owns the store and the simulation lifecycle. It resolves stages,
// seeds populations, plays runs through the engine, and persists every
// record a run produces.
type Arena struct {
	store storage.Store

	mu sync.RWMutex

	supportModules map[string]SupportModule
	supervisor     *Supervisor
	started        bool
	lastStopReason StopReason
	runs           map[string]context.CancelFunc

	config Config
}

var (
	defaultArenaMu sync.Mutex
	defaultArena   *Arena
)

func NewArena(cfg Config) *Arena {
	return &Arena{
		store:          cfg.Store,
		supportModules: make(map[string]SupportModule),
		supervisor:     NewSupervisor(cfg.Supervision),
		lastStopReason: StopReasonNormal,
		runs:           make(map[string]context.CancelFunc),
		config:         cfg,
	}
}

// StartDefault initializes the process-wide arena, reusing an already
// running one.
func StartDefault(ctx context.Context, cfg Config) (*Arena, error) {
	defaultArenaMu.Lock()
	defer defaultArenaMu.Unlock()

	if defaultArena != nil && defaultArena.Started() {
		return defaultArena, nil
	}
	a := NewArena(cfg)
	if err := a.Init(ctx); err != nil {
		return nil, err
	}
	defaultArena = a
	return defaultArena, nil
}

func Default() (*Arena, bool) {
	defaultArenaMu.Lock()
	a := defaultArena
	defaultArenaMu.Unlock()
	if a == nil || !a.Started() {
		return nil, false
	}
	return a, true
}

func StopDefault(reason StopReason) error {
	defaultArenaMu.Lock()
	a := defaultArena
	defaultArenaMu.Unlock()
	if a == nil {
		return nil
	}
	if err := a.StopWithReason(reason); err != nil {
		return err
	}
	defaultArenaMu.Lock()
	if defaultArena == a {
		defaultArena = nil
	}
	defaultArenaMu.Unlock()
	return nil
}

func (a *Arena) Init(ctx context.Context) error {
	if a.store == nil {
		return fmt.Errorf("store is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	if err := a.store.Init(ctx); err != nil {
		return err
	}

	started := make([]SupportModule, 0, len(a.config.SupportModules))
	for i, module := range a.config.SupportModules {
		if module == nil {
			a.rollbackModulesLocked(ctx, started)
			return fmt.Errorf("support module is nil at index %d", i)
		}
		name := module.Name()
		if name == "" {
			a.rollbackModulesLocked(ctx, started)
			return fmt.Errorf("support module name is required at index %d", i)
		}
		if _, exists := a.supportModules[name]; exists {
			a.rollbackModulesLocked(ctx, started)
			return fmt.Errorf("duplicate support module: %s", name)
		}
		if err := a.startModuleLocked(ctx, module); err != nil {
			a.rollbackModulesLocked(ctx, started)
			return fmt.Errorf("start support module %s: %w", name, err)
		}
		a.supportModules[name] = module
		started = append(started, module)
	}

	a.started = true
	return nil
}

func (a *Arena) Create(ctx context.Context) error {
	return a.Init(ctx)
}

// Reset stops the arena, clears persisted run state when the store
// supports it, and brings the arena back up.
func (a *Arena) Reset(ctx context.Context) error {
	_ = a.StopWithReason(StopReasonShutdown)
	if resetter, ok := a.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return a.Init(ctx)
}

func (a *Arena) Stop() {
	_ = a.StopWithReason(StopReasonNormal)
}

func (a *Arena) Shutdown() {
	_ = a.StopWithReason(StopReasonShutdown)
}

func (a *Arena) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, cancel := range a.runs {
		cancel()
	}
	a.supervisor.StopAll()
	for _, module := range a.supportModules {
		if withReason, ok := module.(reasonAwareSupportModule); ok {
			_ = withReason.StopWithReason(context.Background(), reason)
		} else {
			_ = module.Stop(context.Background())
		}
	}

	a.started = false
	a.lastStopReason = reason
	a.supportModules = make(map[string]SupportModule)
	a.runs = make(map[string]context.CancelFunc)
	return nil
}

// RunSimulation plays one run to completion and persists its records.
// The caller's context cancels the run; StopRun cancels it by id.
func (a *Arena) RunSimulation(ctx context.Context, cfg RunConfig) (RunResult, error) {
	if cfg.Stage == "" {
		return RunResult{}, fmt.Errorf("stage name is required")
	}
	if cfg.Cost < 0 || cfg.Reward < 0 {
		return RunResult{}, fmt.Errorf("payoff parameters must be >= 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	a.mu.RLock()
	started := a.started
	a.mu.RUnlock()
	if !started {
		return RunResult{}, fmt.Errorf("arena is not initialized")
	}

	spec, err := stage.Describe(cfg.Stage)
	if err != nil {
		return RunResult{}, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s-%d-%d", spec.Name, cfg.Seed, time.Now().UTC().Unix())
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.registerRunControl(runID, cancel); err != nil {
		return RunResult{}, err
	}
	defer a.unregisterRunControl(runID)

	colors := make(map[game.Color]int, len(cfg.Colors))
	for name, count := range cfg.Colors {
		colors[game.Color(name)] = count
	}
	engine, err := sim.NewEngine(sim.Config{
		Decide:  spec.Decide,
		Payoffs: game.PayoffMatrix{Cost: cfg.Cost, Reward: cfg.Reward},
		Colors:  colors,
		Rounds:  cfg.Rounds,
		Workers: cfg.Workers,
		Seed:    cfg.Seed,
	})
	if err != nil {
		return RunResult{}, err
	}

	result, err := engine.Run(runCtx, seedPopulation(cfg.Colors))
	if err != nil {
		return RunResult{}, err
	}

	finalPortion := 0.0
	if len(result.HawkPortionByRound) > 0 {
		finalPortion = result.HawkPortionByRound[len(result.HawkPortionByRound)-1]
	}
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:               runID,
		Stage:            spec.Name,
		Seed:             cfg.Seed,
		Rounds:           cfg.Rounds,
		Workers:          cfg.Workers,
		Cost:             cfg.Cost,
		Reward:           cfg.Reward,
		Colors:           copyColorCounts(cfg.Colors),
		FinalHawkPortion: finalPortion,
		CreatedAtUTC:     createdAt,
	}
	if err := a.store.SaveRun(ctx, record); err != nil {
		return RunResult{}, err
	}
	if err := a.store.SaveAgents(ctx, runID, toAgentRecords(result.FinalAgents)); err != nil {
		return RunResult{}, err
	}
	if err := a.store.SaveHawkHistory(ctx, runID, result.HawkPortionByRound); err != nil {
		return RunResult{}, err
	}
	if err := a.store.SaveRoundDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return RunResult{}, err
	}
	if err := a.store.SaveEncounters(ctx, runID, result.Encounters); err != nil {
		return RunResult{}, err
	}

	return RunResult{
		RunID:            runID,
		Stage:            spec.Name,
		HawkByRound:      result.HawkPortionByRound,
		FinalHawkPortion: finalPortion,
		Diagnostics:      result.Diagnostics,
		Agents:           toAgentRecords(result.FinalAgents),
		Encounters:       result.Encounters,
		CreatedAtUTC:     createdAt,
	}, nil
}

// seedPopulation builds the starting agents in color-sorted order so a
// given seed always meets the same lineup.
func seedPopulation(colors map[string]int) []game.Agent {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	agents := make([]game.Agent, 0)
	for _, name := range names {
		for i := 0; i < colors[name]; i++ {
			agents = append(agents, game.Agent{ID: uuid.NewString(), Color: game.Color(name)})
		}
	}
	return agents
}

func toAgentRecords(agents []sim.AgentResult) []model.AgentRecord {
	out := make([]model.AgentRecord, 0, len(agents))
	for _, agent := range agents {
		record := model.AgentRecord{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: storage.CurrentSchemaVersion,
				CodecVersion:  storage.CurrentCodecVersion,
			},
			ID:        agent.Agent.ID,
			Color:     string(agent.Agent.Color),
			Score:     agent.Score,
			HawkPlays: agent.HawkPlays,
			DovePlays: agent.DovePlays,
		}
		if agent.Agent.Strategy != nil {
			record.Strategy = agent.Agent.Strategy.String()
		}
		out = append(out, record)
	}
	return out
}

func copyColorCounts(colors map[string]int) map[string]int {
	out := make(map[string]int, len(colors))
	for name, count := range colors {
		out[name] = count
	}
	return out
}

// StopRun cancels an in-flight run by id.
func (a *Arena) StopRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	a.mu.RLock()
	cancel, ok := a.runs[runID]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	cancel()
	return nil
}

func (a *Arena) registerRunControl(runID string, cancel context.CancelFunc) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return fmt.Errorf("arena is not initialized")
	}
	if _, exists := a.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	a.runs[runID] = cancel
	return nil
}

func (a *Arena) unregisterRunControl(runID string) {
	if runID == "" {
		return
	}
	a.mu.Lock()
	delete(a.runs, runID)
	a.mu.Unlock()
}

func (a *Arena) AddSupportModule(ctx context.Context, module SupportModule) error {
	if module == nil {
		return fmt.Errorf("support module is nil")
	}
	name := module.Name()
	if name == "" {
		return fmt.Errorf("support module name is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return fmt.Errorf("arena is not initialized")
	}
	if _, exists := a.supportModules[name]; exists {
		return fmt.Errorf("duplicate support module: %s", name)
	}
	if err := a.startModuleLocked(ctx, module); err != nil {
		return fmt.Errorf("start support module %s: %w", name, err)
	}
	a.supportModules[name] = module
	return nil
}

func (a *Arena) RemoveSupportModule(ctx context.Context, name string, reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	module, ok := a.supportModules[name]
	if !ok {
		return fmt.Errorf("support module not active: %s", name)
	}
	a.stopModuleLocked(ctx, module, reason)
	delete(a.supportModules, name)
	return nil
}

func (a *Arena) startModuleLocked(ctx context.Context, module SupportModule) error {
	if err := module.Start(ctx); err != nil {
		return err
	}
	if runner, ok := module.(BackgroundRunner); ok {
		if err := a.supervisor.Start(module.Name(), runner.Run); err != nil {
			_ = module.Stop(ctx)
			return err
		}
	}
	return nil
}

func (a *Arena) stopModuleLocked(ctx context.Context, module SupportModule, reason StopReason) {
	if _, ok := module.(BackgroundRunner); ok {
		a.supervisor.Stop(module.Name())
	}
	if withReason, ok := module.(reasonAwareSupportModule); ok {
		_ = withReason.StopWithReason(ctx, reason)
		return
	}
	_ = module.Stop(ctx)
}

func (a *Arena) rollbackModulesLocked(ctx context.Context, started []SupportModule) {
	for i := len(started) - 1; i >= 0; i-- {
		a.stopModuleLocked(ctx, started[i], StopReasonNormal)
	}
	a.supportModules = make(map[string]SupportModule)
}

func (a *Arena) ActiveRuns() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.runs))
	for name := range a.runs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Arena) ActiveSupportModules() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.supportModules))
	for name := range a.supportModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportModuleStatuses reports the supervised loop state for modules
// that carry one.
func (a *Arena) SupportModuleStatuses() []TaskStatus {
	return a.supervisor.Statuses()
}

func (a *Arena) Started() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.started
}

func (a *Arena) LastStopReason() StopReason {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastStopReason
}

type reasonAwareSupportModule interface {
	SupportModule
	StopWithReason(ctx context.Context, reason StopReason) error
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}
