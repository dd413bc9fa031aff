package platform

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hawkdove/internal/game"
	"hawkdove/internal/model"
	"hawkdove/internal/stage"
	"hawkdove/internal/storage"
)

type testSupportModule struct {
	name       string
	startCalls int
	stopCalls  int
	startErr   error
	stopErr    error
	stopReason StopReason
}

func (m *testSupportModule) Name() string { return m.name }

func (m *testSupportModule) Start(context.Context) error {
	m.startCalls++
	return m.startErr
}

func (m *testSupportModule) Stop(context.Context) error {
	m.stopCalls++
	return m.stopErr
}

func (m *testSupportModule) StopWithReason(ctx context.Context, reason StopReason) error {
	m.stopReason = reason
	return m.Stop(ctx)
}

type loopSupportModule struct {
	testSupportModule
	loopCalls    atomic.Int32
	loopFailures int32
}

func (m *loopSupportModule) Run(ctx context.Context) error {
	call := m.loopCalls.Add(1)
	if call <= m.loopFailures {
		return errors.New("loop crash")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestArenaInitAndLifecycle(t *testing.T) {
	a := NewArena(Config{Store: storage.NewMemoryStore()})

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !a.Started() {
		t.Fatal("arena should be started after init")
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("second init should be idempotent: %v", err)
	}

	a.Stop()
	if a.Started() {
		t.Fatal("expected arena stopped after stop call")
	}
	if a.LastStopReason() != StopReasonNormal {
		t.Fatalf("expected stop reason %q, got=%q", StopReasonNormal, a.LastStopReason())
	}

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
	if !a.Started() {
		t.Fatal("expected arena started after re-init")
	}
}

func TestArenaCreateAliasInit(t *testing.T) {
	a := NewArena(Config{Store: storage.NewMemoryStore()})
	if err := a.Create(context.Background()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !a.Started() {
		t.Fatal("arena should be started after create")
	}
}

func TestArenaRequiresStore(t *testing.T) {
	a := NewArena(Config{})
	if err := a.Init(context.Background()); err == nil {
		t.Fatal("expected init without store to fail")
	}
}

func TestArenaInitStartsConfiguredModules(t *testing.T) {
	module := &testSupportModule{name: "metrics"}
	a := NewArena(Config{
		Store:          storage.NewMemoryStore(),
		SupportModules: []SupportModule{module},
	})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if module.startCalls != 1 {
		t.Fatalf("expected support module start call, got=%d", module.startCalls)
	}
	if len(a.ActiveSupportModules()) != 1 || a.ActiveSupportModules()[0] != "metrics" {
		t.Fatalf("unexpected active support modules: %+v", a.ActiveSupportModules())
	}

	a.Stop()
	if module.stopCalls != 1 {
		t.Fatalf("expected support module stop call, got=%d", module.stopCalls)
	}
	if module.stopReason != StopReasonNormal {
		t.Fatalf("expected support module stop reason %q, got=%q", StopReasonNormal, module.stopReason)
	}
	if len(a.ActiveSupportModules()) != 0 {
		t.Fatalf("expected cleared active support modules after stop, got=%+v", a.ActiveSupportModules())
	}
}

func TestArenaInitRollsBackOnSupportModuleStartFailure(t *testing.T) {
	okModule := &testSupportModule{name: "ok"}
	failModule := &testSupportModule{name: "bad", startErr: errors.New("boom")}
	a := NewArena(Config{
		Store:          storage.NewMemoryStore(),
		SupportModules: []SupportModule{okModule, failModule},
	})
	if err := a.Init(context.Background()); err == nil {
		t.Fatal("expected init failure from support module start error")
	}
	if a.Started() {
		t.Fatal("expected arena to remain stopped after failed init")
	}
	if okModule.startCalls != 1 || okModule.stopCalls != 1 {
		t.Fatalf("expected rollback stop for successfully started module, start=%d stop=%d", okModule.startCalls, okModule.stopCalls)
	}
	if failModule.startCalls != 1 {
		t.Fatalf("expected failing module start to be attempted once, got=%d", failModule.startCalls)
	}
	if len(a.ActiveSupportModules()) != 0 {
		t.Fatalf("expected no active support modules after rollback, got=%+v", a.ActiveSupportModules())
	}
}

func TestArenaResetClearsStoreAndRestartsLifecycle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	module := &testSupportModule{name: "metrics"}
	a := NewArena(Config{
		Store:          store,
		SupportModules: []SupportModule{module},
	})
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		ID:              "run-1",
		Stage:           "stage1",
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run before reset: %v", err)
	}

	if err := a.Reset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if !a.Started() {
		t.Fatal("expected arena to be started after reset")
	}
	if module.startCalls != 2 || module.stopCalls != 1 {
		t.Fatalf("expected support module restart around reset, start=%d stop=%d", module.startCalls, module.stopCalls)
	}
	if a.LastStopReason() != StopReasonShutdown {
		t.Fatalf("expected reset stop reason %q, got=%q", StopReasonShutdown, a.LastStopReason())
	}
	if module.stopReason != StopReasonShutdown {
		t.Fatalf("expected support module reset stop reason %q, got=%q", StopReasonShutdown, module.stopReason)
	}
	_, ok, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run after reset: %v", err)
	}
	if ok {
		t.Fatal("expected reset to clear persisted run data")
	}
}

func TestArenaAddAndRemoveSupportModule(t *testing.T) {
	ctx := context.Background()
	module := &testSupportModule{name: "dynamic-metrics"}
	a := NewArena(Config{Store: storage.NewMemoryStore()})

	if err := a.AddSupportModule(ctx, module); err == nil {
		t.Fatal("expected add support module before init to fail")
	}
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := a.AddSupportModule(ctx, module); err != nil {
		t.Fatalf("add support module: %v", err)
	}
	if module.startCalls != 1 {
		t.Fatalf("expected support module start call, got=%d", module.startCalls)
	}
	if len(a.ActiveSupportModules()) != 1 || a.ActiveSupportModules()[0] != "dynamic-metrics" {
		t.Fatalf("expected dynamic support module registration, got=%+v", a.ActiveSupportModules())
	}
	if err := a.AddSupportModule(ctx, module); err == nil {
		t.Fatal("expected duplicate support module add to fail")
	}
	if err := a.RemoveSupportModule(ctx, "dynamic-metrics", StopReasonShutdown); err != nil {
		t.Fatalf("remove support module: %v", err)
	}
	if module.stopCalls != 1 {
		t.Fatalf("expected support module stop call, got=%d", module.stopCalls)
	}
	if module.stopReason != StopReasonShutdown {
		t.Fatalf("expected support module stop reason %q, got=%q", StopReasonShutdown, module.stopReason)
	}
	if len(a.ActiveSupportModules()) != 0 {
		t.Fatalf("expected dynamic support module removal, got=%+v", a.ActiveSupportModules())
	}
	if err := a.RemoveSupportModule(ctx, "dynamic-metrics", StopReasonNormal); err == nil {
		t.Fatal("expected removing missing support module to fail")
	}
}

func TestArenaStopWithReasonRejectsInvalidReason(t *testing.T) {
	a := NewArena(Config{Store: storage.NewMemoryStore()})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := a.StopWithReason(StopReason("bad")); err == nil {
		t.Fatal("expected invalid stop reason to fail")
	}
	if !a.Started() {
		t.Fatal("expected arena to remain started after invalid stop reason")
	}
}

func TestArenaSupervisesBackgroundModule(t *testing.T) {
	module := &loopSupportModule{
		testSupportModule: testSupportModule{name: "pulse"},
		loopFailures:      2,
	}
	a := NewArena(Config{
		Store:          storage.NewMemoryStore(),
		SupportModules: []SupportModule{module},
		Supervision: SupervisorPolicy{
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			BackoffFactor:  1,
		},
	})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if module.startCalls != 1 {
		t.Fatalf("expected support module start call, got=%d", module.startCalls)
	}

	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		if module.loopCalls.Load() >= 3 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if module.loopCalls.Load() < 3 {
		t.Fatalf("expected supervised loop restarts to reach at least 3 calls, got=%d", module.loopCalls.Load())
	}
	statuses := a.SupportModuleStatuses()
	if len(statuses) != 1 || statuses[0].Name != "pulse" {
		t.Fatalf("unexpected supervised statuses: %+v", statuses)
	}
	if statuses[0].Restarts < 2 {
		t.Fatalf("expected at least 2 recorded restarts, got=%d", statuses[0].Restarts)
	}

	a.Stop()
	if module.stopCalls != 1 {
		t.Fatalf("expected support module stop call, got=%d", module.stopCalls)
	}
	if len(a.SupportModuleStatuses()) != 0 {
		t.Fatalf("expected no supervised statuses after stop, got=%+v", a.SupportModuleStatuses())
	}
}

func TestArenaRunSimulationPersistsRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	a := NewArena(Config{Store: store})
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	result, err := a.RunSimulation(ctx, RunConfig{
		Stage:   "stage1",
		Rounds:  5,
		Workers: 2,
		Seed:    1,
		Cost:    9,
		Reward:  3,
		Colors:  map[string]int{"red": 3, "blue": 3},
	})
	if err != nil {
		t.Fatalf("run simulation: %v", err)
	}

	if !strings.HasPrefix(result.RunID, "stage1-1-") {
		t.Fatalf("unexpected default run id: %s", result.RunID)
	}
	if result.Stage != "stage1" {
		t.Fatalf("unexpected stage: %s", result.Stage)
	}
	if len(result.HawkByRound) != 5 {
		t.Fatalf("expected 5 hawk history entries, got %d", len(result.HawkByRound))
	}
	if len(result.Diagnostics) != 5 {
		t.Fatalf("expected 5 round diagnostics, got %d", len(result.Diagnostics))
	}
	if len(result.Agents) != 6 {
		t.Fatalf("expected 6 final agents, got %d", len(result.Agents))
	}
	if len(result.Encounters) != 15 {
		t.Fatalf("expected 15 encounters over 5 rounds, got %d", len(result.Encounters))
	}
	if result.FinalHawkPortion != result.HawkByRound[4] {
		t.Fatalf("final portion mismatch: got=%f want=%f", result.FinalHawkPortion, result.HawkByRound[4])
	}
	if result.CreatedAtUTC == "" {
		t.Fatal("expected run creation timestamp")
	}

	colorCounts := make(map[string]int)
	seen := make(map[string]struct{})
	for _, agent := range result.Agents {
		if agent.ID == "" {
			t.Fatal("expected generated agent id")
		}
		if _, dup := seen[agent.ID]; dup {
			t.Fatalf("duplicate agent id: %s", agent.ID)
		}
		seen[agent.ID] = struct{}{}
		colorCounts[agent.Color]++
		if agent.HawkPlays+agent.DovePlays != 5 {
			t.Fatalf("expected 5 plays per agent, got hawk=%d dove=%d", agent.HawkPlays, agent.DovePlays)
		}
	}
	if colorCounts["red"] != 3 || colorCounts["blue"] != 3 {
		t.Fatalf("unexpected agent color counts: %+v", colorCounts)
	}

	run, ok, err := store.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("load persisted run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run record")
	}
	if run.Stage != "stage1" || run.Rounds != 5 || run.Seed != 1 || run.Workers != 2 {
		t.Fatalf("unexpected persisted run config: %+v", run)
	}
	if run.SchemaVersion != storage.CurrentSchemaVersion || run.CodecVersion != storage.CurrentCodecVersion {
		t.Fatalf("unexpected persisted run versions: %+v", run.VersionedRecord)
	}
	if run.FinalHawkPortion != result.FinalHawkPortion {
		t.Fatalf("persisted final portion mismatch: got=%f want=%f", run.FinalHawkPortion, result.FinalHawkPortion)
	}
	if !reflect.DeepEqual(run.Colors, map[string]int{"red": 3, "blue": 3}) {
		t.Fatalf("unexpected persisted colors: %+v", run.Colors)
	}

	agents, ok, err := store.GetAgents(ctx, result.RunID)
	if err != nil {
		t.Fatalf("load persisted agents: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted agents")
	}
	if !reflect.DeepEqual(agents, result.Agents) {
		t.Fatalf("persisted agents mismatch: got=%+v want=%+v", agents, result.Agents)
	}
	history, ok, err := store.GetHawkHistory(ctx, result.RunID)
	if err != nil {
		t.Fatalf("load persisted history: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted hawk history")
	}
	if !reflect.DeepEqual(history, result.HawkByRound) {
		t.Fatalf("persisted history mismatch: got=%v want=%v", history, result.HawkByRound)
	}
	diagnostics, ok, err := store.GetRoundDiagnostics(ctx, result.RunID)
	if err != nil {
		t.Fatalf("load persisted diagnostics: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted round diagnostics")
	}
	if !reflect.DeepEqual(diagnostics, result.Diagnostics) {
		t.Fatalf("persisted diagnostics mismatch: got=%+v want=%+v", diagnostics, result.Diagnostics)
	}
	encounters, ok, err := store.GetEncounters(ctx, result.RunID)
	if err != nil {
		t.Fatalf("load persisted encounters: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted encounters")
	}
	if !reflect.DeepEqual(encounters, result.Encounters) {
		t.Fatalf("persisted encounters mismatch: got=%+v want=%+v", encounters, result.Encounters)
	}
}

func TestArenaRunSimulationDeterministicForSeed(t *testing.T) {
	ctx := context.Background()
	a := NewArena(Config{Store: storage.NewMemoryStore()})
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg := RunConfig{
		Stage:   "stage3",
		Rounds:  12,
		Workers: 3,
		Seed:    42,
		Cost:    9,
		Reward:  3,
		Colors:  map[string]int{"red": 5, "blue": 5},
	}
	cfg.RunID = "det-a"
	first, err := a.RunSimulation(ctx, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	cfg.RunID = "det-b"
	cfg.Workers = 1
	second, err := a.RunSimulation(ctx, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first.HawkByRound, second.HawkByRound) {
		t.Fatalf("hawk history differs for identical seed: %v vs %v", first.HawkByRound, second.HawkByRound)
	}
	if !reflect.DeepEqual(first.Diagnostics, second.Diagnostics) {
		t.Fatalf("diagnostics differ for identical seed")
	}
}

func TestArenaRunSimulationValidation(t *testing.T) {
	ctx := context.Background()
	a := NewArena(Config{Store: storage.NewMemoryStore()})

	if _, err := a.RunSimulation(ctx, RunConfig{Stage: "stage1", Rounds: 1, Colors: map[string]int{"red": 2}}); err == nil {
		t.Fatal("expected run before init to fail")
	}
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := a.RunSimulation(ctx, RunConfig{Rounds: 1, Colors: map[string]int{"red": 2}}); err == nil {
		t.Fatal("expected missing stage to fail")
	}
	_, err := a.RunSimulation(ctx, RunConfig{Stage: "nope", Rounds: 1, Colors: map[string]int{"red": 2}})
	if !errors.Is(err, stage.ErrStageNotFound) {
		t.Fatalf("expected stage not found error, got: %v", err)
	}
	if _, err := a.RunSimulation(ctx, RunConfig{Stage: "stage1", Rounds: 1, Cost: -1, Colors: map[string]int{"red": 2}}); err == nil {
		t.Fatal("expected negative cost to fail")
	}
	if _, err := a.RunSimulation(ctx, RunConfig{Stage: "stage1", Rounds: 0, Colors: map[string]int{"red": 2}}); err == nil {
		t.Fatal("expected zero rounds to fail")
	}
	if _, err := a.RunSimulation(ctx, RunConfig{Stage: "stage1", Rounds: 1, Colors: map[string]int{"red": 1}}); err == nil {
		t.Fatal("expected single-agent population to fail")
	}
}

func registerSlowStageForTest(t *testing.T) {
	t.Helper()
	err := stage.Register(stage.Spec{
		Name:        "arena-slow",
		Description: "slow decisions for cancellation tests",
		Decide: func(game.Information) game.Strategy {
			time.Sleep(200 * time.Microsecond)
			return game.Dove
		},
	})
	if err != nil && !errors.Is(err, stage.ErrStageExists) {
		t.Fatalf("register slow stage: %v", err)
	}
}

func TestArenaStopRunCancelsActiveRun(t *testing.T) {
	registerSlowStageForTest(t)

	ctx := context.Background()
	store := storage.NewMemoryStore()
	a := NewArena(Config{Store: store})
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID := "slow-run"
	errCh := make(chan error, 1)
	go func() {
		_, err := a.RunSimulation(ctx, RunConfig{
			RunID:  runID,
			Stage:  "arena-slow",
			Rounds: 100000,
			Seed:   7,
			Cost:   9,
			Reward: 3,
			Colors: map[string]int{"red": 4, "blue": 4},
		})
		errCh <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		active := a.ActiveRuns()
		if len(active) == 1 && active[0] == runID {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if err := a.StopRun(runID); err != nil {
		t.Fatalf("stop run: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled run error, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for stopped run to return")
	}

	if err := a.StopRun(runID); err == nil {
		t.Fatal("expected stop on inactive run to fail")
	}
	if len(a.ActiveRuns()) != 0 {
		t.Fatalf("expected no active runs after stop, got=%+v", a.ActiveRuns())
	}
	_, ok, err := store.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("get run after stop: %v", err)
	}
	if ok {
		t.Fatal("expected canceled run to persist nothing")
	}
}

func TestArenaRejectsDuplicateActiveRun(t *testing.T) {
	registerSlowStageForTest(t)

	ctx := context.Background()
	a := NewArena(Config{Store: storage.NewMemoryStore()})
	if err := a.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID := "dup-run"
	errCh := make(chan error, 1)
	go func() {
		_, err := a.RunSimulation(ctx, RunConfig{
			RunID:  runID,
			Stage:  "arena-slow",
			Rounds: 100000,
			Seed:   3,
			Cost:   9,
			Reward: 3,
			Colors: map[string]int{"red": 4, "blue": 4},
		})
		errCh <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(a.ActiveRuns()) == 1 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	if _, err := a.RunSimulation(ctx, RunConfig{
		RunID:  runID,
		Stage:  "stage1",
		Rounds: 1,
		Seed:   3,
		Cost:   9,
		Reward: 3,
		Colors: map[string]int{"red": 2},
	}); err == nil {
		t.Fatal("expected duplicate active run id to fail")
	}

	if err := a.StopRun(runID); err != nil {
		t.Fatalf("stop run: %v", err)
	}
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for stopped run to return")
	}
}

func TestStartDefaultReusesRunningArena(t *testing.T) {
	resetDefaultArenaForTest()
	t.Cleanup(resetDefaultArenaForTest)

	ctx := context.Background()
	first, err := StartDefault(ctx, Config{Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("start default first: %v", err)
	}
	second, err := StartDefault(ctx, Config{Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("start default second: %v", err)
	}
	if first != second {
		t.Fatal("expected second start to reuse running default arena")
	}
	if _, ok := Default(); !ok {
		t.Fatal("expected default arena to be discoverable while running")
	}
	if err := StopDefault(StopReasonNormal); err != nil {
		t.Fatalf("stop default: %v", err)
	}
	if first.Started() {
		t.Fatal("expected default arena instance to be stopped")
	}
	if first.LastStopReason() != StopReasonNormal {
		t.Fatalf("expected default stop reason %q, got=%q", StopReasonNormal, first.LastStopReason())
	}
	if _, ok := Default(); ok {
		t.Fatal("expected no default arena after stop")
	}

	third, err := StartDefault(ctx, Config{Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("start default third: %v", err)
	}
	if third == first {
		t.Fatal("expected restarted default arena to allocate a new instance")
	}
}

func TestStopDefaultRejectsInvalidReason(t *testing.T) {
	resetDefaultArenaForTest()
	t.Cleanup(resetDefaultArenaForTest)

	ctx := context.Background()
	if _, err := StartDefault(ctx, Config{Store: storage.NewMemoryStore()}); err != nil {
		t.Fatalf("start default: %v", err)
	}
	if err := StopDefault(StopReason("bad")); err == nil {
		t.Fatal("expected invalid default stop reason to fail")
	}
	if _, ok := Default(); !ok {
		t.Fatal("expected default arena to remain available after invalid stop reason")
	}
	if err := StopDefault(StopReasonShutdown); err != nil {
		t.Fatalf("stop default shutdown: %v", err)
	}
}

func resetDefaultArenaForTest() {
	defaultArenaMu.Lock()
	a := defaultArena
	defaultArena = nil
	defaultArenaMu.Unlock()
	if a != nil {
		a.Stop()
	}
}
