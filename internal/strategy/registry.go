package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"hawkdove/internal/game"
)

var (
	ErrStrategyExists   = errors.New("strategy already registered")
	ErrStrategyNotFound = errors.New("strategy not found")
)

var strategyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Func
}{
	m: make(map[string]Func),
}

func init() {
	initializeBuiltInStrategies()
}

func initializeBuiltInStrategies() {
	MustRegister("random", RandomChoice)
	MustRegister("nash", NashMixedEquilibrium)
	MustRegister("nash-table", NashFromPayoffTable)
	MustRegister("keep-same", KeepSameStrategy)
	MustRegister("last-encounter", OnLastEncounterWithOpponentColor)
	MustRegister("ev-last-round", HighestExpectedValue(LastRoundColorSource()))
	MustRegister("ev-last-round-different", HighestExpectedValue(LastRoundChallengeSource(game.DifferentColor)))
	MustRegister("ev-agent-color", HighestExpectedValue(AgentColorSource()))
	MustRegister("ev-agent-different", HighestExpectedValue(AgentChallengeSource(game.DifferentColor)))
	MustRegister("mirror-color", MirrorOpponentHawkPortion)
	MustRegister("mirror-population", MirrorPopulationHawkPortion)
}

// Register adds a named decision policy. Names are unique; registering a
// taken name fails with ErrStrategyExists.
func Register(name string, fn Func) error {
	if name == "" {
		return errors.New("strategy name is required")
	}
	if fn == nil {
		return errors.New("strategy function is required")
	}

	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()

	if _, exists := strategyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, name)
	}

	strategyRegistry.m[name] = fn
	return nil
}

// MustRegister is Register that panics on error. Intended for built-in
// wiring at package initialization.
func MustRegister(name string, fn Func) {
	if err := Register(name, fn); err != nil {
		panic(err)
	}
}

// Resolve returns the policy registered under name.
func Resolve(name string) (Func, error) {
	strategyRegistry.mu.RLock()
	fn, ok := strategyRegistry.m[name]
	strategyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	return fn, nil
}

// List returns all registered policy names in sorted order.
func List() []string {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	names := make([]string, 0, len(strategyRegistry.m))
	for name := range strategyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetRegistryForTests() {
	strategyRegistry.mu.Lock()
	strategyRegistry.m = make(map[string]Func)
	strategyRegistry.mu.Unlock()
	initializeBuiltInStrategies()
}
