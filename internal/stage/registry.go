// Package stage catalogs the named simulation phases. A stage is a
// fully wired decision policy, usually a three-slot composite, published
// under a stable name so drivers select behavior by configuration
// instead of code changes.
package stage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"hawkdove/internal/strategy"
)

var (
	ErrStageExists   = errors.New("stage already registered")
	ErrStageNotFound = errors.New("stage not found")
)

// Spec describes one registered stage.
type Spec struct {
	Name        string
	Description string
	Decide      strategy.Func
}

var stageRegistry = struct {
	mu sync.RWMutex
	m  map[string]Spec
}{
	m: make(map[string]Spec),
}

func init() {
	initializeBuiltInStages()
}

// Register adds a stage under its normalized name.
func Register(spec Spec) error {
	name := Normalize(spec.Name)
	if name == "" {
		return errors.New("stage name is required")
	}
	if spec.Decide == nil {
		return errors.New("stage decision function is required")
	}

	stageRegistry.mu.Lock()
	defer stageRegistry.mu.Unlock()

	if _, exists := stageRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrStageExists, name)
	}

	spec.Name = name
	stageRegistry.m[name] = spec
	return nil
}

// MustRegister is Register that panics on error. Intended for built-in
// wiring at package initialization.
func MustRegister(spec Spec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

// Resolve returns the decision function registered under name or any of
// its aliases.
func Resolve(name string) (strategy.Func, error) {
	spec, err := Describe(name)
	if err != nil {
		return nil, err
	}
	return spec.Decide, nil
}

// Describe returns the full stage spec for name or any of its aliases.
func Describe(name string) (Spec, error) {
	normalized := Normalize(name)

	stageRegistry.mu.RLock()
	spec, ok := stageRegistry.m[normalized]
	stageRegistry.mu.RUnlock()

	if !ok {
		return Spec{}, fmt.Errorf("%w: %s (available: %s)", ErrStageNotFound, name, strings.Join(List(), ", "))
	}
	return spec, nil
}

// List returns all registered stage names in sorted order.
func List() []string {
	stageRegistry.mu.RLock()
	defer stageRegistry.mu.RUnlock()

	names := make([]string, 0, len(stageRegistry.m))
	for name := range stageRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns all registered stages sorted by name.
func Specs() []Spec {
	stageRegistry.mu.RLock()
	defer stageRegistry.mu.RUnlock()

	specs := make([]Spec, 0, len(stageRegistry.m))
	for _, spec := range stageRegistry.m {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

func resetRegistryForTests() {
	stageRegistry.mu.Lock()
	stageRegistry.m = make(map[string]Spec)
	stageRegistry.mu.Unlock()
	initializeBuiltInStages()
}
