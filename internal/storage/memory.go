package storage

import (
	"context"
	"sync"

	"hawkdove/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	agents      map[string][]model.AgentRecord
	hawkHistory map[string][]float64
	diagnostics map[string][]model.RoundDiagnostics
	encounters  map[string][]model.EncounterRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.agents = make(map[string][]model.AgentRecord)
	s.hawkHistory = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.RoundDiagnostics)
	s.encounters = make(map[string][]model.EncounterRecord)
	return nil
}

// Reset drops every stored record. The store stays usable afterwards.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.agents = make(map[string][]model.AgentRecord)
	s.hawkHistory = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.RoundDiagnostics)
	s.encounters = make(map[string][]model.EncounterRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := run
	copied.Colors = make(map[string]int, len(run.Colors))
	for color, count := range run.Colors {
		copied.Colors[color] = count
	}
	s.runs[run.ID] = copied
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	copied := run
	copied.Colors = make(map[string]int, len(run.Colors))
	for color, count := range run.Colors {
		copied.Colors[color] = count
	}
	return copied, true, nil
}

func (s *MemoryStore) SaveAgents(_ context.Context, runID string, agents []model.AgentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.AgentRecord, len(agents))
	copy(copied, agents)
	s.agents[runID] = copied
	return nil
}

func (s *MemoryStore) GetAgents(_ context.Context, runID string) ([]model.AgentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents, ok := s.agents[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.AgentRecord, len(agents))
	copy(copied, agents)
	return copied, true, nil
}

func (s *MemoryStore) SaveHawkHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := append([]float64(nil), history...)
	s.hawkHistory[runID] = copied
	return nil
}

func (s *MemoryStore) GetHawkHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.hawkHistory[runID]
	if !ok {
		return nil, false, nil
	}
	copied := append([]float64(nil), history...)
	return copied, true, nil
}

func (s *MemoryStore) SaveRoundDiagnostics(_ context.Context, runID string, diagnostics []model.RoundDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.RoundDiagnostics, 0, len(diagnostics))
	for _, diag := range diagnostics {
		item := diag
		item.Colors = append([]model.ColorDiagnostics(nil), diag.Colors...)
		copied = append(copied, item)
	}
	s.diagnostics[runID] = copied
	return nil
}

func (s *MemoryStore) GetRoundDiagnostics(_ context.Context, runID string) ([]model.RoundDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.RoundDiagnostics, 0, len(diagnostics))
	for _, diag := range diagnostics {
		item := diag
		item.Colors = append([]model.ColorDiagnostics(nil), diag.Colors...)
		copied = append(copied, item)
	}
	return copied, true, nil
}

func (s *MemoryStore) SaveEncounters(_ context.Context, runID string, encounters []model.EncounterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.EncounterRecord, len(encounters))
	copy(copied, encounters)
	s.encounters[runID] = copied
	return nil
}

func (s *MemoryStore) GetEncounters(_ context.Context, runID string) ([]model.EncounterRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	encounters, ok := s.encounters[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.EncounterRecord, len(encounters))
	copy(copied, encounters)
	return copied, true, nil
}
