package storage

import (
	"context"

	"hawkdove/internal/model"
)

// Store defines persistence operations for simulation run entities.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	SaveAgents(ctx context.Context, runID string, agents []model.AgentRecord) error
	GetAgents(ctx context.Context, runID string) ([]model.AgentRecord, bool, error)
	SaveHawkHistory(ctx context.Context, runID string, history []float64) error
	GetHawkHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveRoundDiagnostics(ctx context.Context, runID string, diagnostics []model.RoundDiagnostics) error
	GetRoundDiagnostics(ctx context.Context, runID string) ([]model.RoundDiagnostics, bool, error)
	SaveEncounters(ctx context.Context, runID string, encounters []model.EncounterRecord) error
	GetEncounters(ctx context.Context, runID string) ([]model.EncounterRecord, bool, error)
}

// Resetter is implemented by stores that can drop all persisted run state.
type Resetter interface {
	Reset(ctx context.Context) error
}
