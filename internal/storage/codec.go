package storage

import (
	"encoding/json"
	"errors"

	"hawkdove/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeAgents(agents []model.AgentRecord) ([]byte, error) {
	return json.Marshal(agents)
}

func DecodeAgents(data []byte) ([]model.AgentRecord, error) {
	var agents []model.AgentRecord
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, err
	}
	for _, agent := range agents {
		if err := checkVersion(agent.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return agents, nil
}

func EncodeHawkHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeHawkHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeRoundDiagnostics(diagnostics []model.RoundDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeRoundDiagnostics(data []byte) ([]model.RoundDiagnostics, error) {
	var diagnostics []model.RoundDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func EncodeEncounters(encounters []model.EncounterRecord) ([]byte, error) {
	return json.Marshal(encounters)
}

func DecodeEncounters(data []byte) ([]model.EncounterRecord, error) {
	var encounters []model.EncounterRecord
	if err := json.Unmarshal(data, &encounters); err != nil {
		return nil, err
	}
	return encounters, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
