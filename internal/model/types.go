package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type AgentRecord struct {
	VersionedRecord
	ID        string  `json:"id"`
	Color     string  `json:"color"`
	Strategy  string  `json:"strategy,omitempty"`
	Score     float64 `json:"score"`
	HawkPlays int     `json:"hawk_plays"`
	DovePlays int     `json:"dove_plays"`
}

type EncounterRecord struct {
	Round          int     `json:"round"`
	AgentID        string  `json:"agent_id"`
	OpponentID     string  `json:"opponent_id"`
	AgentColor     string  `json:"agent_color"`
	OpponentColor  string  `json:"opponent_color"`
	ChallengeType  string  `json:"challenge_type"`
	AgentMove      string  `json:"agent_move"`
	OpponentMove   string  `json:"opponent_move"`
	AgentPayoff    float64 `json:"agent_payoff"`
	OpponentPayoff float64 `json:"opponent_payoff"`
}

type ColorDiagnostics struct {
	Color       string  `json:"color"`
	HawkPlays   int     `json:"hawk_plays"`
	DovePlays   int     `json:"dove_plays"`
	HawkPortion float64 `json:"hawk_portion"`
	MeanPayoff  float64 `json:"mean_payoff"`
}

type RoundDiagnostics struct {
	Round       int                `json:"round"`
	Encounters  int                `json:"encounters"`
	HawkPlays   int                `json:"hawk_plays"`
	DovePlays   int                `json:"dove_plays"`
	HawkPortion float64            `json:"hawk_portion"`
	MeanPayoff  float64            `json:"mean_payoff"`
	Colors      []ColorDiagnostics `json:"colors,omitempty"`
}

type RunRecord struct {
	VersionedRecord
	ID               string         `json:"id"`
	Stage            string         `json:"stage"`
	Seed             int64          `json:"seed"`
	Rounds           int            `json:"rounds"`
	Workers          int            `json:"workers"`
	Cost             float64        `json:"cost"`
	Reward           float64        `json:"reward"`
	Colors           map[string]int `json:"colors"`
	FinalHawkPortion float64        `json:"final_hawk_portion"`
	CreatedAtUTC     string         `json:"created_at_utc"`
}
