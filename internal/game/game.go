// Package game defines the Hawk-Dove vocabulary shared by the decision
// engine and its collaborators: moves, colors, challenge types, payoffs,
// and the per-decision information bundle.
package game

import "fmt"

type Strategy int

const (
	Hawk Strategy = iota
	Dove
)

func (s Strategy) String() string {
	switch s {
	case Hawk:
		return "hawk"
	case Dove:
		return "dove"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "hawk":
		return Hawk, nil
	case "dove":
		return Dove, nil
	default:
		return 0, fmt.Errorf("unknown strategy: %s", name)
	}
}

// Color partitions the agent population into segments. Opaque and
// equality-comparable; the engine never interprets its contents.
type Color string

type ChallengeType int

const (
	SameColor ChallengeType = iota
	DifferentColor
)

func (c ChallengeType) String() string {
	switch c {
	case SameColor:
		return "same_color"
	case DifferentColor:
		return "different_color"
	default:
		return fmt.Sprintf("challenge(%d)", int(c))
	}
}

func ParseChallengeType(name string) (ChallengeType, error) {
	switch name {
	case "same_color":
		return SameColor, nil
	case "different_color":
		return DifferentColor, nil
	default:
		return 0, fmt.Errorf("unknown challenge type: %s", name)
	}
}

// Agent is the decision-time view of one population member. Strategy is
// nil until the agent has played its first round. The driver mutates
// agents between rounds; decision functions only read them.
type Agent struct {
	ID       string
	Color    Color
	Strategy *Strategy
}

// StrategyStats aggregates observed Hawk and Dove plays over some scope.
// Portions are derived at construction; a zero-observation scope yields
// both portions 0.0 so downstream expected values degrade to zero instead
// of NaN.
type StrategyStats struct {
	HawkN       int
	DoveN       int
	HawkPortion float64
	DovePortion float64
}

func NewStrategyStats(hawkN, doveN int) StrategyStats {
	stats := StrategyStats{HawkN: hawkN, DoveN: doveN}
	total := hawkN + doveN
	if total == 0 {
		return stats
	}
	stats.HawkPortion = float64(hawkN) / float64(total)
	stats.DovePortion = float64(doveN) / float64(total)
	return stats
}

func (s StrategyStats) Total() int {
	return s.HawkN + s.DoveN
}

// HistoryView is the read-only statistics contract decision functions
// query. Implementations must be safe for concurrent reads within a
// round; mutation happens only at round boundaries, owned by the driver.
type HistoryView interface {
	HasHistory() bool
	LastRoundColorStats(color Color) StrategyStats
	LastRoundChallengeStats(challenge ChallengeType, color Color) StrategyStats
	LastRoundPopulationStats() StrategyStats
	AgentColorStats(agentID string, color Color) StrategyStats
	AgentChallengeStats(agentID string, challenge ChallengeType, color Color) StrategyStats
}

// Information is the input bundle for a single decision. RandomNumber is
// one fresh draw in [0.0, 1.0) supplied by the driver per call, so a
// reproducible driver sequence replays decisions exactly.
type Information struct {
	Agent         Agent
	OpponentColor Color
	Payoffs       PayoffMatrix
	History       HistoryView
	RandomNumber  float64
}
