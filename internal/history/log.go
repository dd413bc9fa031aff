// Package history stores completed encounter rounds and answers the
// statistics queries decision policies depend on. A Log is mutated only
// at round boundaries while decisions read it concurrently, so every
// access path takes the read-write lock.
package history

import (
	"sync"

	"hawkdove/internal/game"
)

// Encounter is one completed pairing inside a round, seen from the
// perspective of the pairing itself rather than either participant.
type Encounter struct {
	AgentID       string
	OpponentID    string
	AgentColor    game.Color
	OpponentColor game.Color
	Challenge     game.ChallengeType
	AgentMove     game.Strategy
	OpponentMove  game.Strategy
}

// observation is one player's move inside an encounter. Every encounter
// contributes two observations, one per participant.
type observation struct {
	playerID    string
	playerColor game.Color
	move        game.Strategy
	challenge   game.ChallengeType
	otherID     string
}

// Log is an append-only record of completed rounds implementing
// game.HistoryView.
type Log struct {
	mu     sync.RWMutex
	rounds [][]observation
}

func NewLog() *Log {
	return &Log{}
}

// RecordRound appends one completed round. Call it only between rounds,
// never while decisions for the current round are still being evaluated.
func (l *Log) RecordRound(encounters []Encounter) {
	observations := make([]observation, 0, 2*len(encounters))
	for _, e := range encounters {
		observations = append(observations,
			observation{
				playerID:    e.AgentID,
				playerColor: e.AgentColor,
				move:        e.AgentMove,
				challenge:   e.Challenge,
				otherID:     e.OpponentID,
			},
			observation{
				playerID:    e.OpponentID,
				playerColor: e.OpponentColor,
				move:        e.OpponentMove,
				challenge:   e.Challenge,
				otherID:     e.AgentID,
			},
		)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.rounds = append(l.rounds, observations)
}

// Rounds returns the number of recorded rounds.
func (l *Log) Rounds() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.rounds)
}

func (l *Log) HasHistory() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.rounds) > 0
}

// LastRoundColorStats aggregates what members of color played in the
// most recent round.
func (l *Log) LastRoundColorStats(color game.Color) game.StrategyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return tally(l.lastRound(), func(o observation) bool {
		return o.playerColor == color
	})
}

// LastRoundChallengeStats aggregates what members of color played in
// last-round encounters of the given challenge type.
func (l *Log) LastRoundChallengeStats(challenge game.ChallengeType, color game.Color) game.StrategyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return tally(l.lastRound(), func(o observation) bool {
		return o.challenge == challenge && o.playerColor == color
	})
}

// LastRoundPopulationStats aggregates every move played in the most
// recent round regardless of color.
func (l *Log) LastRoundPopulationStats() game.StrategyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return tally(l.lastRound(), func(observation) bool { return true })
}

// AgentColorStats aggregates what members of color played across all
// recorded encounters involving the given agent.
func (l *Log) AgentColorStats(agentID string, color game.Color) game.StrategyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.tallyAll(func(o observation) bool {
		return o.playerColor == color && (o.playerID == agentID || o.otherID == agentID)
	})
}

// AgentChallengeStats aggregates what members of color played across
// all recorded encounters of the given challenge type involving the
// given agent.
func (l *Log) AgentChallengeStats(agentID string, challenge game.ChallengeType, color game.Color) game.StrategyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.tallyAll(func(o observation) bool {
		return o.challenge == challenge &&
			o.playerColor == color &&
			(o.playerID == agentID || o.otherID == agentID)
	})
}

// lastRound returns the most recent round's observations. Callers hold
// at least the read lock.
func (l *Log) lastRound() []observation {
	if len(l.rounds) == 0 {
		return nil
	}
	return l.rounds[len(l.rounds)-1]
}

// tallyAll aggregates over every recorded round. Callers hold at least
// the read lock.
func (l *Log) tallyAll(match func(observation) bool) game.StrategyStats {
	hawks, doves := 0, 0
	for _, round := range l.rounds {
		for _, o := range round {
			if !match(o) {
				continue
			}
			if o.move == game.Hawk {
				hawks++
			} else {
				doves++
			}
		}
	}
	return game.NewStrategyStats(hawks, doves)
}

func tally(observations []observation, match func(observation) bool) game.StrategyStats {
	hawks, doves := 0, 0
	for _, o := range observations {
		if !match(o) {
			continue
		}
		if o.move == game.Hawk {
			hawks++
		} else {
			doves++
		}
	}
	return game.NewStrategyStats(hawks, doves)
}
