// Package strategy implements the Hawk-Dove decision policies: pure
// functions from one encounter's information to the move the acting
// agent plays. Policies never mutate state, never perform I/O, and are
// deterministic given their inputs, so they are safe to evaluate
// concurrently across agents within a round.
package strategy

import "hawkdove/internal/game"

// Func is the decision contract every policy satisfies.
type Func func(info game.Information) game.Strategy

// StatsSource selects which statistics scope supplies the opposing
// strategy distribution for an expected-value decision. Keeping the
// scope injectable keeps the expected-value variants thin configurations
// of one algorithm instead of near-duplicate functions.
type StatsSource func(info game.Information) game.StrategyStats

// LastRoundColorSource scopes to the opponent color's plays in the
// immediately preceding round, across the whole population.
func LastRoundColorSource() StatsSource {
	return func(info game.Information) game.StrategyStats {
		return info.History.LastRoundColorStats(info.OpponentColor)
	}
}

// LastRoundChallengeSource scopes to the opponent color's last-round
// plays in encounters of the given challenge type.
func LastRoundChallengeSource(challenge game.ChallengeType) StatsSource {
	return func(info game.Information) game.StrategyStats {
		return info.History.LastRoundChallengeStats(challenge, info.OpponentColor)
	}
}

// AgentColorSource scopes to the opponent color's plays across the acting
// agent's own full encounter record.
func AgentColorSource() StatsSource {
	return func(info game.Information) game.StrategyStats {
		return info.History.AgentColorStats(info.Agent.ID, info.OpponentColor)
	}
}

// AgentChallengeSource scopes to the opponent color's plays in the acting
// agent's own encounters of the given challenge type.
func AgentChallengeSource(challenge game.ChallengeType) StatsSource {
	return func(info game.Information) game.StrategyStats {
		return info.History.AgentChallengeStats(info.Agent.ID, challenge, info.OpponentColor)
	}
}
