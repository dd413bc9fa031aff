package strategy

import "hawkdove/internal/game"

// RandomChoice plays Hawk when the drawn random number falls below one
// half. It doubles as the tie-break policy whenever two expected values
// compare exactly equal.
func RandomChoice(info game.Information) game.Strategy {
	if info.RandomNumber < 0.5 {
		return game.Hawk
	}
	return game.Dove
}

// NashMixedEquilibrium plays Hawk with the classical mixed-equilibrium
// probability V/C taken from the payoff matrix parameters. A zero cost
// degenerates to always Hawk.
func NashMixedEquilibrium(info game.Information) game.Strategy {
	if info.RandomNumber < info.Payoffs.HawkEquilibrium() {
		return game.Hawk
	}
	return game.Dove
}

// KeepSameStrategy repeats the agent's previous move. Agents that have
// never played fall back to the mixed equilibrium.
func KeepSameStrategy(info game.Information) game.Strategy {
	if info.Agent.Strategy != nil {
		return *info.Agent.Strategy
	}
	return NashMixedEquilibrium(info)
}

// OnLastEncounterWithOpponentColor escalates when the opponent color has
// never yielded. It reads the acting agent's own cross-color record
// against the opponent color: no Dove observed means Hawk, no Hawk
// observed means Dove, a mixed record defers to the equilibrium.
func OnLastEncounterWithOpponentColor(info game.Information) game.Strategy {
	stats := info.History.AgentChallengeStats(info.Agent.ID, game.DifferentColor, info.OpponentColor)
	switch {
	case stats.DoveN == 0:
		return game.Hawk
	case stats.HawkN == 0:
		return game.Dove
	default:
		return NashMixedEquilibrium(info)
	}
}

// HighestExpectedValue builds the one-step best response against the
// opponent-color strategy distribution supplied by source. Expected
// values for Hawk and Dove are weighed against the estimated opposing
// mix; an exact tie delegates to RandomChoice. With zero observations
// the source reports both portions as zero, both expected values become
// zero and the tie-break applies.
func HighestExpectedValue(source StatsSource) Func {
	return func(info game.Information) game.Strategy {
		stats := source(info)
		evHawk := stats.HawkPortion*float64(info.Payoffs.GetMyPayoff(game.Hawk, game.Hawk)) +
			stats.DovePortion*float64(info.Payoffs.GetMyPayoff(game.Hawk, game.Dove))
		evDove := stats.HawkPortion*float64(info.Payoffs.GetMyPayoff(game.Dove, game.Hawk)) +
			stats.DovePortion*float64(info.Payoffs.GetMyPayoff(game.Dove, game.Dove))
		switch {
		case evHawk > evDove:
			return game.Hawk
		case evHawk < evDove:
			return game.Dove
		default:
			return RandomChoice(info)
		}
	}
}

// NashFromPayoffTable derives the mixed-equilibrium Hawk probability
// from the four payoff quadrants instead of the scalar cost and reward
// parameters. For the classical matrix the two derivations agree. A zero
// denominator means every mix is an equilibrium and degenerates to
// always Hawk.
func NashFromPayoffTable(info game.Information) game.Strategy {
	hh := float64(info.Payoffs.GetMyPayoff(game.Hawk, game.Hawk))
	hd := float64(info.Payoffs.GetMyPayoff(game.Hawk, game.Dove))
	dh := float64(info.Payoffs.GetMyPayoff(game.Dove, game.Hawk))
	dd := float64(info.Payoffs.GetMyPayoff(game.Dove, game.Dove))

	p := 1.0
	if denom := hh - hd - dh + dd; denom != 0 {
		p = (dd - hd) / denom
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if info.RandomNumber < p {
		return game.Hawk
	}
	return game.Dove
}

// MirrorOpponentHawkPortion plays Hawk with probability equal to the
// opponent color's last-round Hawk portion.
func MirrorOpponentHawkPortion(info game.Information) game.Strategy {
	p := info.History.LastRoundColorStats(info.OpponentColor).HawkPortion
	if info.RandomNumber < p {
		return game.Hawk
	}
	return game.Dove
}

// MirrorPopulationHawkPortion plays Hawk with probability equal to the
// whole population's last-round Hawk portion, ignoring colors.
func MirrorPopulationHawkPortion(info game.Information) game.Strategy {
	p := info.History.LastRoundPopulationStats().HawkPortion
	if info.RandomNumber < p {
		return game.Hawk
	}
	return game.Dove
}
