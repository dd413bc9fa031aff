package game

type Payoff float64

// PayoffMatrix holds the two scalar parameters of the classical Hawk-Dove
// payoff structure. Immutable for the duration of a run.
type PayoffMatrix struct {
	Cost   float64
	Reward float64
}

// GetMyPayoff returns the acting agent's payoff for one encounter: both
// Dove split the reward, a lone Hawk takes all of it, and two Hawks share
// the reward minus the fight cost.
func (m PayoffMatrix) GetMyPayoff(mine, opponent Strategy) Payoff {
	switch {
	case mine == Dove && opponent == Dove:
		return Payoff(m.Reward / 2)
	case mine == Hawk && opponent == Dove:
		return Payoff(m.Reward)
	case mine == Dove && opponent == Hawk:
		return 0
	default:
		return Payoff((m.Reward - m.Cost) / 2)
	}
}

// HawkEquilibrium returns the mixed-equilibrium Hawk fraction V/C clamped
// to 1.0. A zero cost makes Hawk strictly dominant, so the fraction is 1.0
// rather than a division fault.
func (m PayoffMatrix) HawkEquilibrium() float64 {
	if m.Cost == 0 {
		return 1.0
	}
	p := m.Reward / m.Cost
	if p > 1.0 {
		return 1.0
	}
	return p
}
