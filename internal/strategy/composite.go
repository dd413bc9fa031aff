package strategy

import "hawkdove/internal/game"

// Composite routes a decision to one of three sub-policies. It is the
// single branching point in the package: no history at all selects
// NoHistory, a matching opponent color selects SameColor, anything else
// selects DifferentColor. The three slots accept any Func, so stage
// catalogs assemble composites without new dispatch logic.
type Composite struct {
	NoHistory      Func
	SameColor      Func
	DifferentColor Func
}

// Decide applies the dispatch rule and invokes the selected sub-policy.
func (c Composite) Decide(info game.Information) game.Strategy {
	switch {
	case !info.History.HasHistory():
		return c.NoHistory(info)
	case info.OpponentColor == info.Agent.Color:
		return c.SameColor(info)
	default:
		return c.DifferentColor(info)
	}
}
