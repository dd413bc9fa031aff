package stage

import (
	"hawkdove/internal/game"
	"hawkdove/internal/strategy"
)

// DefaultName is the stage used when a driver does not select one.
const DefaultName = "stage1"

func initializeBuiltInStages() {
	MustRegister(Spec{
		Name:        "stage1",
		Description: "mixed equilibrium on every encounter",
		Decide: strategy.Composite{
			NoHistory:      strategy.NashMixedEquilibrium,
			SameColor:      strategy.NashMixedEquilibrium,
			DifferentColor: strategy.NashMixedEquilibrium,
		}.Decide,
	})
	MustRegister(Spec{
		Name:        "stage2",
		Description: "equilibrium within a color, escalate across colors that never yielded",
		Decide: strategy.Composite{
			NoHistory:      strategy.NashMixedEquilibrium,
			SameColor:      strategy.NashMixedEquilibrium,
			DifferentColor: strategy.OnLastEncounterWithOpponentColor,
		}.Decide,
	})
	MustRegister(Spec{
		Name:        "stage2-ev",
		Description: "best response to the opponent color's last-round mix",
		Decide: strategy.Composite{
			NoHistory:      strategy.NashMixedEquilibrium,
			SameColor:      strategy.NashMixedEquilibrium,
			DifferentColor: strategy.HighestExpectedValue(strategy.LastRoundColorSource()),
		}.Decide,
	})
	MustRegister(Spec{
		Name:        "stage2-ev-challenge",
		Description: "best response to the opponent color's last-round cross-color mix",
		Decide: strategy.Composite{
			NoHistory:      strategy.NashMixedEquilibrium,
			SameColor:      strategy.NashMixedEquilibrium,
			DifferentColor: strategy.HighestExpectedValue(strategy.LastRoundChallengeSource(game.DifferentColor)),
		}.Decide,
	})
	MustRegister(Spec{
		Name:        "stage2-mirror",
		Description: "mirror the opponent color's last-round hawk portion",
		Decide: strategy.Composite{
			NoHistory:      strategy.NashMixedEquilibrium,
			SameColor:      strategy.NashMixedEquilibrium,
			DifferentColor: strategy.MirrorOpponentHawkPortion,
		}.Decide,
	})
	MustRegister(Spec{
		Name:        "stage3",
		Description: "persist within a color, best response from own cross-color record",
		Decide: strategy.Composite{
			NoHistory:      strategy.NashMixedEquilibrium,
			SameColor:      strategy.KeepSameStrategy,
			DifferentColor: strategy.HighestExpectedValue(strategy.AgentChallengeSource(game.DifferentColor)),
		}.Decide,
	})
	MustRegister(Spec{
		Name:        "stage3-color",
		Description: "persist within a color, best response from own full record against the color",
		Decide: strategy.Composite{
			NoHistory:      strategy.NashMixedEquilibrium,
			SameColor:      strategy.KeepSameStrategy,
			DifferentColor: strategy.HighestExpectedValue(strategy.AgentColorSource()),
		}.Decide,
	})
}
