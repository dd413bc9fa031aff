package strategy

import (
	"testing"

	"hawkdove/internal/game"
)

// stubHistory returns fixed statistics per query scope so tests can tell
// which scope a policy consulted.
type stubHistory struct {
	has        bool
	lastColor  game.StrategyStats
	lastChal   game.StrategyStats
	population game.StrategyStats
	agentColor game.StrategyStats
	agentChal  game.StrategyStats
}

func (s stubHistory) HasHistory() bool { return s.has }

func (s stubHistory) LastRoundColorStats(game.Color) game.StrategyStats { return s.lastColor }

func (s stubHistory) LastRoundChallengeStats(game.ChallengeType, game.Color) game.StrategyStats {
	return s.lastChal
}

func (s stubHistory) LastRoundPopulationStats() game.StrategyStats { return s.population }

func (s stubHistory) AgentColorStats(string, game.Color) game.StrategyStats { return s.agentColor }

func (s stubHistory) AgentChallengeStats(string, game.ChallengeType, game.Color) game.StrategyStats {
	return s.agentChal
}

func testInfo(cost, reward, rand float64, history game.HistoryView) game.Information {
	return game.Information{
		Agent:         game.Agent{ID: "agent-1", Color: "red"},
		OpponentColor: "blue",
		Payoffs:       game.PayoffMatrix{Cost: cost, Reward: reward},
		History:       history,
		RandomNumber:  rand,
	}
}

func TestRandomChoiceBoundary(t *testing.T) {
	cases := []struct {
		rand float64
		want game.Strategy
	}{
		{0.0, game.Hawk},
		{0.3, game.Hawk},
		{0.49999, game.Hawk},
		{0.5, game.Dove},
		{0.9999, game.Dove},
	}
	for _, tc := range cases {
		if got := RandomChoice(testInfo(20, 10, tc.rand, stubHistory{})); got != tc.want {
			t.Fatalf("rand=%v: got=%v want=%v", tc.rand, got, tc.want)
		}
	}
}

func TestNashMixedEquilibriumThreshold(t *testing.T) {
	matrices := []struct {
		cost, reward float64
	}{
		{10, 0},
		{10, 5},
		{10, 10},
		{10, 20},
		{1, 100},
	}
	rands := []float64{0.0, 0.3, 0.49999, 0.5, 0.9999}

	for _, m := range matrices {
		p := m.reward / m.cost
		if p > 1 {
			p = 1
		}
		for _, r := range rands {
			want := game.Dove
			if r < p {
				want = game.Hawk
			}
			got := NashMixedEquilibrium(testInfo(m.cost, m.reward, r, stubHistory{}))
			if got != want {
				t.Fatalf("cost=%v reward=%v rand=%v: got=%v want=%v", m.cost, m.reward, r, got, want)
			}
		}
	}
}

func TestNashMixedEquilibriumZeroCost(t *testing.T) {
	for _, r := range []float64{0.0, 0.3, 0.5, 0.9999} {
		if got := NashMixedEquilibrium(testInfo(0, 10, r, stubHistory{})); got != game.Hawk {
			t.Fatalf("zero cost rand=%v: got=%v want=%v", r, got, game.Hawk)
		}
	}
}

// TestNashComparisonDirection pins the orientation of the equilibrium
// draw: a random number below the Hawk probability plays Hawk. The
// inverted comparison would still pass distribution-shaped assertions,
// so the direction gets its own check.
func TestNashComparisonDirection(t *testing.T) {
	// p = 5/10 = 0.5
	if got := NashMixedEquilibrium(testInfo(10, 5, 0.3, stubHistory{})); got != game.Hawk {
		t.Fatalf("rand below p: got=%v want=%v", got, game.Hawk)
	}
	if got := NashMixedEquilibrium(testInfo(10, 5, 0.7, stubHistory{})); got != game.Dove {
		t.Fatalf("rand above p: got=%v want=%v", got, game.Dove)
	}
}

func TestKeepSameStrategyRepeatsPrevious(t *testing.T) {
	for _, prev := range []game.Strategy{game.Hawk, game.Dove} {
		info := testInfo(20, 10, 0.9, stubHistory{})
		s := prev
		info.Agent.Strategy = &s
		if got := KeepSameStrategy(info); got != prev {
			t.Fatalf("previous=%v: got=%v", prev, got)
		}
	}
}

func TestKeepSameStrategyFallsBackToEquilibrium(t *testing.T) {
	// reward/cost = 2, p clamps to 1, any draw below 1 plays Hawk.
	info := testInfo(10, 20, 0.1, stubHistory{})
	if got := KeepSameStrategy(info); got != game.Hawk {
		t.Fatalf("missing previous strategy: got=%v want=%v", got, game.Hawk)
	}
}

func TestOnLastEncounterWithOpponentColor(t *testing.T) {
	cases := []struct {
		name  string
		stats game.StrategyStats
		rand  float64
		want  game.Strategy
	}{
		{"never dove", game.NewStrategyStats(4, 0), 0.9, game.Hawk},
		{"never hawk", game.NewStrategyStats(0, 4), 0.1, game.Dove},
		{"mixed defers low draw", game.NewStrategyStats(2, 2), 0.3, game.Hawk},
		{"mixed defers high draw", game.NewStrategyStats(2, 2), 0.7, game.Dove},
	}
	for _, tc := range cases {
		// reward/cost = 0.5 for the equilibrium fallback.
		info := testInfo(10, 5, tc.rand, stubHistory{has: true, agentChal: tc.stats})
		if got := OnLastEncounterWithOpponentColor(info); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestOnLastEncounterMatchesEquilibriumOnMixedRecord(t *testing.T) {
	stats := game.NewStrategyStats(3, 5)
	for _, r := range []float64{0.0, 0.2, 0.5, 0.8} {
		info := testInfo(20, 10, r, stubHistory{has: true, agentChal: stats})
		if got, want := OnLastEncounterWithOpponentColor(info), NashMixedEquilibrium(info); got != want {
			t.Fatalf("rand=%v: got=%v equilibrium=%v", r, got, want)
		}
	}
}

func TestHighestExpectedValueBestResponse(t *testing.T) {
	// cost=20 reward=10: payoff(H,H)=-5 payoff(H,D)=10 payoff(D,H)=0 payoff(D,D)=5.
	decide := HighestExpectedValue(LastRoundColorSource())

	// pHawk=0.3 pDove=0.7: evHawk=5.5 evDove=3.5.
	info := testInfo(20, 10, 0.9, stubHistory{has: true, lastColor: game.NewStrategyStats(3, 7)})
	if got := decide(info); got != game.Hawk {
		t.Fatalf("hawk-favoring stats: got=%v want=%v", got, game.Hawk)
	}

	// pHawk=0.9 pDove=0.1: evHawk=-3.5 evDove=0.5.
	info = testInfo(20, 10, 0.1, stubHistory{has: true, lastColor: game.NewStrategyStats(9, 1)})
	if got := decide(info); got != game.Dove {
		t.Fatalf("dove-favoring stats: got=%v want=%v", got, game.Dove)
	}
}

func TestHighestExpectedValueTieDelegatesToRandomChoice(t *testing.T) {
	// cost=20 reward=10 with a 50/50 opposing mix lands both expected
	// values on 2.5 exactly.
	decide := HighestExpectedValue(LastRoundColorSource())
	stats := game.NewStrategyStats(5, 5)

	for _, tc := range []struct {
		rand float64
		want game.Strategy
	}{
		{0.3, game.Hawk},
		{0.5, game.Dove},
		{0.7, game.Dove},
	} {
		info := testInfo(20, 10, tc.rand, stubHistory{has: true, lastColor: stats})
		if got := decide(info); got != tc.want {
			t.Fatalf("rand=%v: got=%v want=%v", tc.rand, got, tc.want)
		}
	}
}

func TestHighestExpectedValueZeroObservations(t *testing.T) {
	// Empty stats report both portions as zero, both expected values
	// collapse to zero and the tie-break decides.
	decide := HighestExpectedValue(AgentColorSource())

	info := testInfo(20, 10, 0.2, stubHistory{has: true})
	if got := decide(info); got != game.Hawk {
		t.Fatalf("empty stats low draw: got=%v want=%v", got, game.Hawk)
	}
	info = testInfo(20, 10, 0.8, stubHistory{has: true})
	if got := decide(info); got != game.Dove {
		t.Fatalf("empty stats high draw: got=%v want=%v", got, game.Dove)
	}
}

func TestHighestExpectedValueSourceSelection(t *testing.T) {
	// Each scope carries a different opposing mix. All-dove stats push
	// the best response to Hawk, all-hawk stats push it to Dove, so the
	// decision reveals which scope the source consulted.
	history := stubHistory{
		has:        true,
		lastColor:  game.NewStrategyStats(0, 4),
		lastChal:   game.NewStrategyStats(4, 0),
		agentColor: game.NewStrategyStats(0, 4),
		agentChal:  game.NewStrategyStats(4, 0),
	}
	info := testInfo(20, 10, 0.9, history)

	cases := []struct {
		name   string
		source StatsSource
		want   game.Strategy
	}{
		{"last round color", LastRoundColorSource(), game.Hawk},
		{"last round challenge", LastRoundChallengeSource(game.DifferentColor), game.Dove},
		{"agent color", AgentColorSource(), game.Hawk},
		{"agent challenge", AgentChallengeSource(game.DifferentColor), game.Dove},
	}
	for _, tc := range cases {
		if got := HighestExpectedValue(tc.source)(info); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestNashFromPayoffTableMatchesParameterForm(t *testing.T) {
	matrices := []struct {
		cost, reward float64
	}{
		{20, 10},
		{10, 5},
		{10, 10},
		{4, 3},
	}
	rands := []float64{0.0, 0.2, 0.4999, 0.5, 0.75, 0.9999}

	for _, m := range matrices {
		for _, r := range rands {
			info := testInfo(m.cost, m.reward, r, stubHistory{})
			table := NashFromPayoffTable(info)
			params := NashMixedEquilibrium(info)
			if table != params {
				t.Fatalf("cost=%v reward=%v rand=%v: table=%v params=%v", m.cost, m.reward, r, table, params)
			}
		}
	}
}

func TestNashFromPayoffTableZeroDenominator(t *testing.T) {
	// cost=0 zeroes the quadrant denominator; the fallback plays Hawk.
	for _, r := range []float64{0.0, 0.5, 0.9999} {
		if got := NashFromPayoffTable(testInfo(0, 10, r, stubHistory{})); got != game.Hawk {
			t.Fatalf("rand=%v: got=%v want=%v", r, got, game.Hawk)
		}
	}
}

func TestMirrorOpponentHawkPortion(t *testing.T) {
	history := stubHistory{has: true, lastColor: game.NewStrategyStats(7, 3)}
	if got := MirrorOpponentHawkPortion(testInfo(20, 10, 0.69, history)); got != game.Hawk {
		t.Fatalf("draw below portion: got=%v want=%v", got, game.Hawk)
	}
	if got := MirrorOpponentHawkPortion(testInfo(20, 10, 0.7, history)); got != game.Dove {
		t.Fatalf("draw at portion: got=%v want=%v", got, game.Dove)
	}
}

func TestMirrorPopulationHawkPortion(t *testing.T) {
	history := stubHistory{has: true, population: game.NewStrategyStats(1, 3)}
	if got := MirrorPopulationHawkPortion(testInfo(20, 10, 0.2, history)); got != game.Hawk {
		t.Fatalf("draw below portion: got=%v want=%v", got, game.Hawk)
	}
	if got := MirrorPopulationHawkPortion(testInfo(20, 10, 0.25, history)); got != game.Dove {
		t.Fatalf("draw at portion: got=%v want=%v", got, game.Dove)
	}
}

func TestDecisionsAreIdempotent(t *testing.T) {
	history := stubHistory{
		has:        true,
		lastColor:  game.NewStrategyStats(3, 7),
		lastChal:   game.NewStrategyStats(2, 5),
		population: game.NewStrategyStats(6, 4),
		agentColor: game.NewStrategyStats(1, 2),
		agentChal:  game.NewStrategyStats(4, 4),
	}
	prev := game.Dove

	for _, name := range List() {
		fn, err := Resolve(name)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		for _, r := range []float64{0.0, 0.3, 0.5, 0.9} {
			info := testInfo(20, 10, r, history)
			info.Agent.Strategy = &prev
			first := fn(info)
			second := fn(info)
			if first != second {
				t.Fatalf("%s rand=%v: first=%v second=%v", name, r, first, second)
			}
		}
	}
}
