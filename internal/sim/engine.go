// Package sim drives repeated Hawk-Dove rounds over a fixed population.
// Each round pairs agents at random, evaluates every pairing's two
// decisions concurrently, applies payoffs and records the round into
// history. Populations never grow or shrink mid-run; agents only update
// their remembered strategy between rounds.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"hawkdove/internal/game"
	"hawkdove/internal/history"
	"hawkdove/internal/model"
	"hawkdove/internal/strategy"
)

type Config struct {
	Decide  strategy.Func
	Payoffs game.PayoffMatrix
	Colors  map[game.Color]int
	Rounds  int
	Workers int
	Seed    int64
}

type AgentResult struct {
	Agent     game.Agent
	Score     float64
	HawkPlays int
	DovePlays int
}

type RunResult struct {
	HawkPortionByRound []float64
	Diagnostics        []model.RoundDiagnostics
	Encounters         []model.EncounterRecord
	FinalAgents        []AgentResult
}

type agentState struct {
	game.Agent
	score     float64
	hawkPlays int
	dovePlays int
}

func (s *agentState) recordMove(move game.Strategy) {
	m := move
	s.Strategy = &m
	if move == game.Hawk {
		s.hawkPlays++
	} else {
		s.dovePlays++
	}
}

type Engine struct {
	cfg Config
	rng *rand.Rand
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Decide == nil {
		return nil, fmt.Errorf("decision function is required")
	}
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be > 0")
	}
	if len(cfg.Colors) == 0 {
		return nil, fmt.Errorf("at least one color population is required")
	}
	total := 0
	for color, count := range cfg.Colors {
		if color == "" {
			return nil, fmt.Errorf("color name is required")
		}
		if count <= 0 {
			return nil, fmt.Errorf("population for color %s must be > 0", color)
		}
		total += count
	}
	if total < 2 {
		return nil, fmt.Errorf("population must hold at least two agents")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run plays the configured number of rounds over the initial population.
// The initial agents must match the configured color counts exactly.
// Results are reproducible for a given seed regardless of worker count:
// pairings and random draws come from the seeded source in a fixed
// order before any concurrent evaluation starts.
func (e *Engine) Run(ctx context.Context, initial []game.Agent) (RunResult, error) {
	states, err := e.buildStates(initial)
	if err != nil {
		return RunResult{}, err
	}

	log := history.NewLog()
	view := history.NewCachedView(log)

	hawkHistory := make([]float64, 0, e.cfg.Rounds)
	diagnostics := make([]model.RoundDiagnostics, 0, e.cfg.Rounds)
	encounters := make([]model.EncounterRecord, 0, e.cfg.Rounds*(len(states)/2))

	for round := 1; round <= e.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		pairings := e.pairAgents(states)
		outcomes, err := e.playRound(ctx, pairings, view)
		if err != nil {
			return RunResult{}, err
		}

		roundEncounters := make([]history.Encounter, 0, len(outcomes))
		for _, o := range outcomes {
			o.a.score += o.payoffA
			o.b.score += o.payoffB
			o.a.recordMove(o.moveA)
			o.b.recordMove(o.moveB)

			roundEncounters = append(roundEncounters, history.Encounter{
				AgentID:       o.a.ID,
				OpponentID:    o.b.ID,
				AgentColor:    o.a.Color,
				OpponentColor: o.b.Color,
				Challenge:     o.challenge,
				AgentMove:     o.moveA,
				OpponentMove:  o.moveB,
			})
			encounters = append(encounters, model.EncounterRecord{
				Round:          round,
				AgentID:        o.a.ID,
				OpponentID:     o.b.ID,
				AgentColor:     string(o.a.Color),
				OpponentColor:  string(o.b.Color),
				ChallengeType:  o.challenge.String(),
				AgentMove:      o.moveA.String(),
				OpponentMove:   o.moveB.String(),
				AgentPayoff:    o.payoffA,
				OpponentPayoff: o.payoffB,
			})
		}

		log.RecordRound(roundEncounters)
		view.Invalidate()

		diag := summarizeRound(round, outcomes)
		diagnostics = append(diagnostics, diag)
		hawkHistory = append(hawkHistory, diag.HawkPortion)
	}

	final := make([]AgentResult, 0, len(states))
	for _, state := range states {
		agent := game.Agent{ID: state.ID, Color: state.Color}
		if state.Strategy != nil {
			s := *state.Strategy
			agent.Strategy = &s
		}
		final = append(final, AgentResult{
			Agent:     agent,
			Score:     state.score,
			HawkPlays: state.hawkPlays,
			DovePlays: state.dovePlays,
		})
	}

	return RunResult{
		HawkPortionByRound: hawkHistory,
		Diagnostics:        diagnostics,
		Encounters:         encounters,
		FinalAgents:        final,
	}, nil
}

func (e *Engine) buildStates(initial []game.Agent) ([]*agentState, error) {
	counts := make(map[game.Color]int, len(e.cfg.Colors))
	seen := make(map[string]struct{}, len(initial))
	states := make([]*agentState, 0, len(initial))

	for _, agent := range initial {
		if agent.ID == "" {
			return nil, fmt.Errorf("agent id is required")
		}
		if _, dup := seen[agent.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id: %s", agent.ID)
		}
		seen[agent.ID] = struct{}{}
		counts[agent.Color]++

		state := &agentState{Agent: game.Agent{ID: agent.ID, Color: agent.Color}}
		if agent.Strategy != nil {
			s := *agent.Strategy
			state.Strategy = &s
		}
		states = append(states, state)
	}

	if len(counts) != len(e.cfg.Colors) {
		return nil, fmt.Errorf("population colors mismatch: got=%d want=%d", len(counts), len(e.cfg.Colors))
	}
	for color, want := range e.cfg.Colors {
		if counts[color] != want {
			return nil, fmt.Errorf("population mismatch for color %s: got=%d want=%d", color, counts[color], want)
		}
	}
	return states, nil
}

type pairing struct {
	a, b      *agentState
	challenge game.ChallengeType
	drawA     float64
	drawB     float64
}

type outcome struct {
	a, b      *agentState
	challenge game.ChallengeType
	moveA     game.Strategy
	moveB     game.Strategy
	payoffA   float64
	payoffB   float64
}

// pairAgents shuffles the population and pairs neighbors. With an odd
// population one agent sits the round out. Random draws for both sides
// of every pairing are taken here, in pairing order, so concurrent
// evaluation cannot perturb the sequence.
func (e *Engine) pairAgents(states []*agentState) []pairing {
	order := make([]*agentState, len(states))
	copy(order, states)
	e.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	pairings := make([]pairing, 0, len(order)/2)
	for i := 0; i+1 < len(order); i += 2 {
		a, b := order[i], order[i+1]
		challenge := game.SameColor
		if a.Color != b.Color {
			challenge = game.DifferentColor
		}
		pairings = append(pairings, pairing{
			a:         a,
			b:         b,
			challenge: challenge,
			drawA:     e.rng.Float64(),
			drawB:     e.rng.Float64(),
		})
	}
	return pairings
}

func (e *Engine) playRound(ctx context.Context, pairings []pairing, view game.HistoryView) ([]outcome, error) {
	type job struct {
		idx  int
		pair pairing
	}
	type result struct {
		idx     int
		outcome outcome
		err     error
	}

	jobs := make(chan job)
	results := make(chan result, len(pairings))

	workerCount := e.cfg.Workers
	if workerCount > len(pairings) {
		workerCount = len(pairings)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				results <- result{idx: j.idx, outcome: e.playPairing(j.pair, view)}
			}
		}()
	}

	for i := range pairings {
		jobs <- job{idx: i, pair: pairings[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	outcomes := make([]outcome, len(pairings))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		outcomes[res.idx] = res.outcome
	}
	return outcomes, nil
}

func (e *Engine) playPairing(p pairing, view game.HistoryView) outcome {
	moveA := e.decideFor(p.a, p.b.Color, p.drawA, view)
	moveB := e.decideFor(p.b, p.a.Color, p.drawB, view)
	return outcome{
		a:         p.a,
		b:         p.b,
		challenge: p.challenge,
		moveA:     moveA,
		moveB:     moveB,
		payoffA:   float64(e.cfg.Payoffs.GetMyPayoff(moveA, moveB)),
		payoffB:   float64(e.cfg.Payoffs.GetMyPayoff(moveB, moveA)),
	}
}

func (e *Engine) decideFor(state *agentState, opponent game.Color, draw float64, view game.HistoryView) game.Strategy {
	return e.cfg.Decide(game.Information{
		Agent:         state.Agent,
		OpponentColor: opponent,
		Payoffs:       e.cfg.Payoffs,
		History:       view,
		RandomNumber:  draw,
	})
}

func summarizeRound(round int, outcomes []outcome) model.RoundDiagnostics {
	type colorAgg struct {
		hawks  int
		doves  int
		payoff float64
	}

	hawks, doves := 0, 0
	totalPayoff := 0.0
	byColor := map[string]*colorAgg{}

	observe := func(color game.Color, move game.Strategy, payoff float64) {
		key := string(color)
		bucket := byColor[key]
		if bucket == nil {
			bucket = &colorAgg{}
			byColor[key] = bucket
		}
		if move == game.Hawk {
			hawks++
			bucket.hawks++
		} else {
			doves++
			bucket.doves++
		}
		totalPayoff += payoff
		bucket.payoff += payoff
	}
	for _, o := range outcomes {
		observe(o.a.Color, o.moveA, o.payoffA)
		observe(o.b.Color, o.moveB, o.payoffB)
	}

	diag := model.RoundDiagnostics{
		Round:      round,
		Encounters: len(outcomes),
		HawkPlays:  hawks,
		DovePlays:  doves,
	}
	if plays := hawks + doves; plays > 0 {
		diag.HawkPortion = float64(hawks) / float64(plays)
		diag.MeanPayoff = totalPayoff / float64(plays)
	}

	keys := make([]string, 0, len(byColor))
	for key := range byColor {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		bucket := byColor[key]
		colorDiag := model.ColorDiagnostics{
			Color:     key,
			HawkPlays: bucket.hawks,
			DovePlays: bucket.doves,
		}
		if plays := bucket.hawks + bucket.doves; plays > 0 {
			colorDiag.HawkPortion = float64(bucket.hawks) / float64(plays)
			colorDiag.MeanPayoff = bucket.payoff / float64(plays)
		}
		diag.Colors = append(diag.Colors, colorDiag)
	}
	return diag
}
