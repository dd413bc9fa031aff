package history

import (
	"sync"

	"hawkdove/internal/game"
)

type challengeColorKey struct {
	challenge game.ChallengeType
	color     game.Color
}

type agentColorKey struct {
	agentID string
	color   game.Color
}

type agentChallengeKey struct {
	agentID   string
	challenge game.ChallengeType
	color     game.Color
}

// CachedView memoizes statistics queries against an underlying view.
// Agent-scoped queries walk the full log, so a population evaluating
// thousands of decisions per round repeats identical scans; the cache
// answers repeats from memory. Invalidate must be called after every
// mutation of the underlying view, which in practice means once per
// round boundary. Decisions through a stale and a fresh cache agree as
// long as invalidation happens at the boundary, because within a round
// the underlying view does not change.
type CachedView struct {
	mu            sync.RWMutex
	view          game.HistoryView
	lastColor     map[game.Color]game.StrategyStats
	lastChallenge map[challengeColorKey]game.StrategyStats
	population    *game.StrategyStats
	agentColor    map[agentColorKey]game.StrategyStats
	agentChal     map[agentChallengeKey]game.StrategyStats
}

func NewCachedView(view game.HistoryView) *CachedView {
	c := &CachedView{view: view}
	c.resetLocked()
	return c
}

// Invalidate drops every memoized result. Call at round boundaries
// after the underlying view changed.
func (c *CachedView) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
}

func (c *CachedView) resetLocked() {
	c.lastColor = make(map[game.Color]game.StrategyStats)
	c.lastChallenge = make(map[challengeColorKey]game.StrategyStats)
	c.population = nil
	c.agentColor = make(map[agentColorKey]game.StrategyStats)
	c.agentChal = make(map[agentChallengeKey]game.StrategyStats)
}

// HasHistory is answered by the underlying view directly. It is a cheap
// flag and caching it would only widen the invalidation surface.
func (c *CachedView) HasHistory() bool {
	return c.view.HasHistory()
}

func (c *CachedView) LastRoundColorStats(color game.Color) game.StrategyStats {
	c.mu.RLock()
	stats, ok := c.lastColor[color]
	c.mu.RUnlock()
	if ok {
		return stats
	}

	stats = c.view.LastRoundColorStats(color)

	c.mu.Lock()
	c.lastColor[color] = stats
	c.mu.Unlock()
	return stats
}

func (c *CachedView) LastRoundChallengeStats(challenge game.ChallengeType, color game.Color) game.StrategyStats {
	key := challengeColorKey{challenge: challenge, color: color}

	c.mu.RLock()
	stats, ok := c.lastChallenge[key]
	c.mu.RUnlock()
	if ok {
		return stats
	}

	stats = c.view.LastRoundChallengeStats(challenge, color)

	c.mu.Lock()
	c.lastChallenge[key] = stats
	c.mu.Unlock()
	return stats
}

func (c *CachedView) LastRoundPopulationStats() game.StrategyStats {
	c.mu.RLock()
	cached := c.population
	c.mu.RUnlock()
	if cached != nil {
		return *cached
	}

	stats := c.view.LastRoundPopulationStats()

	c.mu.Lock()
	c.population = &stats
	c.mu.Unlock()
	return stats
}

func (c *CachedView) AgentColorStats(agentID string, color game.Color) game.StrategyStats {
	key := agentColorKey{agentID: agentID, color: color}

	c.mu.RLock()
	stats, ok := c.agentColor[key]
	c.mu.RUnlock()
	if ok {
		return stats
	}

	stats = c.view.AgentColorStats(agentID, color)

	c.mu.Lock()
	c.agentColor[key] = stats
	c.mu.Unlock()
	return stats
}

func (c *CachedView) AgentChallengeStats(agentID string, challenge game.ChallengeType, color game.Color) game.StrategyStats {
	key := agentChallengeKey{agentID: agentID, challenge: challenge, color: color}

	c.mu.RLock()
	stats, ok := c.agentChal[key]
	c.mu.RUnlock()
	if ok {
		return stats
	}

	stats = c.view.AgentChallengeStats(agentID, challenge, color)

	c.mu.Lock()
	c.agentChal[key] = stats
	c.mu.Unlock()
	return stats
}
