package agent

import "github.com/nexus-orchestrator/orchestrator/pkg/models"

// FallbackChain maps each agent to the agent it falls back to when its
// backend fails with a transport error. Agents with no entry (reasoner and
// general in the default chain) are terminal: Next reports no further
// fallback for them.
type FallbackChain struct {
	next map[models.AgentID]models.AgentID
}

// DefaultFallbackChain implements the ordered fallback table from the spec:
// vision_cloud falls back to vision_local (its text-only local counterpart);
// every other specialist falls back to reasoner; reasoner and general have
// no further fallback.
func DefaultFallbackChain() *FallbackChain {
	chain := &FallbackChain{next: map[models.AgentID]models.AgentID{
		models.AgentVisionCloud: models.AgentVisionLocal,
	}}
	for _, a := range models.AllAgents {
		if a != models.AgentReasoner && a != models.AgentGeneral && a != models.AgentVisionCloud {
			chain.next[a] = models.AgentReasoner
		}
	}
	return chain
}

// Next returns the agent to retry with after agent's backend fails, and
// false if agent has no configured fallback.
func (c *FallbackChain) Next(agent models.AgentID) (models.AgentID, bool) {
	next, ok := c.next[agent]
	return next, ok
}
