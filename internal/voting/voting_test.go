package voting

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

type scriptedResponder struct {
	replies map[models.AgentID]string
	errs    map[models.AgentID]error
}

func (s *scriptedResponder) Execute(ctx context.Context, agent models.AgentID, task string) (string, error) {
	if err, ok := s.errs[agent]; ok {
		return "", err
	}
	return s.replies[agent], nil
}

func TestRun_MajorityWinsWithConsensusFraction(t *testing.T) {
	responder := &scriptedResponder{replies: map[models.AgentID]string{
		models.AgentCoder:      `{"choice": "B", "reasoning": "looks right", "confidence": 0.8}`,
		models.AgentResearcher: `{"choice": "B", "reasoning": "agrees", "confidence": 0.6}`,
		models.AgentReasoner:   `{"choice": "A", "reasoning": "disagrees", "confidence": 0.9}`,
	}}

	result, err := Run(context.Background(), responder, []models.AgentID{models.AgentCoder, models.AgentResearcher, models.AgentReasoner}, "Which approach is better, A or B?")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "B", result.Winner)
	assert.InDelta(t, 2.0/3.0, result.Consensus, 1e-9)
	assert.Len(t, result.Votes, 3)
}

func TestRun_DropsUnparseableAndErroringResponders(t *testing.T) {
	responder := &scriptedResponder{
		replies: map[models.AgentID]string{
			models.AgentCoder: `{"choice": "A", "reasoning": "ok", "confidence": 0.5}`,
			models.AgentGeneral: "not json at all",
		},
		errs: map[models.AgentID]error{
			models.AgentExecutor: fmt.Errorf("transport down"),
		},
	}

	result, err := Run(context.Background(), responder, []models.AgentID{models.AgentCoder, models.AgentGeneral, models.AgentExecutor}, "pick one")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "A", result.Winner)
	assert.Len(t, result.Votes, 1)
	assert.Equal(t, 1.0, result.Consensus)
}

func TestTally_TiesBreakByMeanConfidenceThenOrder(t *testing.T) {
	votes := []Vote{
		{Agent: models.AgentCoder, Choice: "X", Confidence: 0.5},
		{Agent: models.AgentResearcher, Choice: "Y", Confidence: 0.9},
	}
	result := tally(votes)
	assert.Equal(t, "Y", result.Winner)

	tieVotes := []Vote{
		{Agent: models.AgentCoder, Choice: "X", Confidence: 0.5},
		{Agent: models.AgentResearcher, Choice: "Y", Confidence: 0.5},
	}
	tieResult := tally(tieVotes)
	assert.Equal(t, "X", tieResult.Winner, "equal count and confidence should break tie by first-seen order")
}

func TestTally_EmptyVotesHasNoWinner(t *testing.T) {
	result := tally(nil)
	assert.Empty(t, result.Winner)
	assert.Empty(t, result.Votes)
}
