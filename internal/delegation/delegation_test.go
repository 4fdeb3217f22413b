package delegation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

type scriptedExecutor struct {
	results map[models.AgentID]string
	errs    map[models.AgentID]error
	calls   []models.AgentID
}

func (s *scriptedExecutor) Execute(ctx context.Context, agent models.AgentID, task string) (string, error) {
	s.calls = append(s.calls, agent)
	if err, ok := s.errs[agent]; ok {
		return "", err
	}
	return s.results[agent], nil
}

func TestDelegate_RunsTaskOnTargetAgent(t *testing.T) {
	exec := &scriptedExecutor{results: map[models.AgentID]string{models.AgentCoder: "fixed it"}}
	m := New(exec)

	d, err := m.Delegate(context.Background(), models.AgentReasoner, models.AgentCoder, "fix the bug")
	require.NoError(t, err)
	assert.Equal(t, models.DelegationCompleted, d.Status)
	assert.Equal(t, "fixed it", d.Result)
	assert.Equal(t, models.AgentReasoner, d.From)
	assert.Equal(t, models.AgentCoder, d.To)
}

func TestDelegate_ExecutorErrorMarksFailed(t *testing.T) {
	exec := &scriptedExecutor{errs: map[models.AgentID]error{models.AgentCoder: fmt.Errorf("transport down")}}
	m := New(exec)

	d, err := m.Delegate(context.Background(), models.AgentReasoner, models.AgentCoder, "fix the bug")
	require.Error(t, err)
	assert.Equal(t, models.DelegationFailed, d.Status)
}

func TestRequestHelp_RoutesByCapabilityWordOverlap(t *testing.T) {
	exec := &scriptedExecutor{results: map[models.AgentID]string{models.AgentCoder: "done"}}
	m := New(exec)

	d, err := m.RequestHelp(context.Background(), models.AgentReasoner, "I need help debugging and refactoring software")
	require.NoError(t, err)
	assert.Equal(t, models.AgentCoder, d.To)
}

func TestRequestHelp_DefaultsToReasonerWhenNoCapabilityMatches(t *testing.T) {
	exec := &scriptedExecutor{results: map[models.AgentID]string{models.AgentReasoner: "ok"}}
	m := New(exec)

	d, err := m.RequestHelp(context.Background(), models.AgentGeneral, "zzz qqq unmatched gibberish")
	require.NoError(t, err)
	assert.Equal(t, models.AgentReasoner, d.To)
}

func TestRequestHelp_ReasonerRequesterDefaultsToGeneral(t *testing.T) {
	exec := &scriptedExecutor{results: map[models.AgentID]string{models.AgentGeneral: "ok"}}
	m := New(exec)

	d, err := m.RequestHelp(context.Background(), models.AgentReasoner, "zzz qqq unmatched gibberish")
	require.NoError(t, err)
	assert.Equal(t, models.AgentGeneral, d.To)
}

func TestCollaborate_RunsParticipantsSequentiallyThenSynthesizes(t *testing.T) {
	exec := &scriptedExecutor{results: map[models.AgentID]string{
		models.AgentResearcher: "found three options",
		models.AgentCoder:      "implemented option two",
		models.AgentReasoner:   "final synthesized answer",
	}}
	m := New(exec)

	collab, err := m.Collaborate(context.Background(), models.AgentReasoner, []models.AgentID{models.AgentResearcher, models.AgentCoder}, "ship the feature")
	require.NoError(t, err)

	assert.Equal(t, "found three options", collab.Results[models.AgentResearcher])
	assert.Equal(t, "implemented option two", collab.Results[models.AgentCoder])
	assert.Equal(t, "final synthesized answer", collab.Synthesis)

	// the coordinator's planning call comes first, and participants run
	// before the coordinator's synthesis call
	require.Len(t, exec.calls, 4)
	assert.Equal(t, models.AgentReasoner, exec.calls[3])
}
