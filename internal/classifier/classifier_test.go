package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

func TestClassify_SecurityKeywordsWinOnWeight(t *testing.T) {
	c := New()
	result := c.Classify("Find the vulnerability in this exploit and check for malware")

	assert.Equal(t, models.AgentSecurity, result.Agent)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestClassify_NoKeywordMatchFallsBackToGeneral(t *testing.T) {
	c := New()
	result := c.Classify("hello there")

	assert.Equal(t, models.AgentGeneral, result.Agent)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Empty(t, result.Scores)
}

func TestClassify_IsDeterministic(t *testing.T) {
	c := New()
	task := "Please refactor this function and fix the bug in the compile step"

	first := c.Classify(task)
	for i := 0; i < 10; i++ {
		again := c.Classify(task)
		require.Equal(t, first.Agent, again.Agent)
		require.Equal(t, first.Confidence, again.Confidence)
		require.Equal(t, first.Complexity, again.Complexity)
	}
}

func TestClassify_ConsultantWeightOutscoresCoderOnSharedKeyword(t *testing.T) {
	// consultant and coder share the only keyword, via NewWithVocabulary
	// for a controlled scenario, so the result turns on weight.
	vocab := Vocabulary{
		models.AgentConsultant: {"widget"},
		models.AgentCoder:      {"widget"},
	}
	c := NewWithVocabulary(vocab)
	result := c.Classify("please help with this widget")

	// consultant (weight 2.0) outscores coder (weight 1.0) on the same
	// single keyword hit, so consultant wins outright, not via tie-break.
	assert.Equal(t, models.AgentConsultant, result.Agent)
}

func TestClassify_ComplexityByWordCountAndConnectives(t *testing.T) {
	c := New()

	short := c.Classify("fix this")
	assert.Equal(t, models.ComplexitySimple, short.Complexity)

	medium := c.Classify("please look into this research topic and summarize the article for me today")
	assert.Equal(t, models.ComplexityMedium, medium.Complexity)

	multiStep := c.Classify("build it and then deploy it")
	assert.Equal(t, models.ComplexityComplex, multiStep.Complexity)
}

func TestRequiresTools_ExactWhitelist(t *testing.T) {
	want := map[models.AgentID]bool{
		models.AgentResearcher:  true,
		models.AgentExecutor:    true,
		models.AgentCoder:       true,
		models.AgentSecurity:    true,
		models.AgentReasoner:    false,
		models.AgentConsultant:  false,
		models.AgentVisionLocal: false,
		models.AgentVisionCloud: false,
		models.AgentGeneral:     false,
	}
	for agent, expected := range want {
		assert.Equal(t, expected, RequiresTools(agent), "agent %s", agent)
	}
}

func TestClassify_MultiStepConnectivesMatchSpecSetExactly(t *testing.T) {
	c := New()

	for _, connective := range []string{"and then", "after that", "next", "also", "additionally"} {
		result := c.Classify("write the code " + connective + " run it")
		assert.Equal(t, models.ComplexityComplex, result.Complexity, "connective %q should force complex", connective)
	}

	// "then" alone (not "and then") and "followed by" are not in the spec's
	// literal connective set and must not trigger the override by
	// themselves; without a connective this is just a 6-word simple task.
	plain := c.Classify("write the code then run it")
	assert.Equal(t, models.ComplexitySimple, plain.Complexity)
}

func TestClassify_ReasonerRoutesPlanningTasks(t *testing.T) {
	c := New()
	result := c.Classify("What is the best way to analyze and compare these two approaches?")
	assert.Equal(t, models.AgentReasoner, result.Agent)
}

func TestWeight_VisionLocalAndVisionCloudBothDoubled(t *testing.T) {
	assert.Equal(t, 2.0, weight(models.AgentVisionLocal))
	assert.Equal(t, 2.0, weight(models.AgentVisionCloud))
}

func TestEmbeddedVocabulary_CoversEveryNonFallbackAgent(t *testing.T) {
	// general has no keyword list: it's the winner only when nothing else
	// scores, so its absence from the embedded vocabulary is intentional.
	for _, agent := range models.AllAgents {
		if agent == models.AgentGeneral {
			continue
		}
		_, ok := defaultVocabulary[agent]
		assert.True(t, ok, "expected keywords.yaml to define an entry for %s", agent)
	}
}
