package evaluator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "executions.db")
	e, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestLog_AssignsFallbackCategoryWhenUnset(t *testing.T) {
	e := newTestEvaluator(t)
	rec := models.ExecutionRecord{
		ID:        "rec-1",
		Agent:     models.AgentCoder,
		Task:      "please fix this code bug",
		Success:   true,
		Timestamp: time.Now(),
	}

	require.NoError(t, e.Log(context.Background(), rec))

	m, err := e.Metrics(context.Background(), models.AgentCoder)
	require.NoError(t, err)
	assert.Equal(t, 1, m.TotalRuns)
	assert.Equal(t, 1, m.CategoryCounts["coding"])
}

func TestMetrics_ComputesSuccessRateAndAvgDuration(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()

	require.NoError(t, e.Log(ctx, models.ExecutionRecord{ID: "1", Agent: models.AgentResearcher, Task: "find something", Success: true, DurationMS: 100, Timestamp: time.Now()}))
	require.NoError(t, e.Log(ctx, models.ExecutionRecord{ID: "2", Agent: models.AgentResearcher, Task: "find something else", Success: false, DurationMS: 300, Timestamp: time.Now()}))

	m, err := e.Metrics(ctx, models.AgentResearcher)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalRuns)
	assert.Equal(t, 1, m.SuccessCount)
	assert.InDelta(t, 0.5, m.SuccessRate, 1e-9)
	assert.InDelta(t, 200.0, m.AvgDurationMS, 1e-9)
}

func TestMetrics_FlagsHighFailureRateWeakness(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, e.Log(ctx, models.ExecutionRecord{ID: string(rune('a' + i)), Agent: models.AgentExecutor, Task: "run it", Success: false, Timestamp: time.Now()}))
	}

	m, err := e.Metrics(ctx, models.AgentExecutor)
	require.NoError(t, err)
	assert.Contains(t, m.Weaknesses, "high failure rate")
}

func TestMetrics_CacheInvalidatesOnNewLog(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()

	require.NoError(t, e.Log(ctx, models.ExecutionRecord{ID: "1", Agent: models.AgentCoder, Task: "fix bug", Success: true, Timestamp: time.Now()}))
	first, err := e.Metrics(ctx, models.AgentCoder)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalRuns)

	require.NoError(t, e.Log(ctx, models.ExecutionRecord{ID: "2", Agent: models.AgentCoder, Task: "fix another bug", Success: true, Timestamp: time.Now()}))
	second, err := e.Metrics(ctx, models.AgentCoder)
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalRuns)
}

func TestTruncate_CapsTaskAndResponseLength(t *testing.T) {
	rec := models.ExecutionRecord{
		Task:     string(make([]byte, models.MaxTaskChars+50)),
		Response: string(make([]byte, models.MaxResponseChars+50)),
	}
	rec.Truncate()
	assert.Len(t, rec.Task, models.MaxTaskChars)
	assert.Len(t, rec.Response, models.MaxResponseChars)
}
