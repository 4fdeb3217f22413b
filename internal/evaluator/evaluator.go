// Package evaluator logs agent executions, maintains a per-agent metrics
// cache, and flags weaknesses against fixed thresholds.
package evaluator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Weakness detection thresholds, matching the original evaluator's fixed
// cutoffs.
const (
	failureRateThreshold  = 0.5
	avgDurationThresholdMS = 10_000
	avgRatingThreshold    = 3.5
)

// categoryKeywords is the fallback classifier used only when an execution
// record arrives with no category already set by the C3 classifier (e.g.
// from a delegation or plan step), per the DESIGN.md Open Question decision.
var categoryKeywords = map[string][]string{
	"coding":    {"code", "function", "bug", "debug"},
	"research":  {"research", "find", "search"},
	"execution": {"run", "execute", "command"},
	"planning":  {"plan", "schedule", "steps"},
}

// Evaluator logs ExecutionRecords to SQLite and caches per-agent metrics in
// memory, invalidated on every new record.
type Evaluator struct {
	db *sql.DB

	mu    sync.Mutex
	cache map[models.AgentID]*models.AgentMetrics
}

// New opens (creating if necessary) a SQLite database at path and ensures
// its execution_records table exists.
func New(path string) (*Evaluator, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS execution_records (
		id TEXT PRIMARY KEY,
		agent TEXT NOT NULL,
		category TEXT NOT NULL,
		task TEXT NOT NULL,
		response TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error TEXT,
		tools_used TEXT,
		rating REAL,
		feedback TEXT,
		session_id TEXT,
		timestamp DATETIME NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Evaluator{db: db, cache: make(map[models.AgentID]*models.AgentMetrics)}, nil
}

// Close releases the underlying database handle.
func (e *Evaluator) Close() error { return e.db.Close() }

// Log truncates and persists rec, then invalidates rec.Agent's cached
// metrics so the next Metrics call recomputes from storage.
func (e *Evaluator) Log(ctx context.Context, rec models.ExecutionRecord) error {
	rec.Truncate()
	if rec.Category == "" {
		rec.Category = classifyCategory(rec.Task)
	}
	tools := strings.Join(rec.ToolsUsed, ",")
	_, err := e.db.ExecContext(ctx,
		`INSERT INTO execution_records (id, agent, category, task, response, duration_ms, success, error, tools_used, rating, feedback, session_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Agent), rec.Category, rec.Task, rec.Response, rec.DurationMS, rec.Success, rec.Error, tools, rec.Rating, rec.Feedback, rec.SessionID, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("insert execution record: %w", err)
	}

	e.mu.Lock()
	delete(e.cache, rec.Agent)
	e.mu.Unlock()

	recordMetrics(rec)
	return nil
}

func classifyCategory(task string) string {
	lower := strings.ToLower(task)
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return category
			}
		}
	}
	return "general"
}

// Metrics returns agent's cached metrics, recomputing from storage on a
// cache miss.
func (e *Evaluator) Metrics(ctx context.Context, agent models.AgentID) (*models.AgentMetrics, error) {
	e.mu.Lock()
	if cached, ok := e.cache[agent]; ok {
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	m, err := e.recompute(ctx, agent)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[agent] = m
	e.mu.Unlock()
	return m, nil
}

func (e *Evaluator) recompute(ctx context.Context, agent models.AgentID) (*models.AgentMetrics, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT category, duration_ms, success, rating FROM execution_records WHERE agent = ?`, string(agent))
	if err != nil {
		return nil, fmt.Errorf("query execution records: %w", err)
	}
	defer rows.Close()

	m := &models.AgentMetrics{Agent: agent, CategoryCounts: map[string]int{}}
	var totalDuration int64
	var totalRating float64
	var ratingCount int

	for rows.Next() {
		var category string
		var duration int64
		var success bool
		var rating sql.NullFloat64
		if err := rows.Scan(&category, &duration, &success, &rating); err != nil {
			return nil, err
		}
		m.TotalRuns++
		if success {
			m.SuccessCount++
		}
		totalDuration += duration
		m.CategoryCounts[category]++
		if rating.Valid {
			totalRating += rating.Float64
			ratingCount++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if m.TotalRuns > 0 {
		m.SuccessRate = float64(m.SuccessCount) / float64(m.TotalRuns)
		m.AvgDurationMS = float64(totalDuration) / float64(m.TotalRuns)
	}
	if ratingCount > 0 {
		m.AvgRating = totalRating / float64(ratingCount)
	}
	m.Weaknesses = detectWeaknesses(m)
	return m, nil
}

func detectWeaknesses(m *models.AgentMetrics) []string {
	var weaknesses []string
	if m.TotalRuns == 0 {
		return weaknesses
	}
	if (1 - m.SuccessRate) > failureRateThreshold {
		weaknesses = append(weaknesses, "high failure rate")
	}
	if m.AvgDurationMS > avgDurationThresholdMS {
		weaknesses = append(weaknesses, "slow average response time")
	}
	if m.AvgRating > 0 && m.AvgRating < avgRatingThreshold {
		weaknesses = append(weaknesses, "low average rating")
	}
	return weaknesses
}
