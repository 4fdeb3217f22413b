// Package voting queries several agents concurrently for a structured vote
// on a question and aggregates their answers by majority, breaking ties by
// mean confidence then input order.
package voting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Responder is the narrow contract voting needs from the agent engine.
type Responder interface {
	Execute(ctx context.Context, agent models.AgentID, task string) (string, error)
}

// Vote is one responder's structured answer.
type Vote struct {
	Agent      models.AgentID
	Choice     string
	Reasoning  string
	Confidence float64
}

// Result is the outcome of an aggregated vote.
type Result struct {
	Winner    string
	Votes     []Vote
	Consensus float64
}

type voteJSON struct {
	Choice     string  `json:"choice"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

const votePromptTemplate = `Answer the following question with a JSON object: {"choice": "...", "reasoning": "...", "confidence": 0.0-1.0}.
Question: %s`

// Run queries every agent in responders concurrently against question and
// aggregates their answers. Responders that error or return unparseable
// JSON are dropped from the tally rather than aborting the whole vote.
func Run(ctx context.Context, responder Responder, responders []models.AgentID, question string) (*Result, error) {
	votes := make([]Vote, len(responders))
	ok := make([]bool, len(responders))

	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range responders {
		i, agent := i, agent
		g.Go(func() error {
			raw, err := responder.Execute(gctx, agent, fmt.Sprintf(votePromptTemplate, question))
			if err != nil {
				return nil // dropped, not fatal to the whole vote
			}
			v, parseErr := parseVote(raw)
			if parseErr != nil {
				return nil
			}
			votes[i] = Vote{Agent: agent, Choice: v.Choice, Reasoning: v.Reasoning, Confidence: v.Confidence}
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var counted []Vote
	for i, valid := range ok {
		if valid {
			counted = append(counted, votes[i])
		}
	}
	return tally(counted), nil
}

func parseVote(raw string) (voteJSON, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return voteJSON{}, fmt.Errorf("no JSON object found in response")
	}
	var v voteJSON
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return voteJSON{}, err
	}
	if v.Choice == "" {
		return voteJSON{}, fmt.Errorf("empty choice")
	}
	return v, nil
}

// tally counts votes per choice, then picks the winner by count, breaking
// ties by mean confidence, then by input order (the first choice to appear
// among the counted votes).
func tally(votes []Vote) *Result {
	if len(votes) == 0 {
		return &Result{Votes: votes}
	}

	counts := map[string]int{}
	confidenceSum := map[string]float64{}
	order := map[string]int{}
	for i, v := range votes {
		counts[v.Choice]++
		confidenceSum[v.Choice] += v.Confidence
		if _, seen := order[v.Choice]; !seen {
			order[v.Choice] = i
		}
	}

	var winner string
	bestCount := -1
	bestConfidence := -1.0
	bestOrder := len(votes)
	for choice, count := range counts {
		meanConfidence := confidenceSum[choice] / float64(count)
		better := count > bestCount ||
			(count == bestCount && meanConfidence > bestConfidence) ||
			(count == bestCount && meanConfidence == bestConfidence && order[choice] < bestOrder)
		if better {
			winner = choice
			bestCount = count
			bestConfidence = meanConfidence
			bestOrder = order[choice]
		}
	}

	return &Result{
		Winner:    winner,
		Votes:     votes,
		Consensus: float64(bestCount) / float64(len(votes)),
	}
}
