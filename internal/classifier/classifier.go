// Package classifier scores a task's text against a per-agent keyword
// vocabulary and routes it to exactly one agent, deterministically.
package classifier

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

//go:embed keywords.yaml
var embeddedKeywords []byte

// Vocabulary maps an agent to the keyword phrases that contribute to its
// score. Loaded once from the embedded YAML at init so it can be swapped
// without touching the scoring code.
type Vocabulary map[models.AgentID][]string

var defaultVocabulary Vocabulary

func init() {
	raw := map[string][]string{}
	if err := yaml.Unmarshal(embeddedKeywords, &raw); err != nil {
		panic("classifier: invalid embedded keywords.yaml: " + err.Error())
	}
	defaultVocabulary = Vocabulary{}
	for k, v := range raw {
		defaultVocabulary[models.AgentID(k)] = v
	}
}

// weight applies the extra scoring weight the spec assigns to a subset of
// agent categories: security matches count 2.5x, vision and consultant 2x,
// everything else 1x.
func weight(agent models.AgentID) float64 {
	switch agent {
	case models.AgentSecurity:
		return 2.5
	case models.AgentVisionCloud, models.AgentVisionLocal, models.AgentConsultant:
		return 2.0
	default:
		return 1.0
	}
}

// tieBreakOrder is the declared, deterministic order used to pick a single
// winner among agents tied on score. It deliberately does not match the
// original implementation's Python-dict-insertion-order tie-break.
var tieBreakOrder = []models.AgentID{
	models.AgentSecurity,
	models.AgentVisionCloud,
	models.AgentConsultant,
	models.AgentCoder,
	models.AgentResearcher,
	models.AgentExecutor,
	models.AgentReasoner,
	models.AgentGeneral,
}

// multiStepConnectives make a task's estimated complexity complex
// regardless of word count, matching the original's override for
// sequential/conjunctive phrasing.
var multiStepConnectives = []string{"and then", "after that", "next", "also", "additionally"}

// Classifier scores task text against a Vocabulary and reports a single
// chosen agent plus confidence and complexity.
type Classifier struct {
	vocab Vocabulary
}

// New returns a Classifier using the embedded default keyword vocabulary.
func New() *Classifier {
	return &Classifier{vocab: defaultVocabulary}
}

// NewWithVocabulary returns a Classifier using a caller-supplied vocabulary,
// useful for tests or a future hot-reloadable config.
func NewWithVocabulary(v Vocabulary) *Classifier {
	return &Classifier{vocab: v}
}

// Classify scores task against every agent's keyword list and returns the
// winning agent, its normalized confidence, the estimated complexity, and
// the full per-agent score map for observability.
func (c *Classifier) Classify(task string) models.Classification {
	lower := strings.ToLower(task)

	scores := make(map[models.AgentID]float64, len(c.vocab))
	for agent, keywords := range c.vocab {
		var score float64
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += weight(agent)
			}
		}
		if score > 0 {
			scores[agent] = score
		}
	}

	winner := models.AgentGeneral
	best := 0.0
	for _, candidate := range tieBreakOrder {
		if s, ok := scores[candidate]; ok && s > best {
			best = s
			winner = candidate
		}
	}
	// Second pass picks up the true max first, then the tie-break order
	// above resolves ties: re-scan in tie-break order for anything equal
	// to the max so the earliest-declared category wins ties.
	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore > 0 {
		for _, candidate := range tieBreakOrder {
			if scores[candidate] == maxScore {
				winner = candidate
				break
			}
		}
	}

	var confidence float64
	if maxScore == 0 {
		confidence = 0.5
	} else {
		confidence = maxScore / 3.0
		if confidence > 1 {
			confidence = 1
		}
	}

	complexity := estimateComplexity(task)

	return models.Classification{
		Agent:      winner,
		Confidence: confidence,
		Complexity: complexity,
		Scores:     scores,
	}
}

func estimateComplexity(task string) models.TaskComplexity {
	lower := strings.ToLower(task)
	words := len(strings.Fields(task))

	multiStep := false
	for _, connective := range multiStepConnectives {
		if strings.Contains(lower, connective) {
			multiStep = true
			break
		}
	}

	switch {
	case multiStep:
		return models.ComplexityComplex
	case words < 10:
		return models.ComplexitySimple
	case words < 30:
		return models.ComplexityMedium
	default:
		return models.ComplexityComplex
	}
}

// RequiresTools reports whether agent's category typically needs tool
// access to complete a task. Exactly the four agents whose job is
// inherently tool-mediated (code edits, shell commands, web/OSINT lookups,
// security scans) require it; reasoning, consulting, vision, and general
// chat do not.
func RequiresTools(agent models.AgentID) bool {
	switch agent {
	case models.AgentResearcher, models.AgentExecutor, models.AgentCoder, models.AgentSecurity:
		return true
	default:
		return false
	}
}
