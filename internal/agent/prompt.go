package agent

import (
	"fmt"
	"strings"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

var personas = map[models.AgentID]string{
	models.AgentCoder:      "a senior software engineer who prefers small, exact edits over rewriting whole files",
	models.AgentResearcher: "a careful researcher who cites what you found and flags what you could not verify",
	models.AgentExecutor:   "an operator who runs commands precisely and reports exit status and output",
	models.AgentReasoner:    "a reasoner who thinks step by step before answering",
	models.AgentConsultant:  "an advisor who weighs trade-offs and gives a clear recommendation",
	models.AgentSecurity:    "a security engineer who reasons about attacker capability before proposing defenses",
	models.AgentVisionLocal: "an assistant who describes and reasons about images precisely using locally available tools",
	models.AgentVisionCloud: "an assistant who describes and reasons about images precisely",
	models.AgentGeneral:     "a helpful general-purpose assistant",
}

// SystemPrompt builds the system prompt for profile, listing toolNames
// when any are given, in English, with an explicit destructive-action
// policy and a preference for exact-string-replacement edits.
func SystemPrompt(profile models.AgentProfile, toolNames []string, protocol Protocol) string {
	var b strings.Builder
	persona := personas[profile.ID]
	if persona == "" {
		persona = personas[models.AgentGeneral]
	}
	fmt.Fprintf(&b, "You are %s.\n", persona)
	b.WriteString("Always respond in English. Never take a destructive or irreversible action without the user's explicit instruction to do so.\n")
	b.WriteString("Prefer exact-string-replacement edits over rewriting a whole file.\n")

	if len(toolNames) > 0 {
		b.WriteString("\nAvailable tools: ")
		b.WriteString(strings.Join(toolNames, ", "))
		b.WriteString("\n")
		if protocol == ProtocolReAct {
			b.WriteString("\nTo call a tool, respond with exactly two lines:\n")
			b.WriteString("TOOL: <tool_name>\nARGS: <json object of arguments>\n")
			b.WriteString("Wait for the tool's result before continuing. When you have a final answer, respond normally with no TOOL: line.\n")
		}
	}
	return b.String()
}
