// Package osint implements the osint-family tools: lightweight, read-only
// lookups useful to the security/researcher agents. No external API keys
// are required. Its one tool, resolve_host, resolves a hostname through the
// system resolver, which may query DNS over the network.
package osint

import (
	"context"
	"fmt"
	"net"

	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/policy"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Register adds the osint family's tools to reg.
func Register(reg *tools.Registry) error {
	return reg.Register(models.ToolDescriptor{
		Name:        "resolve_host",
		Family:      policy.FamilyOSINT,
		Description: "Resolve a hostname to its IP addresses.",
		Parameters: map[string]models.Param{
			"host": {Type: "string", Required: true},
		},
		SideEffect: models.SideEffectNone,
	}, resolveHost)
}

func resolveHost(ctx context.Context, args map[string]any) (string, error) {
	host, _ := args["host"].(string)
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}
	out := ""
	for _, a := range addrs {
		out += a + "\n"
	}
	return out, nil
}
