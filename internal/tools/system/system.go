// Package system implements the system-family tools: running a constrained
// allowlisted shell command and reading environment/host info.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/policy"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// AllowedCommands is the closed set of binaries run_command may invoke.
// Anything else is refused before exec.Command is ever constructed.
var AllowedCommands = map[string]bool{
	"ls": true, "pwd": true, "echo": true, "cat": true,
	"grep": true, "find": true, "wc": true, "date": true,
}

// Register adds the system family's tools to reg.
func Register(reg *tools.Registry) error {
	if err := reg.Register(models.ToolDescriptor{
		Name:        "run_command",
		Family:      policy.FamilySystem,
		Description: "Run an allowlisted read-only shell command.",
		Parameters: map[string]models.Param{
			"command": {Type: "string", Required: true},
			"args":    {Type: "string", Required: false, Description: "space-separated arguments"},
		},
		SideEffect: models.SideEffectReadOnly,
	}, runCommand); err != nil {
		return err
	}

	return reg.Register(models.ToolDescriptor{
		Name:        "host_info",
		Family:      policy.FamilySystem,
		Description: "Report basic host information (OS, arch, CPU count).",
		Parameters:  map[string]models.Param{},
		SideEffect:  models.SideEffectNone,
	}, hostInfo)
}

func runCommand(ctx context.Context, args map[string]any) (string, error) {
	cmd, _ := args["command"].(string)
	if !AllowedCommands[cmd] {
		return "", apperr.New(apperr.KindRefused, fmt.Sprintf("command %q is not allowlisted", cmd))
	}
	argStr, _ := args["args"].(string)
	var argv []string
	if strings.TrimSpace(argStr) != "" {
		argv = strings.Fields(argStr)
	}

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(runCtx, cmd, argv...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", cmd, err)
	}
	return string(out), nil
}

func hostInfo(ctx context.Context, args map[string]any) (string, error) {
	return fmt.Sprintf("os=%s arch=%s cpus=%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()), nil
}
