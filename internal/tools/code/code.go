// Package code implements the code-family tools: exact-string-replacement
// edits and a Go syntax-sanity check, following this orchestrator's
// preference for exact-replacement edits over full-file rewrites.
package code

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"strings"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/policy"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Register adds the code family's tools to reg, confined to root.
func Register(reg *tools.Registry, root string) error {
	if err := reg.Register(models.ToolDescriptor{
		Name:        "replace_in_file",
		Family:      policy.FamilyCode,
		Description: "Replace an exact, unique string occurrence in a file within the workspace.",
		Parameters: map[string]models.Param{
			"path":        {Type: "string", Required: true},
			"old_string":  {Type: "string", Required: true},
			"new_string":  {Type: "string", Required: true},
		},
		SideEffect: models.SideEffectMutating,
	}, replaceInFile(root)); err != nil {
		return err
	}

	return reg.Register(models.ToolDescriptor{
		Name:        "check_go_syntax",
		Family:      policy.FamilyCode,
		Description: "Parse a Go source file within the workspace and report any syntax errors.",
		Parameters: map[string]models.Param{
			"path": {Type: "string", Required: true},
		},
		SideEffect: models.SideEffectReadOnly,
	}, checkGoSyntax(root))
}

func replaceInFile(root string) tools.Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		path, _ := args["path"].(string)
		oldStr, _ := args["old_string"].(string)
		newStr, _ := args["new_string"].(string)
		resolved, err := policy.ContainPath(root, path)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		content := string(data)
		count := strings.Count(content, oldStr)
		if count == 0 {
			return "", apperr.New(apperr.KindValidation, "old_string not found")
		}
		if count > 1 {
			return "", apperr.New(apperr.KindValidation, fmt.Sprintf("old_string is not unique: %d occurrences", count))
		}
		if err := os.WriteFile(resolved+".bak", data, 0o644); err != nil {
			return "", fmt.Errorf("snapshot prior content: %w", err)
		}
		updated := strings.Replace(content, oldStr, newStr, 1)
		if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
			return "", fmt.Errorf("write file: %w", err)
		}
		return fmt.Sprintf("replaced 1 occurrence in %s", path), nil
	}
}

func checkGoSyntax(root string) tools.Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		path, _ := args["path"].(string)
		resolved, err := policy.ContainPath(root, path)
		if err != nil {
			return "", err
		}
		fset := token.NewFileSet()
		if _, err := parser.ParseFile(fset, resolved, nil, parser.AllErrors); err != nil {
			return "", fmt.Errorf("syntax error: %w", err)
		}
		return "ok", nil
	}
}
