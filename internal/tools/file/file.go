// Package file implements the file-family tools: read, write (with a .bak
// snapshot), and list, all confined to a workspace root via policy.ContainPath.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/policy"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Register adds the file family's tools to reg, confined to root.
func Register(reg *tools.Registry, root string) error {
	if err := reg.Register(models.ToolDescriptor{
		Name:        "read_file",
		Family:      policy.FamilyFile,
		Description: "Read the contents of a file within the workspace.",
		Parameters: map[string]models.Param{
			"path": {Type: "string", Required: true, Description: "Path relative to the workspace root."},
		},
		SideEffect: models.SideEffectReadOnly,
	}, readFile(root)); err != nil {
		return err
	}

	if err := reg.Register(models.ToolDescriptor{
		Name:        "write_file",
		Family:      policy.FamilyFile,
		Description: "Write content to a file within the workspace, snapshotting any prior content to a .bak sibling first.",
		Parameters: map[string]models.Param{
			"path":    {Type: "string", Required: true},
			"content": {Type: "string", Required: true},
		},
		SideEffect: models.SideEffectMutating,
	}, writeFile(root)); err != nil {
		return err
	}

	return reg.Register(models.ToolDescriptor{
		Name:        "list_files",
		Family:      policy.FamilyFile,
		Description: "List files within a directory of the workspace.",
		Parameters: map[string]models.Param{
			"path": {Type: "string", Required: false},
		},
		SideEffect: models.SideEffectReadOnly,
	}, listFiles(root))
}

func readFile(root string) tools.Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		path, _ := args["path"].(string)
		resolved, err := policy.ContainPath(root, path)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	}
}

func writeFile(root string) tools.Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		resolved, err := policy.ContainPath(root, path)
		if err != nil {
			return "", err
		}
		if prior, err := os.ReadFile(resolved); err == nil {
			if err := os.WriteFile(resolved+".bak", prior, 0o644); err != nil {
				return "", fmt.Errorf("snapshot prior content: %w", err)
			}
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return "", fmt.Errorf("create parent dirs: %w", err)
		}
		if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("write file: %w", err)
		}
		return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
	}
}

func listFiles(root string) tools.Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		sub, _ := args["path"].(string)
		resolved, err := policy.ContainPath(root, sub)
		if err != nil {
			return "", err
		}
		entries, err := os.ReadDir(resolved)
		if err != nil {
			return "", fmt.Errorf("list dir: %w", err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		out := ""
		for _, n := range names {
			out += n + "\n"
		}
		return out, nil
	}
}
