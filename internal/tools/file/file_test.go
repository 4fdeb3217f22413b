package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

func newRegistry(t *testing.T, root string) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	require.NoError(t, Register(reg, root))
	return reg
}

func invoke(t *testing.T, reg *tools.Registry, name string, args map[string]any) models.ToolResult {
	t.Helper()
	input, err := json.Marshal(args)
	require.NoError(t, err)
	return reg.Invoke(context.Background(), models.ToolCall{ID: "call-1", Name: name, Input: input})
}

func TestWriteThenReadFile_RoundTrips(t *testing.T) {
	root := t.TempDir()
	reg := newRegistry(t, root)

	writeResult := invoke(t, reg, "write_file", map[string]any{"path": "notes.txt", "content": "hello"})
	require.False(t, writeResult.IsError, writeResult.Content)

	readResult := invoke(t, reg, "read_file", map[string]any{"path": "notes.txt"})
	require.False(t, readResult.IsError, readResult.Content)
	assert.Equal(t, "hello", readResult.Content)
}

func TestWriteFile_SnapshotsPriorContentToBak(t *testing.T) {
	root := t.TempDir()
	reg := newRegistry(t, root)

	invoke(t, reg, "write_file", map[string]any{"path": "notes.txt", "content": "v1"})
	invoke(t, reg, "write_file", map[string]any{"path": "notes.txt", "content": "v2"})

	bak, err := os.ReadFile(filepath.Join(root, "notes.txt.bak"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(bak))
}

func TestReadFile_RejectsPathEscapingRoot(t *testing.T) {
	root := t.TempDir()
	reg := newRegistry(t, root)

	result := invoke(t, reg, "read_file", map[string]any{"path": "../../etc/passwd"})
	assert.True(t, result.IsError)
}

func TestListFiles_ReturnsSortedNames(t *testing.T) {
	root := t.TempDir()
	reg := newRegistry(t, root)

	for _, name := range []string{"b.txt", "a.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	result := invoke(t, reg, "list_files", map[string]any{})
	require.False(t, result.IsError, result.Content)
	assert.Equal(t, "a.txt\nb.txt\nc.txt\n", result.Content)
}
