// Package memory implements the memory-family tools: saving and recalling
// short named facts, distinct from the session/message conversation memory
// in internal/memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/policy"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Store is a simple thread-safe key/value fact store.
type Store struct {
	mu    sync.RWMutex
	facts map[string]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{facts: make(map[string]string)}
}

// Register adds the memory family's tools, backed by s, to reg.
func Register(reg *tools.Registry, s *Store) error {
	if err := reg.Register(models.ToolDescriptor{
		Name:        "save_fact",
		Family:      policy.FamilyMemory,
		Description: "Save a short named fact for later recall.",
		Parameters: map[string]models.Param{
			"key":   {Type: "string", Required: true},
			"value": {Type: "string", Required: true},
		},
		SideEffect: models.SideEffectMutating,
	}, s.saveFact); err != nil {
		return err
	}

	if err := reg.Register(models.ToolDescriptor{
		Name:        "recall_fact",
		Family:      policy.FamilyMemory,
		Description: "Recall a previously saved fact by key.",
		Parameters: map[string]models.Param{
			"key": {Type: "string", Required: true},
		},
		SideEffect: models.SideEffectReadOnly,
	}, s.recallFact); err != nil {
		return err
	}

	return reg.Register(models.ToolDescriptor{
		Name:        "list_facts",
		Family:      policy.FamilyMemory,
		Description: "List all saved fact keys.",
		Parameters:  map[string]models.Param{},
		SideEffect:  models.SideEffectReadOnly,
	}, s.listFacts)
}

func (s *Store) saveFact(ctx context.Context, args map[string]any) (string, error) {
	key, _ := args["key"].(string)
	value, _ := args["value"].(string)
	if strings.TrimSpace(key) == "" {
		return "", apperr.New(apperr.KindValidation, "key must not be empty")
	}
	s.mu.Lock()
	s.facts[key] = value
	s.mu.Unlock()
	return fmt.Sprintf("saved %q", key), nil
}

func (s *Store) recallFact(ctx context.Context, args map[string]any) (string, error) {
	key, _ := args["key"].(string)
	s.mu.RLock()
	value, ok := s.facts[key]
	s.mu.RUnlock()
	if !ok {
		return "", apperr.New(apperr.KindNotFound, fmt.Sprintf("no fact saved for %q", key))
	}
	return value, nil
}

func (s *Store) listFacts(ctx context.Context, args map[string]any) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.facts))
	for k := range s.facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n"), nil
}
