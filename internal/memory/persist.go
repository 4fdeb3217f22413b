package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// JSONPersister writes every session to a single JSON snapshot file under a
// file-level lock, so concurrent AppendMessage calls on different sessions
// don't corrupt the file with an interleaved write.
type JSONPersister struct {
	mu   sync.Mutex
	path string
	data map[string]*models.Session
}

// NewJSONPersister returns a JSONPersister writing to path, loading any
// existing snapshot found there.
func NewJSONPersister(path string) (*JSONPersister, error) {
	p := &JSONPersister{path: path, data: make(map[string]*models.Session)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.data); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Save writes s into the snapshot and flushes the whole file.
func (p *JSONPersister) Save(s *models.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[s.ID] = s

	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

// Sessions returns every session loaded from the snapshot at construction
// time. NewInMemoryStore does not read it; a new store starts empty.
func (p *JSONPersister) Sessions() []*models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*models.Session, 0, len(p.data))
	for _, s := range p.data {
		out = append(out, s)
	}
	return out
}
