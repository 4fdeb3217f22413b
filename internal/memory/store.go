// Package memory implements conversation memory: the session/message store,
// durable JSON snapshotting, idle-session eviction, and per-session
// exclusive access.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Store is the contract for session persistence, mirroring the teacher's
// sessions.Store interface shape.
type Store interface {
	Create() (*models.Session, error)
	Get(id string) (*models.Session, error)
	GetOrCreate(id string) (*models.Session, error)
	Update(s *models.Session) error
	Delete(id string) error
	List() ([]*models.Session, error)
	AppendMessage(id string, msg models.Message) (*models.Session, error)
	GetHistory(id string, limit int) ([]models.Message, error)
}

// InMemoryStore is a Store backed by a map. Per-session locks serialize the
// mutating operations on one session, and every operation also takes a
// store-wide mutex, so operations on different sessions are serialized too.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	locks    *lockTable
	persist  Persister
}

// Persister is the durable side of a Store; InMemoryStore calls it after
// Create, Update, AppendMessage, and a GetOrCreate that creates a session.
// Delete is not persisted. A no-op Persister is fine for tests.
type Persister interface {
	Save(s *models.Session) error
}

// NewInMemoryStore returns an empty InMemoryStore, persisting through p as
// Persister describes.
func NewInMemoryStore(p Persister) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*models.Session),
		locks:    newLockTable(),
		persist:  p,
	}
}

func (s *InMemoryStore) Create() (*models.Session, error) {
	now := time.Now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, s.save(sess)
}

func (s *InMemoryStore) Get(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "session not found: "+id)
	}
	return sess, nil
}

func (s *InMemoryStore) GetOrCreate(id string) (*models.Session, error) {
	if id == "" {
		return s.Create()
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	now := time.Now()
	sess := &models.Session{ID: id, CreatedAt: now, UpdatedAt: now}
	s.sessions[id] = sess
	return sess, s.save(sess)
}

func (s *InMemoryStore) Update(updated *models.Session) error {
	unlock := s.locks.Lock(updated.ID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[updated.ID]; !ok {
		return apperr.New(apperr.KindNotFound, "session not found: "+updated.ID)
	}
	updated.UpdatedAt = time.Now()
	s.sessions[updated.ID] = updated
	return s.save(updated)
}

func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) List() ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

// AppendMessage is the sole writer of a session's message log: it appends
// msg and atomically rolls up TotalMessages/AgentsUsed/ToolsUsed/LastAgent
// under the session's exclusive lock.
func (s *InMemoryStore) AppendMessage(id string, msg models.Message) (*models.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "session not found: "+id)
	}

	sess.Messages = append(sess.Messages, msg)
	sess.TotalMessages = len(sess.Messages)
	sess.UpdatedAt = time.Now()
	if msg.Agent != "" {
		sess.LastAgent = msg.Agent
		if !containsAgent(sess.AgentsUsed, msg.Agent) {
			sess.AgentsUsed = append(sess.AgentsUsed, msg.Agent)
		}
	}
	for _, tc := range msg.ToolCalls {
		if !containsString(sess.ToolsUsed, tc.Name) {
			sess.ToolsUsed = append(sess.ToolsUsed, tc.Name)
		}
	}
	return sess, s.save(sess)
}

func (s *InMemoryStore) GetHistory(id string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "session not found: "+id)
	}
	if limit <= 0 || limit >= len(sess.Messages) {
		return sess.Messages, nil
	}
	return sess.Messages[len(sess.Messages)-limit:], nil
}

func (s *InMemoryStore) save(sess *models.Session) error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Save(sess)
}

func containsAgent(list []models.AgentID, a models.AgentID) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
