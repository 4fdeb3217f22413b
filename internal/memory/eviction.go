package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// RunEviction schedules a cron job that evicts sessions idle longer than ttl
// from store's in-memory map, until ctx is cancelled. Eviction only drops
// the in-memory copy; the session's last persisted snapshot remains on disk
// and GetOrCreate will find nothing and start a fresh in-memory session
// under the same id, matching the spec's "evicted sessions' persisted copy
// remains" invariant (history is not resurrected automatically, by design:
// re-creating it here would silently defeat the TTL).
//
// interval is expressed as a duration for caller convenience and converted
// into an equivalent "@every" cron spec, the same schedule-description
// convention the sweep/cleanup jobs in this codebase's lineage use.
func RunEviction(ctx context.Context, store *InMemoryStore, ttl time.Duration, interval time.Duration) error {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		evictIdle(store, ttl)
	})
	if err != nil {
		return fmt.Errorf("memory: schedule eviction: %w", err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func evictIdle(store *InMemoryStore, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	store.mu.Lock()
	defer store.mu.Unlock()
	for id, sess := range store.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(store.sessions, id)
		}
	}
}
