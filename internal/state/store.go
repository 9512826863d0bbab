// Package state caches the backend application snapshot and decides which
// screen the console shows for it.
package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
)

// Snapshot is one consistent view of the backend state. The zero value is
// fail-closed: Loaded is false and every capability reads as absent.
type Snapshot struct {
	Loaded           bool
	LoggedIn         bool
	HasAdminPassword bool
	HasWebhooks      bool
	SetupComplete    bool
	Webhooks         []api.Webhook
}

// Fetcher supplies fresh status documents.
type Fetcher interface {
	FetchStatus(ctx context.Context) (*api.Status, error)
}

// Store holds the last known snapshot. Refresh replaces it wholesale, so
// concurrent refreshes settle on whichever request completed last.
type Store struct {
	mu     sync.Mutex
	fetch  Fetcher
	logger *slog.Logger
	snap   Snapshot
}

func NewStore(fetch Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fetch: fetch, logger: logger}
}

// Refresh fetches a status document and installs it as the new snapshot.
// A failed fetch installs the zero snapshot instead of keeping stale data,
// so the console drops back to loading rather than acting on old state.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	st, err := s.fetch.FetchStatus(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.snap = Snapshot{}
		s.logger.Warn("status refresh failed", "error", err)
		return s.snap, err
	}
	s.snap = Snapshot{
		Loaded:           true,
		LoggedIn:         st.LoggedIn,
		HasAdminPassword: st.HasAdminPassword,
		HasWebhooks:      st.HasWebhooks,
		SetupComplete:    st.SetupComplete,
		Webhooks:         append([]api.Webhook(nil), st.Webhooks...),
	}
	return s.copyLocked(), nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// RemoveWebhook drops the webhook with the given token from the cached
// snapshot. Call it only after the backend confirmed the delete; a failed
// delete leaves the cache untouched.
func (s *Store) RemoveWebhook(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.snap.Webhooks[:0]
	for _, wh := range s.snap.Webhooks {
		if wh.Token != token {
			kept = append(kept, wh)
		}
	}
	s.snap.Webhooks = kept
	s.snap.HasWebhooks = len(kept) > 0
}

func (s *Store) copyLocked() Snapshot {
	snap := s.snap
	snap.Webhooks = append([]api.Webhook(nil), s.snap.Webhooks...)
	return snap
}
