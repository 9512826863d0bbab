package state

import (
	"context"
	"errors"
	"testing"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
)

type stubFetcher struct {
	status *api.Status
	err    error
	calls  int
}

func (f *stubFetcher) FetchStatus(_ context.Context) (*api.Status, error) {
	f.calls++
	return f.status, f.err
}

func TestRefreshInstallsSnapshot(t *testing.T) {
	f := &stubFetcher{status: &api.Status{
		LoggedIn:         true,
		HasAdminPassword: true,
		HasWebhooks:      true,
		Webhooks:         []api.Webhook{{Token: "a", Type: api.PlatformSlack}},
	}}
	s := NewStore(f, nil)

	snap, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !snap.Loaded || !snap.LoggedIn || !snap.HasWebhooks {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Webhooks) != 1 || snap.Webhooks[0].Token != "a" {
		t.Fatalf("webhooks = %+v", snap.Webhooks)
	}
}

func TestRefreshFailureResetsSnapshot(t *testing.T) {
	f := &stubFetcher{status: &api.Status{LoggedIn: true, HasAdminPassword: true}}
	s := NewStore(f, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	f.status, f.err = nil, errors.New("backend down")
	snap, err := s.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected refresh error")
	}
	if snap.Loaded || snap.LoggedIn {
		t.Fatalf("failed refresh kept stale state: %+v", snap)
	}
	if got := s.Snapshot(); got.Loaded {
		t.Fatalf("store kept stale snapshot: %+v", got)
	}
}

func TestSnapshotReturnsCopy(t *testing.T) {
	f := &stubFetcher{status: &api.Status{
		HasWebhooks: true,
		Webhooks:    []api.Webhook{{Token: "a"}, {Token: "b"}},
	}}
	s := NewStore(f, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	snap := s.Snapshot()
	snap.Webhooks[0].Token = "mutated"
	if s.Snapshot().Webhooks[0].Token != "a" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestRemoveWebhook(t *testing.T) {
	f := &stubFetcher{status: &api.Status{
		HasWebhooks: true,
		Webhooks:    []api.Webhook{{Token: "a"}, {Token: "b"}},
	}}
	s := NewStore(f, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	s.RemoveWebhook("a")
	snap := s.Snapshot()
	if len(snap.Webhooks) != 1 || snap.Webhooks[0].Token != "b" {
		t.Fatalf("webhooks after remove = %+v", snap.Webhooks)
	}
	if !snap.HasWebhooks {
		t.Fatal("HasWebhooks flipped with one webhook left")
	}

	s.RemoveWebhook("b")
	if s.Snapshot().HasWebhooks {
		t.Fatal("HasWebhooks still set after last webhook removed")
	}
}
