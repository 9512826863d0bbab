package state

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	otelpkg "github.com/ultradns/ultradns-push-notifier/internal/otel"
)

type scriptedRefresher struct {
	script []func() (Snapshot, error)
	calls  atomic.Int32
}

func (r *scriptedRefresher) Refresh(_ context.Context) (Snapshot, error) {
	n := int(r.calls.Add(1)) - 1
	if n >= len(r.script) {
		n = len(r.script) - 1
	}
	return r.script[n]()
}

func pending() (Snapshot, error) {
	return Snapshot{Loaded: true, LoggedIn: true, HasAdminPassword: true}, nil
}

func verified() (Snapshot, error) {
	return Snapshot{Loaded: true, LoggedIn: true, HasAdminPassword: true, SetupComplete: true}, nil
}

func TestPollerStopsOnVerification(t *testing.T) {
	r := &scriptedRefresher{script: []func() (Snapshot, error){pending, pending, pending, verified}}
	p := NewPoller(r, time.Millisecond, nil, nil)

	doneRun := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(doneRun)
	}()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reported verification")
	}
	select {
	case <-doneRun:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after verification")
	}
	if got := r.calls.Load(); got != 4 {
		t.Fatalf("polls = %d, want 4", got)
	}
}

func TestPollerSwallowsErrors(t *testing.T) {
	fail := func() (Snapshot, error) { return Snapshot{}, errors.New("poll failed") }
	r := &scriptedRefresher{script: []func() (Snapshot, error){fail, fail, verified}}
	p := NewPoller(r, time.Millisecond, nil, nil)

	go p.Run(context.Background())
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller gave up after transient errors")
	}
}

func TestPollerCountsTicks(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := otelpkg.NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	r := &scriptedRefresher{script: []func() (Snapshot, error){pending, verified}}
	p := NewPoller(r, time.Millisecond, nil, metrics)
	go p.Run(context.Background())
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reported verification")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var ticks int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "pushadmin.poll.ticks" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("poll.ticks data = %T, want Sum[int64]", m.Data)
			}
			for _, dp := range sum.DataPoints {
				ticks += dp.Value
			}
		}
	}
	if ticks != 2 {
		t.Fatalf("poll ticks = %d, want 2", ticks)
	}
}

func TestPollerCancel(t *testing.T) {
	r := &scriptedRefresher{script: []func() (Snapshot, error){pending}}
	p := NewPoller(r, time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	doneRun := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(doneRun)
	}()
	cancel()

	select {
	case <-doneRun:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return on cancel")
	}
	select {
	case <-p.Done():
		t.Fatal("Done closed on cancel")
	default:
	}
}
