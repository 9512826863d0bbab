package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	otelpkg "github.com/ultradns/ultradns-push-notifier/internal/otel"
)

// Refresher is the slice of Store the poller needs.
type Refresher interface {
	Refresh(ctx context.Context) (Snapshot, error)
}

// Poller refreshes the snapshot on a fixed interval until the backend
// reports setup complete, then closes Done exactly once. Fetches run
// sequentially on the ticker loop, so a slow backend never sees
// overlapping polls from us.
type Poller struct {
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
	metrics   *otelpkg.Metrics
	done      chan struct{}
	once      sync.Once
}

func NewPoller(r Refresher, interval time.Duration, logger *slog.Logger, metrics *otelpkg.Metrics) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		refresher: r,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
		done:      make(chan struct{}),
	}
}

// Done is closed when a poll observes setup complete. It stays open
// forever if the poller is cancelled first.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Run polls until verification succeeds or ctx is cancelled. Poll errors
// are logged and retried on the next tick; the backend fires the test
// message, our job is only to notice when it lands.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.metrics != nil {
				p.metrics.PollTicks.Add(ctx, 1)
			}
			snap, err := p.refresher.Refresh(ctx)
			if err != nil {
				p.logger.Debug("verification poll failed", "error", err)
				continue
			}
			if snap.SetupComplete {
				p.once.Do(func() { close(p.done) })
				return
			}
		}
	}
}
