package otel

import "go.opentelemetry.io/otel/metric"

// Metrics holds the console's metric instruments.
type Metrics struct {
	RequestDuration metric.Float64Histogram
	RequestErrors   metric.Int64Counter
	PollTicks       metric.Int64Counter
}

// NewMetrics creates all metric instruments from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RequestDuration, err = meter.Float64Histogram("pushadmin.request.duration",
		metric.WithDescription("Backend API request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.RequestErrors, err = meter.Int64Counter("pushadmin.request.errors",
		metric.WithDescription("Backend API request error count"),
	)
	if err != nil {
		return nil, err
	}

	m.PollTicks, err = meter.Int64Counter("pushadmin.poll.ticks",
		metric.WithDescription("Verification poll ticks issued"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
