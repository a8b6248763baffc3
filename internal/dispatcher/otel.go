package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/unitcore/internal/dispatcher"

// initMetrics creates the instruments on the global meter. They are no-ops
// until a meter provider is installed.
func (d *Dispatcher) initMetrics() error {
	m := otel.Meter(instrumentationName)

	var err error
	if d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Events waiting in a buffered command queue"),
	); err != nil {
		return fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err = m.RegisterCallback(d.observeQueues, d.queueSize); err != nil {
		return fmt.Errorf("registering queue callback: %w", err)
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&d.processed, "dispatcher.events.processed", "Commands handled"},
		{&d.dropped, "dispatcher.events.dropped", "Commands dropped on a full queue"},
		{&d.failed, "dispatcher.events.failed", "Commands whose handler returned an error"},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	if d.duration, err = m.Float64Histogram(
		"dispatcher.event.duration",
		metric.WithDescription("Handler duration"),
		metric.WithUnit("ms"),
	); err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}
	return nil
}

func (d *Dispatcher) observeQueues(_ context.Context, o metric.Observer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for cmd, buf := range d.buffers {
		o.ObserveInt64(d.queueSize, int64(len(buf)), metric.WithAttributes(attribute.String("command", cmd)))
	}
	return nil
}
