package worker

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/unitcore/internal/worker"

type metrics struct {
	damage  metric.Int64Counter
	heal    metric.Int64Counter
	kills   metric.Int64Counter
	control metric.Int64Counter
	targets metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	if out.damage, err = m.Int64Counter(
		"combat.damage.applied",
		metric.WithDescription("Damage applied after modifiers and health cap"),
	); err != nil {
		return nil, fmt.Errorf("creating damage counter: %w", err)
	}
	if out.heal, err = m.Int64Counter(
		"combat.heal.applied",
		metric.WithDescription("Healing applied after modifiers and health cap"),
	); err != nil {
		return nil, fmt.Errorf("creating heal counter: %w", err)
	}
	if out.kills, err = m.Int64Counter(
		"combat.kills",
		metric.WithDescription("Units transitioned to dead"),
	); err != nil {
		return nil, fmt.Errorf("creating kill counter: %w", err)
	}
	if out.control, err = m.Int64Counter(
		"control.state.changes",
		metric.WithDescription("Control-state requests that changed the active state"),
	); err != nil {
		return nil, fmt.Errorf("creating control counter: %w", err)
	}
	if out.targets, err = m.Int64Counter(
		"targeting.requests",
		metric.WithDescription("Auto-target requests"),
	); err != nil {
		return nil, fmt.Errorf("creating targeting counter: %w", err)
	}
	return out, nil
}
