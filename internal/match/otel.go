package match

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/cradlewars/arena/internal/match"

type metrics struct {
	ticks            metric.Int64Counter
	tickDuration     metric.Float64Histogram
	commandsDropped  metric.Int64Counter
	snapshotsDropped metric.Int64Counter
}

// newMetrics uses the global OTel meter (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		out metrics
		err error
	)

	out.ticks, err = m.Int64Counter(
		"match.ticks",
		metric.WithDescription("Total simulation ticks run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	out.tickDuration, err = m.Float64Histogram(
		"match.tick.duration",
		metric.WithDescription("Time spent in one simulation tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	out.commandsDropped, err = m.Int64Counter(
		"match.commands.dropped",
		metric.WithDescription("Commands dropped because the match queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped command counter: %w", err)
	}

	out.snapshotsDropped, err = m.Int64Counter(
		"match.snapshots.dropped",
		metric.WithDescription("Post-tick notifications the dispatcher did not accept"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped snapshot counter: %w", err)
	}

	return &out, nil
}
