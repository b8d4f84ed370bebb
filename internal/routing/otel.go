package routing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/trailmark/routeplanner/internal/routing"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
