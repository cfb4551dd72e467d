package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCallsTotal counts MCP tool invocations by tool and outcome (ok, error).
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbquery_tool_calls_total",
			Help: "Total number of MCP tool calls handled",
		},
		[]string{"tool", "status"},
	)

	// CompileDuration measures request compilation (parse, validate, render).
	CompileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kbquery_compile_duration_seconds",
			Help:    "Duration of query compilation in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"mode"},
	)

	// SchemaClasses tracks the number of classes in the loaded schema snapshot.
	SchemaClasses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kbquery_schema_classes",
			Help: "Number of classes in the loaded schema snapshot",
		},
	)
)
