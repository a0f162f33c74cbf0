package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// strategyExecutions tracks strategy dispatches by strategy and outcome.
	// Outcomes: network, cache, fallback, unavailable.
	strategyExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_strategy_executions_total",
			Help: "Total strategy executions by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// revalidations tracks background image refreshes by result.
	revalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_revalidations_total",
			Help: "Total background image revalidations by result",
		},
		[]string{"result"}, // "ok", "error"
	)
)
