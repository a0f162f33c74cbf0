package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// installsTotal tracks install attempts by result.
	installsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_lifecycle_installs_total",
			Help: "Total install attempts by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	// partitionEvictions counts stale partitions deleted during activation.
	partitionEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_lifecycle_partition_evictions_total",
			Help: "Total stale partitions evicted during activation",
		},
	)
)
