package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "ctxmon"

// merge outcomes
const (
	mergeFastForward = "fast_forward"
	mergeUpToDate    = "up_to_date"
	mergeRejected    = "rejected"
	mergeConflict    = "conflict"
	mergeFailed      = "error"
)

// commit outcomes
const (
	commitOK       = "ok"
	commitConflict = "conflict"
	commitFailed   = "error"
)

// M describes metrics for the core package.
//
// Labels only carry outcomes: branch names are unbounded.
type M struct {
	Commits       *prometheus.CounterVec
	Merges        *prometheus.CounterVec
	Branches      prometheus.Counter
	AncestryWalks prometheus.Histogram
}

// newMetrics registers core metrics on a registerer. A nil registerer leaves metrics unregistered.
func newMetrics(reg prometheus.Registerer) *M {
	factory := promauto.With(reg)

	return &M{
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "repository",
			Name:      "commits_total",
			Help:      "Number of commit attempts, by outcome.",
		}, []string{"outcome"}),
		Merges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "repository",
			Name:      "merges_total",
			Help:      "Number of merge attempts, by outcome.",
		}, []string{"outcome"}),
		Branches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "repository",
			Name:      "branches_created_total",
			Help:      "Number of branches created.",
		}),
		AncestryWalks: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "repository",
			Name:      "ancestry_walk_steps",
			Help:      "Number of revisions visited to decide ancestry.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}
