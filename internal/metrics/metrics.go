// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"sync"
	"time"

	"github.com/jdfalk/lending-library/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lending_library"

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	registerOnce sync.Once

	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of catalog operations by type and outcome",
	}, []string{"op", "outcome"})
	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Histogram of catalog operation durations in seconds by type",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // ~0.5ms up to ~1s
	}, []string{"op"})

	booksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "books_total",
		Help:      "Current number of titles in the catalog",
	})
	copiesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "copies_total",
		Help:      "Current number of physical copies owned",
	})
	onLoanGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "copies_on_loan",
		Help:      "Current number of copies on loan",
	})
	overdueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overdue_titles",
		Help:      "Current number of fully lent titles past their due date",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operations, operationDuration, booksGauge, copiesGauge, onLoanGauge, overdueGauge)
	})
}

// ObserveOperation records one finished operation
func ObserveOperation(op, outcome string, d time.Duration) {
	operations.WithLabelValues(op, outcome).Inc()
	operationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetCatalog updates the catalog gauges
func SetCatalog(s models.CatalogStats) {
	booksGauge.Set(float64(s.Titles))
	copiesGauge.Set(float64(s.Copies))
	onLoanGauge.Set(float64(s.CopiesOnLoan))
	overdueGauge.Set(float64(s.OverdueTitles))
}
