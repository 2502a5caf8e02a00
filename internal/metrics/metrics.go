// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	yearsIndexedTotal      prometheus.Counter
	documentsTotal         *prometheus.CounterVec
	reportsInsertedTotal   prometheus.Counter
	reportsSkippedTotal    *prometheus.CounterVec
	fetchFailuresTotal     *prometheus.CounterVec
	membersDiscoveredTotal prometheus.Counter

	once sync.Once
)

// Document outcomes for the documents_total counter.
const (
	DocDigital     = "digital"
	DocAnalog      = "analog"
	DocUnavailable = "unavailable"
)

// Report skip reasons for the reports_skipped_total counter.
const (
	SkipDuplicate    = "duplicate"
	SkipUnparseable  = "unparseable"
	SkipInsertFailed = "insert_failed"
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		yearsIndexedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ptr_years_indexed_total",
				Help: "Total number of yearly disclosure archives indexed.",
			},
		)

		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ptr_documents_total",
				Help: "Total number of filing documents processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		reportsInsertedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ptr_reports_inserted_total",
				Help: "Total number of trade line items persisted.",
			},
		)

		reportsSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ptr_reports_skipped_total",
				Help: "Total number of trade line items skipped, labeled by reason.",
			},
			[]string{"reason"},
		)

		fetchFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ptr_fetch_failures_total",
				Help: "Total number of failed remote fetches, labeled by endpoint.",
			},
			[]string{"endpoint"},
		)

		membersDiscoveredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ptr_members_discovered_total",
				Help: "Total number of newly discovered House members.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveYearIndexed increments the indexed-years counter.
func ObserveYearIndexed() {
	if yearsIndexedTotal != nil {
		yearsIndexedTotal.Inc()
	}
}

// ObserveDocument records one processed document with its outcome.
func ObserveDocument(outcome string) {
	if documentsTotal != nil {
		documentsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveReportInserted increments the persisted line-item counter.
func ObserveReportInserted() {
	if reportsInsertedTotal != nil {
		reportsInsertedTotal.Inc()
	}
}

// ObserveReportSkipped records one skipped line item with its reason.
func ObserveReportSkipped(reason string) {
	if reportsSkippedTotal != nil {
		reportsSkippedTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveFetchFailure records a failed fetch against the given endpoint.
func ObserveFetchFailure(endpoint string) {
	if fetchFailuresTotal != nil {
		fetchFailuresTotal.WithLabelValues(endpoint).Inc()
	}
}

// ObserveMemberDiscovered increments the new-member counter.
func ObserveMemberDiscovered() {
	if membersDiscoveredTotal != nil {
		membersDiscoveredTotal.Inc()
	}
}
