// Package metrics exposes Prometheus metrics for automaton builds and scans.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildsTotal counts automaton builds by result
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acscan_automaton_builds_total",
			Help: "Total number of automaton builds by result",
		},
		[]string{"result"},
	)

	// BuildDuration tracks automaton construction time
	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "acscan_automaton_build_duration_seconds",
			Help:    "Automaton build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	// AutomatonStates is the state count of the most recently built automaton
	AutomatonStates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "acscan_automaton_states",
			Help: "Number of states in the most recently built automaton",
		},
	)

	// AutomatonPatterns is the pattern count of the most recently built automaton
	AutomatonPatterns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "acscan_automaton_patterns",
			Help: "Number of patterns in the most recently built automaton",
		},
	)

	// BytesScanned counts input bytes fed through sessions
	BytesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acscan_bytes_scanned_total",
			Help: "Total number of input bytes scanned",
		},
		[]string{"source"},
	)

	// ScansTotal counts completed scans by source and outcome
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acscan_scans_total",
			Help: "Total number of completed scans by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// MatchesTotal counts distinct pattern matches reported per scan
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acscan_matches_total",
			Help: "Total number of distinct patterns matched",
		},
		[]string{"source"},
	)

	// OpenStreams is the number of streams that have not been closed
	OpenStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "acscan_open_streams",
			Help: "Number of open scan streams",
		},
	)

	// PatternReloads counts pattern file reloads by result
	PatternReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acscan_pattern_reloads_total",
			Help: "Total number of pattern file reloads by result",
		},
		[]string{"result"},
	)
)

// Result label values
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Outcome label values
const (
	OutcomeMatch   = "match"
	OutcomeClean   = "clean"
	OutcomeError   = "error"
	OutcomeAborted = "aborted"
)

// Source label values
const (
	SourceFile   = "file"
	SourceStream = "stream"
	SourceReader = "reader"
	SourceInput  = "input"
	SourcePcap   = "pcap"
)

// ObserveBuild records one automaton build.
func ObserveBuild(d time.Duration, patterns, states int, err error) {
	if err != nil {
		BuildsTotal.WithLabelValues(ResultError).Inc()
		return
	}
	BuildsTotal.WithLabelValues(ResultOK).Inc()
	BuildDuration.Observe(d.Seconds())
	AutomatonStates.Set(float64(states))
	AutomatonPatterns.Set(float64(patterns))
}

// ObserveScan records one completed scan of n bytes with the given number of
// distinct matches.
func ObserveScan(source string, n int64, matches int, err error) {
	BytesScanned.WithLabelValues(source).Add(float64(n))
	switch {
	case err != nil:
		ScansTotal.WithLabelValues(source, OutcomeError).Inc()
	case matches > 0:
		ScansTotal.WithLabelValues(source, OutcomeMatch).Inc()
		MatchesTotal.WithLabelValues(source).Add(float64(matches))
	default:
		ScansTotal.WithLabelValues(source, OutcomeClean).Inc()
	}
}

// ObserveReload records one pattern reload.
func ObserveReload(err error) {
	if err != nil {
		PatternReloads.WithLabelValues(ResultError).Inc()
		return
	}
	PatternReloads.WithLabelValues(ResultOK).Inc()
}
