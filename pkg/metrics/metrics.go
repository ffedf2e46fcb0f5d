// Package metrics holds the Prometheus collectors zcc updates while it
// installs packs and talks to pack sources.
//
// All methods are safe on a nil *Metrics, so callers that do not collect
// simply pass nil.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "zcc"

// Metrics groups the collectors.
type Metrics struct {
	packInstalls     *prometheus.CounterVec
	packUninstalls   prometheus.Counter
	installConflicts prometheus.Counter
	filesRegistered  prometheus.Counter
	sourceFetches    *prometheus.CounterVec
	sourceCacheHits  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is useful for tests that read values directly.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		packInstalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pack_installs_total",
			Help:      "Pack install attempts by result.",
		}, []string{"result"}),
		packUninstalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pack_uninstalls_total",
			Help:      "Packs uninstalled.",
		}),
		installConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "install_conflicts_total",
			Help:      "Target paths refused because another pack owns them.",
		}),
		filesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "files_registered_total",
			Help:      "Files written and recorded in the file registry.",
		}),
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_fetches_total",
			Help:      "Fetches issued to pack sources by source, kind and result.",
		}, []string{"source", "kind", "result"}),
		sourceCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_cache_hits_total",
			Help:      "Pack source lookups served from cache.",
		}, []string{"source"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.packInstalls,
			m.packUninstalls,
			m.installConflicts,
			m.filesRegistered,
			m.sourceFetches,
			m.sourceCacheHits,
		)
	}

	return m
}

// PackInstalled records one install attempt.
func (m *Metrics) PackInstalled(success bool) {
	if m == nil {
		return
	}
	m.packInstalls.WithLabelValues(resultLabel(success)).Inc()
}

// PackUninstalled records one uninstall.
func (m *Metrics) PackUninstalled() {
	if m == nil {
		return
	}
	m.packUninstalls.Inc()
}

// Conflicts records refused target paths.
func (m *Metrics) Conflicts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.installConflicts.Add(float64(n))
}

// FileRegistered records one file written and registered.
func (m *Metrics) FileRegistered() {
	if m == nil {
		return
	}
	m.filesRegistered.Inc()
}

// SourceFetch records a fetch against a source. kind is "index",
// "manifest" or "component".
func (m *Metrics) SourceFetch(source, kind string, err error) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, kind, resultLabel(err == nil)).Inc()
}

// CacheHit records a lookup served from a source cache.
func (m *Metrics) CacheHit(source string) {
	if m == nil {
		return
	}
	m.sourceCacheHits.WithLabelValues(source).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
