// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package diagserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var requestCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dataservice",
		Subsystem: "diag",
		Name:      "requests_total",
		Help:      "Diagnostic requests served, by probe",
	},
	[]string{
		"show",
	},
)

var digestBuilds = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "dataservice",
		Subsystem: "diag",
		Name:      "digest_builds_total",
		Help:      "Configuration digests built",
	},
)

var cacheHits = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "dataservice",
		Subsystem: "diag",
		Name:      "digest_cache_hits_total",
		Help:      "Diagnostic requests answered from the digest cache",
	},
)

var cacheMisses = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "dataservice",
		Subsystem: "diag",
		Name:      "digest_cache_misses_total",
		Help:      "Diagnostic requests that had to build a digest",
	},
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(digestBuilds)
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
}
