// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chartmetrics exposes Prometheus instrumentation for the chart
// controller and its cache, registered through promauto.
package chartmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RendersTotal counts UI renders performed via Controller.respondUI.
	RendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartcore_renders_total",
		Help: "Total number of times a chart render was pushed to the UI.",
	})

	// BackendRequestsTotal counts data requests dispatched to the backend.
	BackendRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartcore_backend_requests_total",
		Help: "Total number of temperature data requests sent to the backend.",
	})

	// StaleRepliesDroppedTotal counts backend replies absorbed into the
	// cache but not rendered because a newer window request supersedes them.
	StaleRepliesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartcore_stale_replies_dropped_total",
		Help: "Total number of backend replies merged into the cache but not rendered because they were stale.",
	})

	// CacheIntervals reports the current number of intervals stored in the
	// controller's cache, sampled on demand (see Controller.CacheStats).
	CacheIntervals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chartcore_cache_intervals",
		Help: "Number of intervals currently stored in the chart cache.",
	})

	// CacheFinestResolutionSeconds reports the finest resolution, in
	// seconds, currently held anywhere in the cache.
	CacheFinestResolutionSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chartcore_cache_finest_resolution_seconds",
		Help: "Finest resolution, in seconds, currently held in the chart cache.",
	})
)
