// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaconv_conversions_total",
			Help: "Total number of finished conversions by terminal status",
		},
		[]string{"status"},
	)

	ConversionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaconv_conversions_active",
			Help: "Number of conversions currently running",
		},
	)

	WatchSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaconv_watch_submissions_total",
			Help: "Total number of conversions submitted by the watch folder",
		},
	)
)

// Init pre-populates every label combination so all series are exported
// from the first scrape.
func Init() {
	for _, status := range []string{"done", "failed", "canceled"} {
		ConversionsTotal.WithLabelValues(status)
	}
}
