// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery

import (
	m "github.com/camronh/Lottery-Tutorial/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	// all metrics fields must be exported
	// to be able to return them by Metrics()
	// using reflection
	EntriesCount     prometheus.Counter
	PayoutsCount     prometheus.Counter
	RolloversCount   prometheus.Counter
	DrawRequests     prometheus.Counter
	ExpiredRequests  prometheus.Counter
	Fulfillments     prometheus.Counter
	EntriesCacheHits prometheus.Counter
	Week             prometheus.Gauge
	PotWei           prometheus.Gauge
}

func newMetrics() metrics {
	subsystem := "lottery"

	return metrics{
		EntriesCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "entries_count",
			Help:      "Number of tickets sold.",
		}),
		PayoutsCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "payouts_count",
			Help:      "Number of winning entries paid.",
		}),
		RolloversCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "rollovers_count",
			Help:      "Number of weeks closed without a winner.",
		}),
		DrawRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "draw_requests_count",
			Help:      "Number of random number requests made.",
		}),
		ExpiredRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "expired_requests_count",
			Help:      "Number of timed out random number requests replaced.",
		}),
		EntriesCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "entries_cache_hits_count",
			Help:      "Number of resolved week entry lookups served from memory.",
		}),
		Fulfillments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fulfillments_count",
			Help:      "Number of random numbers received.",
		}),
		Week: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "week",
			Help:      "Current lottery week.",
		}),
		PotWei: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "pot_wei",
			Help:      "Current pot in wei.",
		}),
	}
}

func (s *Service) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(s.metrics)
}
