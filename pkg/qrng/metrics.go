// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrng

import (
	m "github.com/camronh/Lottery-Tutorial/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	RequestsCount  prometheus.Counter
	FulfilledCount prometheus.Counter
	FailedCount    prometheus.Counter
	DroppedCount   prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "qrng"

	return metrics{
		RequestsCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "requests_count",
			Help:      "Number of randomness requests made.",
		}),
		FulfilledCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fulfilled_count",
			Help:      "Number of requests fulfilled successfully.",
		}),
		FailedCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "failed_count",
			Help:      "Number of fulfillments rejected by the requester.",
		}),
		DroppedCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "dropped_count",
			Help:      "Number of requests the airnode did not fulfill.",
		}),
	}
}

// Metrics returns the collectors shared by the RRP and its airnodes.
func (r *RRP) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(r.metrics)
}
