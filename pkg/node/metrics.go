// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"github.com/camronh/Lottery-Tutorial/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type nodeMetrics struct {
	// BlocksMined counts the blocks that followed the wall clock.
	BlocksMined prometheus.Counter
}

func newMetrics() nodeMetrics {
	subsystem := "simchain"

	return nodeMetrics{
		BlocksMined: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystem,
				Name:      "blocks_mined_count",
				Help:      "Number of blocks mined at the wall clock time.",
			},
		),
	}
}

func (m nodeMetrics) collectors() []prometheus.Collector {
	return metrics.PrometheusCollectorsFromFields(m)
}
