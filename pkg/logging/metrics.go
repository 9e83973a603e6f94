// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	m "github.com/camronh/Lottery-Tutorial/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// countedLevels are the levels with a message counter. Panic and fatal
// messages end the process before they could be scraped.
var countedLevels = []logrus.Level{
	logrus.ErrorLevel,
	logrus.WarnLevel,
	logrus.InfoLevel,
	logrus.DebugLevel,
	logrus.TraceLevel,
}

type metrics struct {
	// all metrics fields must be exported
	// to be able to return them by Metrics()
	// using reflection
	MessageCount *prometheus.CounterVec
}

func newMetrics() metrics {
	return metrics{
		MessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: m.Namespace,
				Subsystem: "log",
				Name:      "message_count",
				Help:      "Number of log messages per level.",
			},
			[]string{"level"},
		),
	}
}

func (l *logger) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(l.metrics)
}

// Levels implements logrus.Hook.
func (m metrics) Levels() []logrus.Level {
	return countedLevels
}

// Fire implements logrus.Hook.
func (m metrics) Fire(e *logrus.Entry) error {
	m.MessageCount.WithLabelValues(e.Level.String()).Inc()
	return nil
}
