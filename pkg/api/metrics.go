// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strconv"
	"time"

	lotterytutorial "github.com/camronh/Lottery-Tutorial"
	m "github.com/camronh/Lottery-Tutorial/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	// all metrics fields must be exported
	// to be able to return them by Metrics()
	// using reflection
	RequestCount       prometheus.Counter
	ResponseDuration   *prometheus.HistogramVec
	ResponseCodeCounts *prometheus.CounterVec
	RejectedOperations *prometheus.CounterVec
}

func newMetrics() metrics {
	subsystem := "api"

	return metrics{
		RequestCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "request_count",
			Help:      "Number of API requests.",
		}),
		ResponseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: m.Namespace,
				Subsystem: subsystem,
				Name:      "response_duration_seconds",
				Help:      "Histogram of API response durations grouped by route.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"route"},
		),
		ResponseCodeCounts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: m.Namespace,
				Subsystem: subsystem,
				Name:      "response_code_count",
				Help:      "Response count grouped by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		RejectedOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: m.Namespace,
				Subsystem: subsystem,
				Name:      "rejected_operations_count",
				Help:      "Lottery operations rejected through the API grouped by operation and reason.",
			},
			[]string{"operation", "reason"},
		),
	}
}

func (s *Service) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(s.metrics)
}

func (s *Service) requestCountHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.RequestCount.Inc()
		h.ServeHTTP(w, r)
	})
}

// routeMetricsHandler records the duration and the status code of the
// requests served by a route. route is the path template, so that the
// label values do not grow with weeks and addresses.
func (s *Service) routeMetricsHandler(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		h.ServeHTTP(sw, r)
		s.metrics.ResponseDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.metrics.ResponseCodeCounts.WithLabelValues(route, r.Method, strconv.Itoa(sw.statusCode)).Inc()
	})
}

// statusWriter keeps the first status code written to the response.
type statusWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.statusCode = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func newDebugMetrics() (r *prometheus.Registry) {
	r = prometheus.NewRegistry()

	// register standard metrics
	r.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			Namespace: m.Namespace,
		}),
		collectors.NewGoCollector(),
		prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Name:      "info",
			Help:      "Lottery information.",
			ConstLabels: prometheus.Labels{
				"version": lotterytutorial.Version,
			},
		}),
	)

	return r
}

func (s *Service) MetricsRegistry() *prometheus.Registry {
	return s.metricsRegistry
}

func (s *Service) MustRegisterMetrics(cs ...prometheus.Collector) {
	s.metricsRegistry.MustRegister(cs...)
}
