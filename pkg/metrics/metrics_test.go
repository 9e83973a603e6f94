// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics_test

import (
	"strings"
	"testing"

	m "github.com/camronh/Lottery-Tutorial/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusCollectorsFromFields(t *testing.T) {
	s := newService()
	collectors := m.PrometheusCollectorsFromFields(s)

	if l := len(collectors); l != 2 {
		t.Fatalf("got %v collectors %+v, want 2", l, collectors)
	}

	m1 := collectors[0].(prometheus.Metric).Desc().String()
	if !strings.Contains(m1, "lottery_entries_count") {
		t.Errorf("unexpected metric %s", m1)
	}

	m2 := collectors[1].(prometheus.Metric).Desc().String()
	if !strings.Contains(m2, "lottery_pot_wei") {
		t.Errorf("unexpected metric %s", m2)
	}
}

func TestNewRegistry(t *testing.T) {
	s := newService()
	r := m.NewRegistry(s)

	s.EntriesCount.Inc()

	families, err := r.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "lottery_lottery_entries_count" {
			found = true
		}
	}
	if !found {
		t.Fatal("entries counter not registered")
	}
}

type service struct {
	// valid metrics
	EntriesCount prometheus.Counter
	PotWei       prometheus.Gauge
	// invalid metrics
	unexportedCount    prometheus.Counter
	UninitializedCount prometheus.Counter
}

func (s *service) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(s)
}

func newService() *service {
	subsystem := "lottery"
	return &service{
		EntriesCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "entries_count",
			Help:      "Number of lottery entries.",
		}),
		PotWei: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "pot_wei",
			Help:      "Current pot.",
		}),
		unexportedCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "unexported_count",
			Help:      "This metrics should not be discoverable by metrics.PrometheusCollectorsFromFields.",
		}),
	}
}
