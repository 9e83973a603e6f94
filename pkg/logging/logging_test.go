// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestParseVerbosity(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		verbosity string
		logged    []string
	}{
		{verbosity: "silent"},
		{verbosity: "1", logged: []string{"entry closed"}},
		{verbosity: "warn", logged: []string{"entry closed", "draw retried"}},
		{verbosity: "5", logged: []string{"entry closed", "draw retried", "week resolved", "pot updated", "request sent"}},
	} {
		tc := tc
		t.Run(tc.verbosity, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := logging.ParseVerbosity(&buf, tc.verbosity)
			if err != nil {
				t.Fatal(err)
			}
			logger.Error("entry closed")
			logger.Warning("draw retried")
			logger.Info("week resolved")
			logger.Debug("pot updated")
			logger.Trace("request sent")

			out := buf.String()
			if got := strings.Count(out, "\n"); got != len(tc.logged) {
				t.Fatalf("got %d lines, want %d:\n%s", got, len(tc.logged), out)
			}
			for _, msg := range tc.logged {
				if !strings.Contains(out, msg) {
					t.Errorf("message %q not logged:\n%s", msg, out)
				}
			}
		})
	}

	if _, err := logging.ParseVerbosity(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected an error for an unknown verbosity")
	}
}

func TestMessageCount(t *testing.T) {
	t.Parallel()

	logger, err := logging.ParseVerbosity(&bytes.Buffer{}, "info")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("week resolved")
	logger.Infof("week %d resolved", 2)
	logger.Warning("draw retried")
	logger.Debug("not logged")

	count, ok := logger.Metrics()[0].(*prometheus.CounterVec)
	if !ok {
		t.Fatalf("got collector %T, want a counter vector", logger.Metrics()[0])
	}
	for level, want := range map[string]float64{"info": 2, "warning": 1, "debug": 0} {
		if got := testutil.ToFloat64(count.WithLabelValues(level)); got != want {
			t.Errorf("got %v %s messages, want %v", got, level, want)
		}
	}
}
