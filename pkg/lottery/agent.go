// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	m "github.com/camronh/Lottery-Tutorial/pkg/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultPollInterval = 5 * time.Second

// DefaultTopUp is sent to the sponsor wallet with every draw request.
var DefaultTopUp = ether.MustParseEther("0.01")

// Drawer is the part of the lottery the agent drives.
type Drawer interface {
	Status() Status
	RequestWinningNumber(ctx context.Context, caller common.Address, value *big.Int) (common.Hash, error)
}

type agentMetrics struct {
	Checks       prometheus.Counter
	DrawRequests prometheus.Counter
	DrawErrors   prometheus.Counter
}

func newAgentMetrics() agentMetrics {
	subsystem := "lottery_agent"

	return agentMetrics{
		Checks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "checks_count",
			Help:      "Number of times the agent checked the lottery phase.",
		}),
		DrawRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "draw_requests_count",
			Help:      "Number of draws requested by the agent.",
		}),
		DrawErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "draw_errors_count",
			Help:      "Number of failed draw requests.",
		}),
	}
}

// Agent requests the winning number as soon as a week has ended, and again
// whenever a pending request timed out.
type Agent struct {
	logger  logging.Logger
	metrics agentMetrics
	drawer  Drawer
	caller  common.Address
	topUp   *big.Int
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewAgent starts an agent polling the lottery every interval. Draws are
// requested from caller and top up the sponsor wallet with topUp.
func NewAgent(drawer Drawer, caller common.Address, topUp *big.Int, interval time.Duration, logger logging.Logger) *Agent {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	a := &Agent{
		logger:  logger,
		metrics: newAgentMetrics(),
		drawer:  drawer,
		caller:  caller,
		topUp:   topUp,
		quit:    make(chan struct{}),
	}

	a.wg.Add(1)
	go a.start(interval)

	return a
}

func (a *Agent) start(interval time.Duration) {
	defer a.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-a.quit
		cancel()
	}()

	check := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, interval*10)
		defer cancel()

		a.metrics.Checks.Inc()
		st := a.drawer.Status()
		if st.Phase != PhaseEnded {
			return
		}

		id, err := a.drawer.RequestWinningNumber(ctx, a.caller, a.topUp)
		if err != nil {
			if errors.Is(err, ErrDrawInProgress) || errors.Is(err, ErrWeekOpen) {
				return
			}
			a.metrics.DrawErrors.Inc()
			a.logger.Errorf("lottery agent: request winning number for week %d: %v", st.Week, err)
			return
		}
		a.metrics.DrawRequests.Inc()
		a.logger.Infof("lottery agent: week %d ended, requested random number %s", st.Week, id)
	}

	// check once right away so that an ended week is drawn without delay
	check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			check(ctx)
		}
	}
}

func (a *Agent) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(a.metrics)
}

func (a *Agent) Close() error {
	close(a.quit)

	stopped := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("stopping lottery agent with ongoing draw request")
	}
}
