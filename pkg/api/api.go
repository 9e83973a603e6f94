// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package api implements the HTTP API of a lottery run on the simulated
// chain.
//
// Requests name the acting account in the body ("participant" or "caller"),
// like the unlocked accounts of a development node. The API does not
// authenticate them, so the owner check of /close only holds for
// clients that do not claim the owner address. Serve it on a trusted
// address only.
package api

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Version of the HTTP API.
const Version = "1.0.0"

// maxBodyBytes limits the JSON request bodies of the POST endpoints.
const maxBodyBytes = 4 * 1024

// Lottery is the lottery surface served by the API.
type Lottery interface {
	Status() lottery.Status
	NumberRange() (min, max uint64)
	EntriesForNumber(number, week uint64) ([]common.Address, error)
	WinningNumber(week uint64) (uint64, error)
	Enter(ctx context.Context, participant common.Address, number uint64, value *big.Int) (uint64, error)
	RequestWinningNumber(ctx context.Context, caller common.Address, value *big.Int) (common.Hash, error)
	CloseWeek(ctx context.Context, caller common.Address, number uint64) (uint64, error)
}

// Chain is the simulated chain the lottery runs on.
type Chain interface {
	BalanceAt(addr common.Address) *big.Int
	Mine(ts time.Time) error
	Now() time.Time
	BlockNumber() uint64
}

type Options struct {
	CORSAllowedOrigins []string
}

type Service struct {
	http.Handler

	lottery            Lottery
	chain              Chain
	logger             logging.Logger
	corsAllowedOrigins []string
	metrics            metrics
	metricsRegistry    *prometheus.Registry
}

// New creates the API handler. Collectors of the served components are
// registered with MustRegisterMetrics and exposed on /metrics.
func New(l Lottery, chain Chain, logger logging.Logger, o Options) *Service {
	s := &Service{
		lottery:            l,
		chain:              chain,
		logger:             logger,
		corsAllowedOrigins: o.CORSAllowedOrigins,
		metrics:            newMetrics(),
		metricsRegistry:    newDebugMetrics(),
	}
	s.metricsRegistry.MustRegister(s.Metrics()...)

	s.setupRouting()

	return s
}

func (s *Service) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, o := range s.corsAllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
