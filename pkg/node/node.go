// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node wires the lottery together with its randomness oracle, the
// simulated chain and the HTTP API.
package node

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/api"
	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/camronh/Lottery-Tutorial/pkg/simchain"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/camronh/Lottery-Tutorial/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip39"
)

// DefaultChainID is the chain the simulated lottery pretends to run on. It
// has a known AirnodeRrp deployment.
const DefaultChainID = 5

var DefaultInitialBalance = ether.MustParseEther("10000")

type Options struct {
	DataDir            string
	APIAddr            string
	CORSAllowedOrigins []string

	// Mnemonic of the funded accounts. Account 0 owns the lottery.
	Mnemonic        string
	Accounts        int
	InitialBalance  *big.Int
	AirnodeMnemonic string
	ChainID         int64
	// BlockTime is the interval of mining blocks that follow the wall clock.
	// Zero disables it and the chain only moves through mining requests.
	BlockTime time.Duration

	EndTime     time.Time
	TicketPrice *big.Int
	Period      time.Duration
	DrawTimeout time.Duration
	MinNumber   uint64
	MaxNumber   uint64

	FulfillmentDelay time.Duration
	FulfillmentCost  *big.Int

	// AgentInterval between checks of the draw agent. Zero disables the
	// agent.
	AgentInterval time.Duration
	AgentTopUp    *big.Int
}

// Node is a lottery running on a simulated chain together with an Airnode
// serving its draws.
type Node struct {
	Chain         *simchain.Chain
	RRP           *qrng.RRP
	Airnode       *qrng.Airnode
	Lottery       *lottery.Service
	Agent         *lottery.Agent
	API           *api.Service
	Accounts      []*ecdsa.PrivateKey
	Owner         common.Address
	SponsorWallet common.Address

	logger         logging.Logger
	stateStore     storage.StateStorer
	apiServer      *http.Server
	errorLogWriter io.Closer
	metrics        nodeMetrics
	quit           chan struct{}
	quitOnce       sync.Once
	wg             sync.WaitGroup
}

// NewSimulated creates the simulated chain, funds the mnemonic accounts,
// deploys the lottery from account 0 and starts the Airnode and draw agent.
func NewSimulated(logger logging.Logger, o Options) (_ *Node, err error) {
	if o.Mnemonic == "" {
		o.Mnemonic = wallet.DefaultMnemonic
	}
	if o.AirnodeMnemonic == "" {
		o.AirnodeMnemonic = o.Mnemonic
	}
	if o.Accounts == 0 {
		o.Accounts = 1
	}
	if o.InitialBalance == nil {
		o.InitialBalance = DefaultInitialBalance
	}
	if o.ChainID == 0 {
		o.ChainID = DefaultChainID
	}
	if o.Period == 0 {
		o.Period = lottery.DefaultPeriod
	}

	n := &Node{
		logger:  logger,
		metrics: newMetrics(),
		quit:    make(chan struct{}),
	}
	// Shut down whatever was built when setup fails.
	defer func() {
		if err != nil {
			if e := n.Shutdown(context.Background()); e != nil {
				logger.Errorf("node shutdown: %v", e)
			}
		}
	}()

	n.stateStore, err = InitStateStore(logger, o.DataDir)
	if err != nil {
		return nil, fmt.Errorf("state store: %w", err)
	}

	n.Chain = simchain.New(
		simchain.WithChainID(o.ChainID),
		simchain.WithTimestamp(time.Now()),
	)

	n.Accounts, err = wallet.Accounts(o.Mnemonic, o.Accounts)
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	for _, key := range n.Accounts {
		if err := n.Chain.Fund(wallet.Address(key), o.InitialBalance); err != nil {
			return nil, fmt.Errorf("fund account: %w", err)
		}
	}
	n.Owner = wallet.Address(n.Accounts[0])
	lotteryAddress := crypto.CreateAddress(n.Owner, 0)

	rrpAddress, ok := qrng.RRPAddresses[o.ChainID]
	if !ok {
		rrpAddress = qrng.RRPAddresses[DefaultChainID]
	}
	n.RRP = qrng.NewRRP(rrpAddress, n.Chain.ChainID(), n.Chain, logger)

	seed, err := bip39.NewSeedWithErrorChecking(o.AirnodeMnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("airnode mnemonic: %w", err)
	}
	airnodeKey, err := qrng.NewAirnodeKey(seed)
	if err != nil {
		return nil, fmt.Errorf("airnode key: %w", err)
	}
	n.Airnode, err = qrng.NewAirnode(n.RRP, n.Chain, airnodeKey, logger, qrng.AirnodeOptions{
		Delay:           o.FulfillmentDelay,
		FulfillmentCost: o.FulfillmentCost,
	})
	if err != nil {
		return nil, fmt.Errorf("airnode: %w", err)
	}

	endTime := o.EndTime
	if endTime.IsZero() {
		endTime = n.Chain.Now().Add(o.Period)
	}
	n.Lottery, err = lottery.New(lottery.Options{
		Address:     lotteryAddress,
		Owner:       n.Owner,
		EndTime:     endTime,
		TicketPrice: o.TicketPrice,
		Period:      o.Period,
		MinNumber:   o.MinNumber,
		MaxNumber:   o.MaxNumber,
		DrawTimeout: o.DrawTimeout,
		Airnode:     n.Airnode.Address(),
	}, n.Chain, n.RRP, n.stateStore, logger)
	if err != nil {
		return nil, fmt.Errorf("lottery: %w", err)
	}
	n.RRP.Register(lotteryAddress, n.Lottery)

	// The simulated chain starts empty, so the lottery account gets back
	// the pot restored from the state store.
	if pot := n.Lottery.Pot(); pot.Sign() > 0 {
		if err := n.Chain.Fund(lotteryAddress, pot); err != nil {
			return nil, fmt.Errorf("restore pot: %w", err)
		}
	}

	n.SponsorWallet, err = qrng.DeriveSponsorWalletAddress(n.Airnode.Xpub(), n.Airnode.Address(), lotteryAddress)
	if err != nil {
		return nil, fmt.Errorf("sponsor wallet: %w", err)
	}
	if n.Lottery.SponsorWallet() != n.SponsorWallet {
		if err := n.Lottery.SetSponsorWallet(context.Background(), n.Owner, n.SponsorWallet); err != nil {
			return nil, fmt.Errorf("set sponsor wallet: %w", err)
		}
	}
	logger.Infof("lottery %s owned by %s, sponsor wallet %s", lotteryAddress, n.Owner, n.SponsorWallet)

	if o.AgentInterval > 0 {
		topUp := o.AgentTopUp
		if topUp == nil {
			topUp = lottery.DefaultTopUp
		}
		n.Agent = lottery.NewAgent(n.Lottery, n.Owner, topUp, o.AgentInterval, logger)
	}

	if o.BlockTime > 0 {
		n.wg.Add(1)
		go n.mine(o.BlockTime)
	}

	n.API = api.New(n.Lottery, n.Chain, logger, api.Options{
		CORSAllowedOrigins: o.CORSAllowedOrigins,
	})
	n.API.MustRegisterMetrics(logger.Metrics()...)
	n.API.MustRegisterMetrics(n.Lottery.Metrics()...)
	n.API.MustRegisterMetrics(n.RRP.Metrics()...)
	n.API.MustRegisterMetrics(n.metrics.collectors()...)
	if n.Agent != nil {
		n.API.MustRegisterMetrics(n.Agent.Metrics()...)
	}

	if o.APIAddr != "" {
		apiListener, err := net.Listen("tcp", o.APIAddr)
		if err != nil {
			return nil, fmt.Errorf("api listener: %w", err)
		}

		errorLogWriter := logger.WriterLevel(logrus.ErrorLevel)
		n.errorLogWriter = errorLogWriter
		n.apiServer = &http.Server{
			IdleTimeout:       30 * time.Second,
			ReadHeaderTimeout: 3 * time.Second,
			Handler:           n.API,
			ErrorLog:          log.New(errorLogWriter, "", 0),
		}

		go func() {
			logger.Infof("api address: %s", apiListener.Addr())
			if err := n.apiServer.Serve(apiListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Debugf("api server: %v", err)
				logger.Error("unable to serve api")
			}
		}()
	}

	return n, nil
}

// mine produces a block at the wall clock time every blockTime unless the
// chain has been mined ahead of it.
func (n *Node) mine(blockTime time.Duration) {
	defer n.wg.Done()

	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()

	for {
		select {
		case <-n.quit:
			return
		case now := <-ticker.C:
			if !now.After(n.Chain.Now()) {
				continue
			}
			if err := n.Chain.Mine(now); err != nil {
				n.logger.Debugf("mine block: %v", err)
				continue
			}
			n.metrics.BlocksMined.Inc()
		}
	}
}

// Shutdown stops the API server and all services. It can be called on a
// partially initialized node.
func (n *Node) Shutdown(ctx context.Context) error {
	var mErr error

	if n.apiServer != nil {
		if err := n.apiServer.Shutdown(ctx); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("api server: %w", err))
		}
	}

	n.quitOnce.Do(func() { close(n.quit) })
	n.wg.Wait()

	tryClose := func(c io.Closer, errMsg string) {
		if c == nil {
			return
		}
		if err := c.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", errMsg, err))
		}
	}

	if n.Agent != nil {
		tryClose(n.Agent, "draw agent")
	}
	if n.Airnode != nil {
		tryClose(n.Airnode, "airnode")
	}
	if n.RRP != nil {
		tryClose(n.RRP, "rrp")
	}
	tryClose(n.stateStore, "statestore")
	tryClose(n.errorLogWriter, "error log writer")

	return mErr
}
