// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrng

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/simchain"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/atomic"
)

// DefaultFulfillmentCost is charged to the sponsor wallet for every
// fulfillment, standing in for the gas of the fulfillment transaction.
var DefaultFulfillmentCost = big.NewInt(300_000_000_000_000) // 0.0003 ether

var ErrPublicKey = errors.New("airnode key must be private")

// Ledger moves value between accounts.
type Ledger interface {
	Move(from common.Address, payments ...simchain.Payment) error
}

type AirnodeOptions struct {
	// Delay between receiving a request and fulfilling it.
	Delay time.Duration
	// FulfillmentCost is taken from the sponsor wallet. Nil means
	// DefaultFulfillmentCost.
	FulfillmentCost *big.Int
}

// Airnode answers requests addressed to it with random uint256 values.
type Airnode struct {
	rrp     *RRP
	ledger  Ledger
	xpub    string
	address common.Address
	opts    AirnodeOptions
	logger  logging.Logger
	metrics metrics

	processed atomic.Uint64
	quit      chan struct{}
	wg        sync.WaitGroup
}

// NewAirnode starts an airnode worker for the m/44'/60'/0' key.
func NewAirnode(rrp *RRP, ledger Ledger, key *hdkeychain.ExtendedKey, logger logging.Logger, o AirnodeOptions) (*Airnode, error) {
	if !key.IsPrivate() {
		return nil, ErrPublicKey
	}
	pub, err := key.Neuter()
	if err != nil {
		return nil, err
	}
	xpub := pub.String()
	address, err := AirnodeAddressFromXpub(xpub)
	if err != nil {
		return nil, err
	}
	if o.FulfillmentCost == nil {
		o.FulfillmentCost = DefaultFulfillmentCost
	}

	a := &Airnode{
		rrp:     rrp,
		ledger:  ledger,
		xpub:    xpub,
		address: address,
		opts:    o,
		logger:  logger,
		metrics: rrp.metrics,
		quit:    make(chan struct{}),
	}

	a.wg.Add(1)
	go a.start()

	return a, nil
}

func (a *Airnode) Address() common.Address {
	return a.address
}

func (a *Airnode) Xpub() string {
	return a.xpub
}

// Processed returns the number of successfully fulfilled requests.
func (a *Airnode) Processed() uint64 {
	return a.processed.Load()
}

func (a *Airnode) start() {
	defer a.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-a.quit
		cancel()
	}()

	for {
		select {
		case <-a.quit:
			return
		case p := <-a.rrp.Requests():
			if p.Airnode != a.address {
				a.logger.Debugf("airnode: skipping request %s for airnode %s", p.ID, p.Airnode)
				continue
			}
			if a.opts.Delay > 0 {
				select {
				case <-time.After(a.opts.Delay):
				case <-a.quit:
					return
				}
			}
			if err := a.handle(ctx, p); err != nil {
				a.metrics.DroppedCount.Inc()
				a.logger.Warningf("airnode: request %s dropped: %v", p.ID, err)
				continue
			}
			a.processed.Inc()
		}
	}
}

func (a *Airnode) handle(ctx context.Context, p PendingRequest) error {
	wallet, err := DeriveSponsorWalletAddress(a.xpub, a.address, p.Sponsor)
	if err != nil {
		return err
	}
	if wallet != p.SponsorWallet {
		return errors.New("sponsor wallet does not belong to sponsor")
	}

	if err := a.ledger.Move(p.SponsorWallet, simchain.Payment{To: a.address, Value: a.opts.FulfillmentCost}); err != nil {
		return err
	}

	n, err := RandomUint256()
	if err != nil {
		return err
	}
	data, err := EncodeUint256(n)
	if err != nil {
		return err
	}

	a.logger.Debugf("airnode: fulfilling request %s", p.ID)
	return a.rrp.Fulfill(ctx, a.address, p.ID, data)
}

func (a *Airnode) Close() error {
	close(a.quit)
	a.wg.Wait()
	return nil
}
