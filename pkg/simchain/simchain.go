// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simchain is an in-process stand-in for a forked development chain.
// It keeps account balances, a block number and a block timestamp, and
// applies value transfers atomically.
package simchain

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNegativeValue       = errors.New("negative value")
	ErrTimeTravel          = errors.New("timestamp is before the current block")
)

// Payment is a single transfer of Value wei to To.
type Payment struct {
	To    common.Address
	Value *big.Int
}

// Chain is the simulated ledger and block clock. It is safe for concurrent use.
type Chain struct {
	mu        sync.RWMutex
	chainID   int64
	balances  map[common.Address]*big.Int
	number    uint64
	timestamp int64
}

// Option configures a Chain.
type Option func(*Chain)

// WithTimestamp sets the timestamp of the genesis block.
func WithTimestamp(ts time.Time) Option {
	return func(c *Chain) {
		c.timestamp = ts.Unix()
	}
}

// WithChainID sets the chain id reported by ChainID.
func WithChainID(id int64) Option {
	return func(c *Chain) {
		c.chainID = id
	}
}

// WithBalance credits addr at genesis.
func WithBalance(addr common.Address, value *big.Int) Option {
	return func(c *Chain) {
		c.balances[addr] = new(big.Int).Set(value)
	}
}

// New creates a chain at block 0. Without WithTimestamp the genesis block is
// stamped with the current wall clock time.
func New(opts ...Option) *Chain {
	c := &Chain{
		chainID:   5,
		balances:  make(map[common.Address]*big.Int),
		timestamp: time.Now().Unix(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Chain) ChainID() *big.Int {
	return big.NewInt(c.chainID)
}

// Fund credits value wei to addr out of thin air.
func (c *Chain) Fund(addr common.Address, value *big.Int) error {
	if value.Sign() < 0 {
		return ErrNegativeValue
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(addr, value)
	return nil
}

// BalanceAt returns a copy of the balance of addr.
func (c *Chain) BalanceAt(addr common.Address) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Move transfers all payments out of from. Either every payment is applied or
// none is.
func (c *Chain) Move(from common.Address, payments ...Payment) error {
	total := new(big.Int)
	for _, p := range payments {
		if p.Value == nil || p.Value.Sign() < 0 {
			return ErrNegativeValue
		}
		total.Add(total, p.Value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	balance, ok := c.balances[from]
	if !ok {
		balance = new(big.Int)
	}
	if balance.Cmp(total) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, balance, total)
	}

	c.balances[from] = new(big.Int).Sub(balance, total)
	for _, p := range payments {
		c.credit(p.To, p.Value)
	}
	return nil
}

func (c *Chain) credit(addr common.Address, value *big.Int) {
	b, ok := c.balances[addr]
	if !ok {
		b = new(big.Int)
	}
	c.balances[addr] = new(big.Int).Add(b, value)
}

// Mine produces a new block with the given timestamp, like evm_mine.
func (c *Chain) Mine(ts time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts.Unix() < c.timestamp {
		return fmt.Errorf("%w: %d < %d", ErrTimeTravel, ts.Unix(), c.timestamp)
	}
	c.timestamp = ts.Unix()
	c.number++
	return nil
}

// IncreaseTime mines a block d after the current one.
func (c *Chain) IncreaseTime(d time.Duration) error {
	if d < 0 {
		return ErrTimeTravel
	}
	return c.Mine(c.Now().Add(d))
}

// Now returns the timestamp of the latest block.
func (c *Chain) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Unix(c.timestamp, 0)
}

func (c *Chain) BlockNumber() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.number
}
