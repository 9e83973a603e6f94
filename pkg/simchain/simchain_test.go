// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simchain_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/simchain"
	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.HexToAddress("0x01")
	bob   = common.HexToAddress("0x02")
	carol = common.HexToAddress("0x03")
)

func TestMove(t *testing.T) {
	c := simchain.New(simchain.WithBalance(alice, big.NewInt(100)))

	err := c.Move(alice,
		simchain.Payment{To: bob, Value: big.NewInt(30)},
		simchain.Payment{To: carol, Value: big.NewInt(20)},
	)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		addr common.Address
		want int64
	}{
		{alice, 50},
		{bob, 30},
		{carol, 20},
	} {
		if got := c.BalanceAt(tc.addr); got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("balance of %s: got %s, want %d", tc.addr, got, tc.want)
		}
	}
}

func TestMoveAtomic(t *testing.T) {
	c := simchain.New(simchain.WithBalance(alice, big.NewInt(40)))

	err := c.Move(alice,
		simchain.Payment{To: bob, Value: big.NewInt(30)},
		simchain.Payment{To: carol, Value: big.NewInt(20)},
	)
	if !errors.Is(err, simchain.ErrInsufficientBalance) {
		t.Fatalf("got error %v, want %v", err, simchain.ErrInsufficientBalance)
	}
	if got := c.BalanceAt(alice); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("balance changed to %s", got)
	}
	if got := c.BalanceAt(bob); got.Sign() != 0 {
		t.Fatalf("partial payment applied: %s", got)
	}
}

func TestMoveNegative(t *testing.T) {
	c := simchain.New(simchain.WithBalance(alice, big.NewInt(40)))
	err := c.Move(alice, simchain.Payment{To: bob, Value: big.NewInt(-1)})
	if !errors.Is(err, simchain.ErrNegativeValue) {
		t.Fatalf("got error %v, want %v", err, simchain.ErrNegativeValue)
	}
}

func TestMine(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := simchain.New(simchain.WithTimestamp(start))

	if err := c.IncreaseTime(time.Hour); err != nil {
		t.Fatal(err)
	}
	if got, want := c.Now(), start.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("got time %v, want %v", got, want)
	}
	if got := c.BlockNumber(); got != 1 {
		t.Fatalf("got block %d, want 1", got)
	}

	if err := c.Mine(start); !errors.Is(err, simchain.ErrTimeTravel) {
		t.Fatalf("got error %v, want %v", err, simchain.ErrTimeTravel)
	}
	if got := c.BlockNumber(); got != 1 {
		t.Fatalf("block mined on rejected timestamp: %d", got)
	}
}
