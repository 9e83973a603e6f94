// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/camronh/Lottery-Tutorial/pkg/node"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/camronh/Lottery-Tutorial/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
)

func newNode(t *testing.T, o node.Options) *node.Node {
	t.Helper()

	n, err := node.NewSimulated(logging.Noop(), o)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := n.Shutdown(context.Background()); err != nil {
			t.Error(err)
		}
	})
	return n
}

func TestNewSimulated(t *testing.T) {
	t.Parallel()

	n := newNode(t, node.Options{Accounts: 3})

	if len(n.Accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(n.Accounts))
	}
	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	if n.Owner != owner {
		t.Fatalf("got owner %s, want %s", n.Owner, owner)
	}
	if got, want := n.Lottery.Address(), common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"); got != want {
		t.Fatalf("got lottery address %s, want %s", got, want)
	}
	for _, key := range n.Accounts {
		if b := n.Chain.BalanceAt(wallet.Address(key)); b.Cmp(node.DefaultInitialBalance) != 0 {
			t.Fatalf("got balance %s, want %s", b, node.DefaultInitialBalance)
		}
	}
	if n.Lottery.SponsorWallet() != n.SponsorWallet {
		t.Fatalf("got sponsor wallet %s, want %s", n.Lottery.SponsorWallet(), n.SponsorWallet)
	}
	want, err := qrng.DeriveSponsorWalletAddress(n.Airnode.Xpub(), n.Airnode.Address(), n.Lottery.Address())
	if err != nil {
		t.Fatal(err)
	}
	if n.SponsorWallet != want {
		t.Fatalf("got sponsor wallet %s, want %s", n.SponsorWallet, want)
	}
	if got := n.Lottery.EndTime(); !got.Equal(time.Unix(n.Chain.Now().Add(lottery.DefaultPeriod).Unix(), 0)) {
		t.Fatalf("got end time %s", got)
	}
	if n.Agent != nil {
		t.Fatal("agent started without an interval")
	}
}

func TestSimulatedDraw(t *testing.T) {
	t.Parallel()

	n := newNode(t, node.Options{
		Accounts:      2,
		AgentInterval: 10 * time.Millisecond,
	})
	ctx := context.Background()
	player := wallet.Address(n.Accounts[1])

	ch := make(chan lottery.ReceivedRandomNumber, 1)
	sub := n.Lottery.SubscribeRandomNumber(ch)
	defer sub.Unsubscribe()

	if _, err := n.Lottery.Enter(ctx, player, 2, n.Lottery.TicketPrice()); err != nil {
		t.Fatal(err)
	}
	if err := n.Chain.Mine(n.Lottery.EndTime()); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-ch:
		if ev.Week != 1 {
			t.Fatalf("got resolved week %d, want 1", ev.Week)
		}
		got, err := n.Lottery.WinningNumber(1)
		if err != nil {
			t.Fatal(err)
		}
		if got != ev.Number {
			t.Fatalf("got winning number %d, want %d", got, ev.Number)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("week was not drawn")
	}

	if n.Lottery.Week() != 2 {
		t.Fatalf("got week %d, want 2", n.Lottery.Week())
	}
}

func TestRestoreFromDataDir(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	ctx := context.Background()

	n, err := node.NewSimulated(logging.Noop(), node.Options{DataDir: dataDir, Accounts: 2})
	if err != nil {
		t.Fatal(err)
	}
	player := wallet.Address(n.Accounts[1])
	if _, err := n.Lottery.Enter(ctx, player, 3, n.Lottery.TicketPrice()); err != nil {
		t.Fatal(err)
	}
	endTime := n.Lottery.EndTime()
	if err := n.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	n = newNode(t, node.Options{DataDir: dataDir, Accounts: 2})

	if got := n.Lottery.EndTime(); !got.Equal(endTime) {
		t.Fatalf("got end time %s, want %s", got, endTime)
	}
	if got := n.Lottery.Pot(); got.Cmp(lottery.DefaultTicketPrice) != 0 {
		t.Fatalf("got pot %s, want %s", got, lottery.DefaultTicketPrice)
	}
	if got := n.Chain.BalanceAt(n.Lottery.Address()); got.Cmp(n.Lottery.Pot()) != 0 {
		t.Fatalf("got lottery balance %s, want pot %s", ether.FormatEther(got), ether.FormatEther(n.Lottery.Pot()))
	}
	entries, err := n.Lottery.EntriesForNumber(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0] != player {
		t.Fatalf("got entries %v, want [%s]", entries, player)
	}
}

func TestInvalidMnemonic(t *testing.T) {
	t.Parallel()

	_, err := node.NewSimulated(logging.Noop(), node.Options{Mnemonic: "not a mnemonic"})
	if !errors.Is(err, wallet.ErrInvalidMnemonic) {
		t.Fatalf("got error %v, want %v", err, wallet.ErrInvalidMnemonic)
	}
}

func TestNewSimulatedSetupErrors(t *testing.T) {
	t.Parallel()

	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = occupied.Close() })

	notADir := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(notADir, []byte("lottery"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name string
		o    node.Options
	}{
		{name: "api address in use", o: node.Options{APIAddr: occupied.Addr().String()}},
		{name: "data dir is a file", o: node.Options{DataDir: notADir}},
		{name: "invalid airnode mnemonic", o: node.Options{AirnodeMnemonic: "not a mnemonic"}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n, err := node.NewSimulated(logging.Noop(), tc.o)
			if err == nil {
				_ = n.Shutdown(context.Background())
				t.Fatal("expected an error")
			}
			if n != nil {
				t.Fatalf("got node %v with error %v", n, err)
			}
		})
	}
}
