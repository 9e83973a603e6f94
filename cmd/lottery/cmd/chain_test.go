// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/camronh/Lottery-Tutorial/cmd/lottery/cmd"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
)

func chainArgs(t *testing.T, command, endpoint string, args ...string) []string {
	t.Helper()

	return append([]string{
		command,
		"--rpc-endpoint", endpoint,
		"--data-dir", t.TempDir(),
		"--verbosity", "0",
	}, args...)
}

func TestBalanceCmd(t *testing.T) {
	t.Parallel()

	srv := newRPCServer(t, map[string]rpcHandlerFunc{
		"eth_chainId":    result("0x5"),
		"eth_getBalance": result("0xde0b6b3a7640000"),
	})

	var outputBuf bytes.Buffer
	if err := newCommand(t,
		cmd.WithArgs(chainArgs(t, "balance", srv.URL)...),
		cmd.WithOutput(&outputBuf),
	).Execute(); err != nil {
		t.Fatal(err)
	}

	want := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266: (1 ETH)\n"
	if got := outputBuf.String(); got != want {
		t.Errorf("got output %q, want %q", got, want)
	}
}

func TestSponsorCmd(t *testing.T) {
	t.Parallel()

	srv := newRPCServer(t, map[string]rpcHandlerFunc{
		"eth_chainId": result("0x5"),
	})
	contractAddress := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	var outputBuf bytes.Buffer
	if err := newCommand(t,
		cmd.WithArgs(chainArgs(t, "sponsor", srv.URL, "--contract-address", contractAddress.Hex())...),
		cmd.WithOutput(&outputBuf),
	).Execute(); err != nil {
		t.Fatal(err)
	}

	sponsorWallet, err := qrng.DeriveSponsorWalletAddress(qrng.Xpub, qrng.AirnodeAddress, contractAddress)
	if err != nil {
		t.Fatal(err)
	}
	want := "Sponsor wallet: " + sponsorWallet.Hex() + "\n"
	if got := outputBuf.String(); got != want {
		t.Errorf("got output %q, want %q", got, want)
	}
}

func TestEnterCmdNoContract(t *testing.T) {
	t.Parallel()

	srv := newRPCServer(t, map[string]rpcHandlerFunc{
		"eth_chainId": result("0x5"),
	})

	err := newCommand(t,
		cmd.WithArgs(chainArgs(t, "enter", srv.URL, "--number", "2")...),
		cmd.WithOutput(new(bytes.Buffer)),
	).Execute()
	if !errors.Is(err, cmd.ErrNoContractAddress) {
		t.Fatalf("got error %v, want %v", err, cmd.ErrNoContractAddress)
	}
	if diff := cmp.Diff([]string{"eth_chainId"}, srv.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMineCmd(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		offset interface{}
	}{
		{name: "numeric clock offset", offset: 3600},
		{name: "decimal string clock offset", offset: "3600"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mineParams := make(chan []json.RawMessage, 1)
			srv := newRPCServer(t, map[string]rpcHandlerFunc{
				"evm_increaseTime": result(tc.offset),
				"evm_mine": func(params []json.RawMessage) (interface{}, error) {
					mineParams <- params
					return "0x0", nil
				},
				"eth_getBlockByNumber": result(map[string]string{
					"number":    "0x10",
					"timestamp": "0x6553f100",
				}),
			})

			var outputBuf bytes.Buffer
			if err := newCommand(t,
				cmd.WithArgs("mine",
					"--rpc-endpoint", srv.URL,
					"--verbosity", "0",
					"--increase", "1h",
					"--timestamp", "1700000000",
				),
				cmd.WithOutput(&outputBuf),
			).Execute(); err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff([]string{"evm_increaseTime", "evm_mine", "eth_getBlockByNumber"}, srv.Calls()); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			if params := <-mineParams; len(params) != 1 || string(params[0]) != "1700000000" {
				t.Errorf("got evm_mine params %s, want [1700000000]", params)
			}
			want := "Mined block 16 at 1700000000\n"
			if got := outputBuf.String(); got != want {
				t.Errorf("got output %q, want %q", got, want)
			}
		})
	}
}
