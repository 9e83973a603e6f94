// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lotterycontract_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/lottery/lotterycontract"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	transactionMock "github.com/camronh/Lottery-Tutorial/pkg/transaction/mock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const testArtifact = `{
  "contractName": "Lottery",
  "abi": [{"inputs":[{"internalType":"uint256","name":"_endTime","type":"uint256"},{"internalType":"address","name":"_airnodeRrp","type":"address"}],"stateMutability":"nonpayable","type":"constructor"}],
  "bytecode": "0x6080604052"
}`

func TestParseArtifact(t *testing.T) {
	t.Parallel()

	a, err := lotterycontract.ParseArtifact([]byte(testArtifact))
	if err != nil {
		t.Fatal(err)
	}
	if a.ContractName != "Lottery" {
		t.Fatalf("got contract name %q", a.ContractName)
	}
	if !bytes.Equal(a.Bytecode, []byte{0x60, 0x80, 0x60, 0x40, 0x52}) {
		t.Fatalf("got bytecode %x", a.Bytecode)
	}

	_, err = lotterycontract.ParseArtifact([]byte(`{"contractName":"Lottery","bytecode":"0x"}`))
	if !errors.Is(err, lotterycontract.ErrNoBytecode) {
		t.Fatalf("got error %v, want %v", err, lotterycontract.ErrNoBytecode)
	}
}

func TestLoadArtifact(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Lottery.json")
	if err := os.WriteFile(path, []byte(testArtifact), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := lotterycontract.LoadArtifact(path); err != nil {
		t.Fatal(err)
	}
	if _, err := lotterycontract.LoadArtifact(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestDeploy(t *testing.T) {
	t.Parallel()

	a, err := lotterycontract.ParseArtifact([]byte(testArtifact))
	if err != nil {
		t.Fatal(err)
	}
	endTime := time.Unix(1700000000, 0)
	rrp := qrng.RRPAddresses[5]

	wantData, err := a.DeployData(endTime, rrp)
	if err != nil {
		t.Fatal(err)
	}
	// bytecode followed by two abi words
	if len(wantData) != len(a.Bytecode)+64 {
		t.Fatalf("got deploy data length %d", len(wantData))
	}

	txService := transactionMock.New(
		transactionMock.WithSendFunc(func(_ context.Context, request *transaction.TxRequest) (common.Hash, error) {
			if request.To != nil {
				return common.Hash{}, errors.New("deployment with recipient")
			}
			if !bytes.Equal(request.Data, wantData) {
				return common.Hash{}, errors.New("wrong deploy data")
			}
			if request.Value.Sign() != 0 {
				return common.Hash{}, errors.New("deployment with value")
			}
			return txHash, nil
		}),
		transactionMock.WithWaitForReceiptFunc(func(context.Context, common.Hash) (*types.Receipt, error) {
			return &types.Receipt{Status: types.ReceiptStatusSuccessful, ContractAddress: contractAddress}, nil
		}),
	)

	addr, hash, err := lotterycontract.Deploy(context.Background(), txService, a, endTime, rrp)
	if err != nil {
		t.Fatal(err)
	}
	if addr != contractAddress {
		t.Fatalf("got address %s, want %s", addr, contractAddress)
	}
	if hash != txHash {
		t.Fatalf("got tx hash %s, want %s", hash, txHash)
	}
}
