// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lotterycontract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrNoBytecode = errors.New("artifact has no bytecode")

// Artifact is a compiled contract as written by Hardhat.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

type artifactJSON struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact reads a Hardhat artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseArtifact(data)
}

func ParseArtifact(data []byte) (*Artifact, error) {
	var a artifactJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if a.Bytecode == "" || a.Bytecode == "0x" {
		return nil, ErrNoBytecode
	}
	code, err := hexutil.Decode(a.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact bytecode: %w", err)
	}

	contractABI := lotteryContractABI
	if len(a.ABI) > 0 {
		if contractABI, err = abi.JSON(bytes.NewReader(a.ABI)); err != nil {
			return nil, fmt.Errorf("artifact abi: %w", err)
		}
	}

	return &Artifact{
		ContractName: a.ContractName,
		ABI:          contractABI,
		Bytecode:     code,
	}, nil
}

// DeployData returns the contract creation payload of the Lottery
// constructor with the given end of the first week and AirnodeRrp address.
func (a *Artifact) DeployData(endTime time.Time, airnodeRrp common.Address) ([]byte, error) {
	args, err := a.ABI.Pack("", big.NewInt(endTime.Unix()), airnodeRrp)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), a.Bytecode...), args...), nil
}

// Deploy creates the Lottery contract and waits for it to be mined.
func Deploy(ctx context.Context, txService transaction.Service, artifact *Artifact, endTime time.Time, airnodeRrp common.Address) (common.Address, common.Hash, error) {
	data, err := artifact.DeployData(endTime, airnodeRrp)
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}

	txHash, err := txService.Send(ctx, &transaction.TxRequest{
		To:          nil,
		Data:        data,
		Value:       big.NewInt(0),
		Description: "lottery deployment",
	})
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}

	receipt, err := txService.WaitForReceipt(ctx, txHash)
	if err != nil {
		return common.Address{}, txHash, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return common.Address{}, txHash, transaction.ErrTransactionReverted
	}
	return receipt.ContractAddress, txHash, nil
}
