// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery/lotterycontract"
	"github.com/camronh/Lottery-Tutorial/pkg/node"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	"github.com/camronh/Lottery-Tutorial/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var errNoContractAddress = errors.New("no lottery contract address, deploy one or set --" + optionNameContractAddress)

// chainClient is a connection to a JSON-RPC endpoint with a signing account.
type chainClient struct {
	logger             logging.Logger
	stateStore         storage.StateStorer
	backend            *ethclient.Client
	address            common.Address
	chainID            *big.Int
	transactionService transaction.Service
}

func (c *command) newChainClient(cmd *cobra.Command) (cc *chainClient, err error) {
	logger, err := newLogger(cmd, c.config.GetString(optionNameVerbosity))
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}

	key, err := wallet.FromMnemonic(c.config.GetString(optionNameMnemonic), c.config.GetUint32(optionNameAccountIndex))
	if err != nil {
		return nil, err
	}

	stateStore, err := node.InitStateStore(logger, c.config.GetString(optionNameDataDir))
	if err != nil {
		return nil, err
	}

	backend, address, chainID, transactionService, err := node.InitChain(
		cmd.Context(),
		logger,
		stateStore,
		c.config.GetString(optionNameRPCEndpoint),
		key,
		c.config.GetDuration(optionNamePollInterval),
	)
	if err != nil {
		stateStore.Close()
		return nil, err
	}

	return &chainClient{
		logger:             logger,
		stateStore:         stateStore,
		backend:            backend,
		address:            address,
		chainID:            chainID,
		transactionService: transactionService,
	}, nil
}

// lottery returns the client of the contract named by the contract address
// option or of the last contract deployed on this chain.
func (cc *chainClient) lottery(contractAddress string) (*lotterycontract.Service, error) {
	var address common.Address
	if contractAddress != "" {
		if !common.IsHexAddress(contractAddress) {
			return nil, fmt.Errorf("invalid contract address %q", contractAddress)
		}
		address = common.HexToAddress(contractAddress)
	} else {
		err := cc.stateStore.Get(deployedContractKey(cc.chainID), &address)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errNoContractAddress
		}
		if err != nil {
			return nil, fmt.Errorf("get contract address: %w", err)
		}
	}
	return lotterycontract.New(cc.logger, cc.backend, cc.transactionService, address), nil
}

func (cc *chainClient) storeDeployment(address common.Address) error {
	return cc.stateStore.Put(deployedContractKey(cc.chainID), address)
}

func (cc *chainClient) Close() error {
	var mErr error
	tryClose := func(c io.Closer, errMsg string) {
		if err := c.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", errMsg, err))
		}
	}
	tryClose(cc.transactionService, "transaction service")
	cc.backend.Close()
	tryClose(cc.stateStore, "statestore")
	return mErr
}

func deployedContractKey(chainID *big.Int) string {
	return fmt.Sprintf("lottery_contract_%d", chainID)
}
