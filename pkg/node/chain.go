// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var _ transaction.Backend = (*ethclient.Client)(nil)

// InitChain will initialize the Ethereum backend at the given endpoint and
// set up the Transaction Service to interact with it using the provided key.
func InitChain(
	ctx context.Context,
	logger logging.Logger,
	stateStore storage.StateStorer,
	endpoint string,
	key *ecdsa.PrivateKey,
	pollInterval time.Duration,
) (*ethclient.Client, common.Address, *big.Int, transaction.Service, error) {
	backend, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, common.Address{}, nil, nil, fmt.Errorf("dial eth client: %w", err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		logger.Infof("could not connect to backend at %v. A working blockchain node is required. Check your node or specify another node using --rpc-endpoint.", endpoint)
		backend.Close()
		return nil, common.Address{}, nil, nil, fmt.Errorf("get chain id: %w", err)
	}

	signer := transaction.NewSigner(key)
	transactionService, err := transaction.NewService(logger, backend, signer, stateStore, chainID, pollInterval)
	if err != nil {
		backend.Close()
		return nil, common.Address{}, nil, nil, fmt.Errorf("new transaction service: %w", err)
	}

	logger.Debugf("connected to chain %d at %s as %s", chainID, endpoint, signer.EthereumAddress())
	return backend, signer.EthereumAddress(), chainID, transactionService, nil
}
