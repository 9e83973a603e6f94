// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transaction

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs transactions of a single account.
type Signer interface {
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
	EthereumAddress() common.Address
}

type defaultSigner struct {
	key *ecdsa.PrivateKey
}

func NewSigner(key *ecdsa.PrivateKey) Signer {
	return &defaultSigner{key: key}
}

func (d *defaultSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), d.key)
}

func (d *defaultSigner) EthereumAddress() common.Address {
	return crypto.PubkeyToAddress(d.key.PublicKey)
}
