// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wallet derives Ethereum account keys from a BIP39 mnemonic using
// the default m/44'/60'/0'/0/i path, the same accounts a development node
// exposes for its mnemonic.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DefaultMnemonic is the well known development mnemonic.
const DefaultMnemonic = "test test test test test test test test test test test junk"

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

var accountPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
}

// FromMnemonic returns the private key of account index.
func FromMnemonic(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}

	for _, i := range append(accountPath, index) {
		key, err = key.Derive(i)
		if err != nil {
			return nil, fmt.Errorf("derive %d: %w", i, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}

// Accounts returns the first n account keys of the mnemonic.
func Accounts(mnemonic string, n int) ([]*ecdsa.PrivateKey, error) {
	keys := make([]*ecdsa.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		k, err := FromMnemonic(mnemonic, uint32(i))
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Address is the Ethereum address of key.
func Address(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
