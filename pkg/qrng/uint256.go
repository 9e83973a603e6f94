// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrng

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	ErrInvalidData = errors.New("invalid uint256 data")

	uint256Arguments = func() abi.Arguments {
		t, err := abi.NewType("uint256", "", nil)
		if err != nil {
			panic(err)
		}
		return abi.Arguments{{Type: t}}
	}()

	maxUint256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// EncodeUint256 ABI encodes n as a single uint256 value.
func EncodeUint256(n *big.Int) ([]byte, error) {
	return uint256Arguments.Pack(n)
}

// DecodeUint256 decodes fulfillment data holding a single uint256.
func DecodeUint256(data []byte) (*big.Int, error) {
	values, err := uint256Arguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	n, ok := abi.ConvertType(values[0], new(big.Int)).(*big.Int)
	if !ok {
		return nil, ErrInvalidData
	}
	return n, nil
}

// RandomUint256 returns a uniformly distributed random uint256.
func RandomUint256() (*big.Int, error) {
	return rand.Int(rand.Reader, maxUint256)
}
