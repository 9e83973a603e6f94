// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ether converts between decimal ether amounts and wei.
package ether

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const Decimals = 18

var (
	ErrNegativeAmount = errors.New("negative amount")
	ErrTooPrecise     = errors.New("amount has more than 18 decimals")

	weiPerEther = decimal.New(1, Decimals)
)

// ParseEther parses a decimal ether amount like "0.0001" into wei.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse ether %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	wei := d.Mul(weiPerEther)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, ErrTooPrecise
	}
	return wei.BigInt(), nil
}

// MustParseEther is ParseEther for constants known to be valid.
func MustParseEther(s string) *big.Int {
	v, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatEther renders wei as a decimal ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -Decimals).String()
}

// BigInt marshals a big.Int as a JSON string of decimal digits so that wei
// amounts survive JavaScript clients.
type BigInt struct {
	big.Int
}

func (i BigInt) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, i.String())), nil
}

func (i *BigInt) UnmarshalJSON(b []byte) error {
	var val string
	if err := json.Unmarshal(b, &val); err != nil {
		return err
	}
	if _, ok := i.SetString(val, 10); !ok {
		return fmt.Errorf("invalid integer %q", val)
	}
	return nil
}

// Wrap returns a copy of v as BigInt. A nil v wraps to zero.
func Wrap(v *big.Int) *BigInt {
	b := new(BigInt)
	if v != nil {
		b.Set(v)
	}
	return b
}

// Unwrap returns the value as *big.Int; nil stays nil.
func (i *BigInt) Unwrap() *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set(&i.Int)
}
