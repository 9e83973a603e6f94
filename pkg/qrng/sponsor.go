// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrng

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// Xpub is the extended public key of the API3 QRNG Airnode.
	Xpub = "xpub6DXSDTZBd4aPVXnv6Q3SmnGUweFv6j24SK77W4qrSFuhGgi666awUiXakjXruUSCDQhhctVG7AQt67gMdaRAsDnDXv23bBRKsMWvRzo6kbf"

	// RRPProtocolID is the first path element of sponsor wallets used for
	// request/response protocol fulfillments.
	RRPProtocolID = 1

	sponsorPathElements = 6
	sponsorPathBits     = 31
)

var (
	// AirnodeAddress is the address of the API3 QRNG Airnode.
	AirnodeAddress = common.HexToAddress("0x9d3C147cA16DB954873A498e0af5852AB39139f2")

	// EndpointIDUint256 is the QRNG endpoint returning a single uint256.
	EndpointIDUint256 = common.HexToHash("0xfb6d017bb87991b7495f563db3c8cf59ff87b09781947bb1e417006ad7f55a78")

	// RRPAddresses maps chain ids to the deployed AirnodeRrpV0 contract.
	RRPAddresses = map[int64]common.Address{
		5:     common.HexToAddress("0xa0AD79D995DdeeB18a14eAef56A549A04e3Aa1Bd"),
		80001: common.HexToAddress("0xa0AD79D995DdeeB18a14eAef56A549A04e3Aa1Bd"),
	}

	ErrXpubMismatch = errors.New("xpub does not belong to airnode")
	ErrInvalidXpub  = errors.New("invalid xpub")
)

// AirnodeAddressFromXpub returns the address of the xpub/0/0 key, which is
// the Airnode address of a valid Airnode xpub.
func AirnodeAddressFromXpub(xpub string) (common.Address, error) {
	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidXpub, err)
	}
	return deriveAddress(key, 0, 0)
}

// SponsorWalletPath returns the non-hardened derivation path of the sponsor
// wallet of sponsor relative to the Airnode xpub.
func SponsorWalletPath(sponsor common.Address) []uint32 {
	s := new(big.Int).SetBytes(sponsor.Bytes())
	mask := big.NewInt(1<<sponsorPathBits - 1)

	path := make([]uint32, 0, sponsorPathElements+1)
	path = append(path, RRPProtocolID)
	for i := 0; i < sponsorPathElements; i++ {
		p := new(big.Int).Rsh(s, uint(sponsorPathBits*i))
		path = append(path, uint32(p.And(p, mask).Uint64()))
	}
	return path
}

// DeriveSponsorWalletAddress derives the wallet that the airnode uses to pay
// for fulfillments of requests made by sponsor.
func DeriveSponsorWalletAddress(xpub string, airnode, sponsor common.Address) (common.Address, error) {
	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidXpub, err)
	}

	a, err := deriveAddress(key, 0, 0)
	if err != nil {
		return common.Address{}, err
	}
	if a != airnode {
		return common.Address{}, fmt.Errorf("%w: derived %s, expected %s", ErrXpubMismatch, a, airnode)
	}

	return deriveAddress(key, SponsorWalletPath(sponsor)...)
}

// NewAirnodeKey creates the m/44'/60'/0' extended private key of an Airnode
// from a seed.
func NewAirnodeKey(seed []byte) (*hdkeychain.ExtendedKey, error) {
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, i := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
	} {
		if key, err = key.Derive(i); err != nil {
			return nil, err
		}
	}
	return key, nil
}

func deriveAddress(key *hdkeychain.ExtendedKey, path ...uint32) (common.Address, error) {
	var err error
	for _, i := range path {
		key, err = key.Derive(i)
		if err != nil {
			return common.Address{}, fmt.Errorf("derive %d: %w", i, err)
		}
	}
	pub, err := key.ECPubKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub.ToECDSA()), nil
}
