// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qrng simulates the Airnode request/response protocol used by the
// API3 quantum random number generator. The RRP type plays the role of the
// AirnodeRrp contract and Airnode is the off-chain worker that answers
// requests.
package qrng

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"golang.org/x/crypto/sha3"
)

const requestQueueSize = 64

var (
	ErrUnknownRequest        = errors.New("no such request")
	ErrRequesterNotSponsored = errors.New("requester not sponsored")
	ErrWrongAirnode          = errors.New("request is not addressed to this airnode")
	ErrClosed                = errors.New("rrp closed")
)

// Fulfiller receives fulfillments of requests made by a requester. from is
// the address of the RRP delivering the data.
type Fulfiller interface {
	FulfillRandomNumber(ctx context.Context, from common.Address, requestID common.Hash, data []byte) error
}

// Request holds the parameters of a full request.
type Request struct {
	Airnode           common.Address
	EndpointID        common.Hash
	Sponsor           common.Address
	SponsorWallet     common.Address
	FulfillAddress    common.Address
	FulfillFunctionID [4]byte
	Parameters        []byte
}

// PendingRequest is a request waiting for its fulfillment.
type PendingRequest struct {
	ID          common.Hash
	Requester   common.Address
	RequestedAt time.Time
	Request
}

// Clock reports the current chain time.
type Clock interface {
	Now() time.Time
}

// RRP is the request/response protocol contract. Every request is fulfilled
// at most once.
type RRP struct {
	address common.Address
	chainID *big.Int
	clock   Clock
	logger  logging.Logger
	metrics metrics

	mu            sync.Mutex
	requestCounts map[common.Address]uint64
	sponsorships  map[common.Address]map[common.Address]bool
	fulfillers    map[common.Address]Fulfiller
	pending       map[common.Hash]PendingRequest

	requests chan PendingRequest
	quit     chan struct{}
	once     sync.Once
}

func NewRRP(address common.Address, chainID *big.Int, clock Clock, logger logging.Logger) *RRP {
	return &RRP{
		address:       address,
		chainID:       new(big.Int).Set(chainID),
		clock:         clock,
		logger:        logger,
		metrics:       newMetrics(),
		requestCounts: make(map[common.Address]uint64),
		sponsorships:  make(map[common.Address]map[common.Address]bool),
		fulfillers:    make(map[common.Address]Fulfiller),
		pending:       make(map[common.Hash]PendingRequest),
		requests:      make(chan PendingRequest, requestQueueSize),
		quit:          make(chan struct{}),
	}
}

func (r *RRP) Address() common.Address {
	return r.address
}

// Register sets the fulfiller for requests with the given fulfill address.
func (r *RRP) Register(fulfillAddress common.Address, f Fulfiller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fulfillers[fulfillAddress] = f
}

// SetSponsorshipStatus allows or disallows requester to make requests paid
// by sponsor. A requester is always allowed to sponsor itself.
func (r *RRP) SetSponsorshipStatus(sponsor, requester common.Address, status bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sponsorships[sponsor]
	if !ok {
		m = make(map[common.Address]bool)
		r.sponsorships[sponsor] = m
	}
	m[requester] = status
}

// MakeFullRequest records the request as pending, queues it for the airnode
// and returns its id without waiting for the fulfillment.
func (r *RRP) MakeFullRequest(ctx context.Context, requester common.Address, req Request) (common.Hash, error) {
	r.mu.Lock()
	if requester != req.Sponsor && !r.sponsorships[req.Sponsor][requester] {
		r.mu.Unlock()
		return common.Hash{}, ErrRequesterNotSponsored
	}

	count := r.requestCounts[requester] + 1
	id := r.requestID(requester, count, req)
	p := PendingRequest{
		ID:          id,
		Requester:   requester,
		RequestedAt: r.clock.Now(),
		Request:     req,
	}
	r.requestCounts[requester] = count
	r.pending[id] = p
	r.mu.Unlock()

	r.metrics.RequestsCount.Inc()
	r.logger.Debugf("rrp: request %s from %s to airnode %s", id, requester, req.Airnode)

	select {
	case r.requests <- p:
	case <-ctx.Done():
		r.drop(id)
		return common.Hash{}, ctx.Err()
	case <-r.quit:
		r.drop(id)
		return common.Hash{}, ErrClosed
	}
	return id, nil
}

func (r *RRP) drop(id common.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

// requestID mirrors the AirnodeRrpV0 packed encoding.
func (r *RRP) requestID(requester common.Address, count uint64, req Request) (id common.Hash) {
	var c [32]byte
	binary.BigEndian.PutUint64(c[24:], count)

	h := sha3.NewLegacyKeccak256()
	for _, b := range [][]byte{
		math.U256Bytes(new(big.Int).Set(r.chainID)),
		r.address.Bytes(),
		requester.Bytes(),
		c[:],
		req.Airnode.Bytes(),
		req.EndpointID.Bytes(),
		req.Sponsor.Bytes(),
		req.SponsorWallet.Bytes(),
		req.FulfillAddress.Bytes(),
		req.FulfillFunctionID[:],
		req.Parameters,
	} {
		_, _ = h.Write(b)
	}
	h.Sum(id[:0])
	return id
}

// Fulfill delivers data for a pending request. The request is consumed
// before the fulfiller is called so a second fulfillment of the same id
// fails with ErrUnknownRequest even if the first callback failed.
func (r *RRP) Fulfill(ctx context.Context, airnode common.Address, requestID common.Hash, data []byte) error {
	r.mu.Lock()
	p, ok := r.pending[requestID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	if p.Airnode != airnode {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWrongAirnode, requestID)
	}
	delete(r.pending, requestID)
	f, ok := r.fulfillers[p.FulfillAddress]
	r.mu.Unlock()

	if !ok {
		r.metrics.FailedCount.Inc()
		return fmt.Errorf("no fulfiller registered for %s", p.FulfillAddress)
	}

	if err := f.FulfillRandomNumber(ctx, r.address, requestID, data); err != nil {
		r.metrics.FailedCount.Inc()
		r.logger.Debugf("rrp: fulfillment of %s failed: %v", requestID, err)
		return fmt.Errorf("fulfill %s: %w", requestID, err)
	}

	r.metrics.FulfilledCount.Inc()
	return nil
}

// Requests returns the queue of new requests consumed by airnodes.
func (r *RRP) Requests() <-chan PendingRequest {
	return r.requests
}

// Pending returns the ids of all unfulfilled requests in order of request
// time.
func (r *RRP) Pending() []common.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps := make([]PendingRequest, 0, len(r.pending))
	for _, p := range r.pending {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].RequestedAt.Equal(ps[j].RequestedAt) {
			return ps[i].ID.Hex() < ps[j].ID.Hex()
		}
		return ps[i].RequestedAt.Before(ps[j].RequestedAt)
	})

	ids := make([]common.Hash, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

// Close unblocks requesters waiting on a full queue.
func (r *RRP) Close() error {
	r.once.Do(func() { close(r.quit) })
	return nil
}
