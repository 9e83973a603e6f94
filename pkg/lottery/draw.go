// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery

import (
	"context"
	"fmt"
	"math/big"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/camronh/Lottery-Tutorial/pkg/simchain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
)

var fulfillFunctionID = func() (id [4]byte) {
	copy(id[:], crypto.Keccak256([]byte("fulfillRandomNumber(bytes32,bytes)"))[:4])
	return id
}()

var _ qrng.Fulfiller = (*Service)(nil)

// RequestWinningNumber asks the oracle for the random number that closes the
// current week and returns the request id without waiting for it. value is
// sent from caller to the sponsor wallet to pay for the fulfillment. A
// pending request that timed out is replaced.
func (s *Service) RequestWinningNumber(ctx context.Context, caller common.Address, value *big.Int) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	now := s.chain.Now()
	if now.Before(st.endTime) {
		return common.Hash{}, ErrWeekOpen
	}
	if st.sponsorWallet == (common.Address{}) {
		return common.Hash{}, ErrSponsorWalletNotSet
	}
	if s.livePending(now) {
		return common.Hash{}, ErrDrawInProgress
	}

	topUp := value != nil && value.Sign() > 0
	if topUp {
		if err := s.chain.Move(caller, simchain.Payment{To: st.sponsorWallet, Value: value}); err != nil {
			return common.Hash{}, fmt.Errorf("top up sponsor wallet: %w", err)
		}
	}
	revertTopUp := func() {
		if !topUp {
			return
		}
		if err := s.chain.Move(st.sponsorWallet, simchain.Payment{To: caller, Value: value}); err != nil {
			s.logger.Errorf("lottery: revert top up of %s ether: %v", ether.FormatEther(value), err)
		}
	}

	id, err := s.oracle.MakeFullRequest(ctx, s.opts.Address, qrng.Request{
		Airnode:           s.opts.Airnode,
		EndpointID:        s.opts.EndpointID,
		Sponsor:           s.opts.Address,
		SponsorWallet:     st.sponsorWallet,
		FulfillAddress:    s.opts.Address,
		FulfillFunctionID: fulfillFunctionID,
	})
	if err != nil {
		revertTopUp()
		return common.Hash{}, fmt.Errorf("request random number: %w", err)
	}

	next := st.clone()
	if st.pending != nil {
		s.metrics.ExpiredRequests.Inc()
		s.logger.Warningf("lottery: replacing timed out request %s of week %d", st.pending.ID, st.pending.Week)
	}
	next.pending = &pendingRequest{ID: id, Week: st.week, RequestedAt: now}
	if err := s.store.Put(stateKey, next); err != nil {
		revertTopUp()
		return common.Hash{}, fmt.Errorf("store lottery state: %w", err)
	}

	s.state = next
	s.metrics.DrawRequests.Inc()
	s.logger.Infof("lottery: requested random number %s for week %d", id, st.week)
	return id, nil
}

// FulfillRandomNumber receives the oracle response of a pending draw and
// closes the week with the number derived from it. It is only accepted from
// the oracle and at most once per request.
func (s *Service) FulfillRandomNumber(ctx context.Context, from common.Address, requestID common.Hash, data []byte) error {
	if from != s.oracle.Address() {
		return ErrUnauthorized
	}

	s.mu.Lock()
	st := s.state
	if st.pending == nil || st.pending.ID != requestID {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	if st.pending.Week != st.week {
		s.mu.Unlock()
		return fmt.Errorf("%w: week %d", ErrWeekResolved, st.pending.Week)
	}

	random, err := qrng.DecodeUint256(data)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidRandomness, err)
	}
	number := s.numberFromRandom(random)
	week := st.week

	if err := s.closeWeek(number); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.metrics.Fulfillments.Inc()
	s.logger.Infof("lottery: received random number for request %s, winning number of week %d is %d", requestID, week, number)

	s.feed.Send(ReceivedRandomNumber{
		RequestID:    requestID,
		RandomNumber: random,
		Week:         week,
		Number:       number,
	})
	return nil
}

// numberFromRandom maps a uint256 onto the valid number range.
func (s *Service) numberFromRandom(random *big.Int) uint64 {
	size := new(big.Int).SetUint64(s.opts.MaxNumber - s.opts.MinNumber + 1)
	return new(big.Int).Mod(random, size).Uint64() + s.opts.MinNumber
}

// SubscribeRandomNumber delivers ReceivedRandomNumber events to ch. The
// fulfilling goroutine blocks until every subscriber received the event.
func (s *Service) SubscribeRandomNumber(ch chan<- ReceivedRandomNumber) event.Subscription {
	return s.feed.Subscribe(ch)
}
