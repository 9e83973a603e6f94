// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lottery implements the weekly lottery. Players buy a ticket on a
// number while the week is open. Once the week has ended the owner closes it
// with a winning number, either directly or through a QRNG draw, the pot is
// split between the players on the winning number and the next week opens.
// A week without a winner rolls the pot over.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/camronh/Lottery-Tutorial/pkg/simchain"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultPeriod      = 7 * 24 * time.Hour
	DefaultDrawTimeout = time.Hour
	DefaultMinNumber   = 1
	DefaultMaxNumber   = 3

	// resolvedEntriesCacheSize bounds the number of (week, number) entry
	// lists of resolved weeks kept in memory.
	resolvedEntriesCacheSize = 1024
)

var DefaultTicketPrice = ether.MustParseEther("0.0001")

// Chain is the ledger and clock the lottery runs on.
type Chain interface {
	Move(from common.Address, payments ...simchain.Payment) error
	Now() time.Time
}

// Oracle accepts randomness requests.
type Oracle interface {
	Address() common.Address
	MakeFullRequest(ctx context.Context, requester common.Address, req qrng.Request) (common.Hash, error)
}

type Options struct {
	// Address is the account holding the pot.
	Address common.Address
	Owner   common.Address
	// EndTime of the first week. It is ignored when state is restored.
	EndTime     time.Time
	TicketPrice *big.Int
	Period      time.Duration
	MinNumber   uint64
	MaxNumber   uint64
	// DrawTimeout after which a pending draw may be replaced.
	DrawTimeout time.Duration
	Airnode     common.Address
	EndpointID  common.Hash
}

// Phase of the current week.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseEnded
	PhaseAwaitingRandomness
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseEnded:
		return "ended"
	case PhaseAwaitingRandomness:
		return "awaiting-randomness"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Status is a snapshot of the lottery.
type Status struct {
	Week           uint64
	EndTime        time.Time
	Pot            *big.Int
	TicketPrice    *big.Int
	SponsorWallet  common.Address
	Phase          Phase
	PendingRequest *common.Hash
	Now            time.Time
}

// ReceivedRandomNumber is published when a draw resolves a week.
type ReceivedRandomNumber struct {
	RequestID    common.Hash
	RandomNumber *big.Int
	Week         uint64
	Number       uint64
}

// Service is the lottery. All operations are serialized.
type Service struct {
	opts    Options
	chain   Chain
	oracle  Oracle
	store   storage.StateStorer
	logger  logging.Logger
	metrics metrics
	feed    event.Feed

	// resolvedEntries caches entries of resolved weeks, which never change.
	resolvedEntries *lru.Cache

	mu    sync.RWMutex
	state *state
}

// New restores the lottery from store or creates its first week.
func New(o Options, chain Chain, oracle Oracle, store storage.StateStorer, logger logging.Logger) (*Service, error) {
	if o.TicketPrice == nil {
		o.TicketPrice = DefaultTicketPrice
	}
	if o.Period == 0 {
		o.Period = DefaultPeriod
	}
	if o.DrawTimeout == 0 {
		o.DrawTimeout = DefaultDrawTimeout
	}
	if o.MinNumber == 0 && o.MaxNumber == 0 {
		o.MinNumber, o.MaxNumber = DefaultMinNumber, DefaultMaxNumber
	}
	if o.EndpointID == (common.Hash{}) {
		o.EndpointID = qrng.EndpointIDUint256
	}
	if o.TicketPrice.Sign() <= 0 {
		return nil, errors.New("ticket price must be positive")
	}
	if o.MaxNumber < o.MinNumber {
		return nil, fmt.Errorf("invalid number range [%d, %d]", o.MinNumber, o.MaxNumber)
	}

	resolvedEntries, err := lru.New(resolvedEntriesCacheSize)
	if err != nil {
		return nil, fmt.Errorf("entries cache: %w", err)
	}

	s := &Service{
		opts:            o,
		chain:           chain,
		oracle:          oracle,
		store:           store,
		logger:          logger,
		metrics:         newMetrics(),
		resolvedEntries: resolvedEntries,
	}

	st, err := loadState(store)
	switch {
	case err == nil:
		logger.Debugf("lottery: restored week %d ending at %s", st.week, st.endTime)
	case errors.Is(err, storage.ErrNotFound):
		st = &state{
			week:           1,
			endTime:        time.Unix(o.EndTime.Unix(), 0),
			pot:            new(big.Int),
			winningNumbers: make(map[uint64]uint64),
		}
		if err := store.Put(stateKey, st); err != nil {
			return nil, fmt.Errorf("store lottery state: %w", err)
		}
	default:
		return nil, fmt.Errorf("load lottery state: %w", err)
	}

	s.state = st
	s.metrics.Week.Set(float64(st.week))
	s.metrics.PotWei.Set(weiFloat(st.pot))
	return s, nil
}

// Enter buys a ticket on number for participant and returns the week the
// ticket is for. value must equal the ticket price.
func (s *Service) Enter(ctx context.Context, participant common.Address, number uint64, value *big.Int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if !s.chain.Now().Before(st.endTime) {
		return 0, ErrWeekClosed
	}
	if value == nil || value.Cmp(s.opts.TicketPrice) != 0 {
		return 0, ErrWrongTicketPrice
	}
	if number < s.opts.MinNumber || number > s.opts.MaxNumber {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrNumberOutOfRange, number, s.opts.MinNumber, s.opts.MaxNumber)
	}

	entries, err := loadEntries(s.store, st.week, number)
	if err != nil {
		return 0, err
	}

	if err := s.chain.Move(participant, simchain.Payment{To: s.opts.Address, Value: value}); err != nil {
		return 0, err
	}

	next := st.clone()
	next.pot.Add(next.pot, value)
	key := entriesKey(st.week, number)

	if err := s.store.Put(key, append(entries, participant)); err != nil {
		s.refund(participant, value)
		return 0, fmt.Errorf("store entry: %w", err)
	}
	if err := s.store.Put(stateKey, next); err != nil {
		if err := s.store.Put(key, entries); err != nil {
			s.logger.Errorf("lottery: restore entries %s: %v", key, err)
		}
		s.refund(participant, value)
		return 0, fmt.Errorf("store lottery state: %w", err)
	}

	s.state = next
	s.metrics.EntriesCount.Inc()
	s.metrics.PotWei.Set(weiFloat(next.pot))
	s.logger.Debugf("lottery: %s entered week %d on number %d", participant, st.week, number)
	return st.week, nil
}

func (s *Service) refund(to common.Address, value *big.Int) {
	if err := s.chain.Move(s.opts.Address, simchain.Payment{To: to, Value: value}); err != nil {
		s.logger.Errorf("lottery: refund %s to %s: %v", ether.FormatEther(value), to, err)
	}
}

// EntriesForNumber returns the participants of week that picked number, in
// the order they entered.
func (s *Service) EntriesForNumber(number, week uint64) ([]common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if week >= s.state.week {
		return loadEntries(s.store, week, number)
	}

	key := entriesKey(week, number)
	if v, ok := s.resolvedEntries.Get(key); ok {
		s.metrics.EntriesCacheHits.Inc()
		return append([]common.Address(nil), v.([]common.Address)...), nil
	}
	entries, err := loadEntries(s.store, week, number)
	if err != nil {
		return nil, err
	}
	s.resolvedEntries.Add(key, entries)
	return append([]common.Address(nil), entries...), nil
}

// SetSponsorWallet sets the wallet the oracle charges for draws.
func (s *Service) SetSponsorWallet(ctx context.Context, caller, wallet common.Address) error {
	if caller != s.opts.Owner {
		return ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	next.sponsorWallet = wallet
	if err := s.store.Put(stateKey, next); err != nil {
		return fmt.Errorf("store lottery state: %w", err)
	}
	s.state = next
	s.logger.Infof("lottery: sponsor wallet set to %s", wallet)
	return nil
}

// CloseWeek resolves the current week with number and returns it. Only the owner may close
// a week, and only after it has ended and while no draw is waiting for its
// randomness.
func (s *Service) CloseWeek(ctx context.Context, caller common.Address, number uint64) (uint64, error) {
	if caller != s.opts.Owner {
		return 0, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.chain.Now()
	if now.Before(s.state.endTime) {
		return 0, ErrWeekOpen
	}
	if s.livePending(now) {
		return 0, ErrDrawInProgress
	}
	closed := s.state.week
	if err := s.closeWeek(number); err != nil {
		return 0, err
	}
	return closed, nil
}

// closeWeek pays the pot to the entries on number and opens the next week.
// It must be called with the lock held.
func (s *Service) closeWeek(number uint64) error {
	st := s.state
	winners, err := loadEntries(s.store, st.week, number)
	if err != nil {
		return err
	}

	payments := splitPot(st.pot, winners)
	if len(payments) > 0 {
		if err := s.chain.Move(s.opts.Address, payments...); err != nil {
			return fmt.Errorf("pay winners: %w", err)
		}
	}

	next := st.clone()
	next.winningNumbers[st.week] = number
	next.pending = nil
	if len(payments) > 0 {
		next.pot = new(big.Int)
	}
	next.week++
	next.endTime = st.endTime.Add(s.opts.Period)

	if err := s.store.Put(stateKey, next); err != nil {
		for _, p := range payments {
			if err := s.chain.Move(p.To, simchain.Payment{To: s.opts.Address, Value: p.Value}); err != nil {
				s.logger.Errorf("lottery: revert payout to %s: %v", p.To, err)
			}
		}
		return fmt.Errorf("store lottery state: %w", err)
	}

	s.state = next
	s.metrics.Week.Set(float64(next.week))
	s.metrics.PotWei.Set(weiFloat(next.pot))
	if len(payments) > 0 {
		s.metrics.PayoutsCount.Add(float64(len(payments)))
		s.logger.Infof("lottery: week %d closed with number %d, %s ether paid to %d entries", st.week, number, ether.FormatEther(st.pot), len(payments))
	} else {
		s.metrics.RolloversCount.Inc()
		s.logger.Infof("lottery: week %d closed with number %d, no winner, pot of %s ether rolls over", st.week, number, ether.FormatEther(st.pot))
	}
	return nil
}

// splitPot divides pot equally between the entries. The remainder of the
// division goes to the first entry so the pot is paid out in full.
func splitPot(pot *big.Int, entries []common.Address) []simchain.Payment {
	if len(entries) == 0 {
		return nil
	}
	share, rem := new(big.Int).QuoRem(pot, big.NewInt(int64(len(entries))), new(big.Int))
	payments := make([]simchain.Payment, 0, len(entries))
	for _, e := range entries {
		payments = append(payments, simchain.Payment{To: e, Value: new(big.Int).Set(share)})
	}
	payments[0].Value.Add(payments[0].Value, rem)
	return payments
}

func (s *Service) livePending(now time.Time) bool {
	p := s.state.pending
	return p != nil && now.Sub(p.RequestedAt) < s.opts.DrawTimeout
}

func (s *Service) Week() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.week
}

func (s *Service) Pot() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.state.pot)
}

func (s *Service) EndTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.endTime
}

func (s *Service) TicketPrice() *big.Int {
	return new(big.Int).Set(s.opts.TicketPrice)
}

func (s *Service) SponsorWallet() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.sponsorWallet
}

func (s *Service) Address() common.Address {
	return s.opts.Address
}

func (s *Service) Owner() common.Address {
	return s.opts.Owner
}

// NumberRange returns the inclusive range of valid numbers.
func (s *Service) NumberRange() (min, max uint64) {
	return s.opts.MinNumber, s.opts.MaxNumber
}

// WinningNumber returns the number that closed week.
func (s *Service) WinningNumber(week uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.state.winningNumbers[week]
	if !ok {
		return 0, ErrNotDrawn
	}
	return n, nil
}

// PendingRequest returns the id of the draw waiting for randomness, if any.
// A timed out request is still returned until it is replaced.
func (s *Service) PendingRequest() (common.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.pending == nil {
		return common.Hash{}, false
	}
	return s.state.pending.ID, true
}

func (s *Service) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase(s.chain.Now())
}

func (s *Service) phase(now time.Time) Phase {
	switch {
	case now.Before(s.state.endTime):
		return PhaseOpen
	case s.livePending(now):
		return PhaseAwaitingRandomness
	}
	return PhaseEnded
}

func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.chain.Now()
	st := Status{
		Week:          s.state.week,
		EndTime:       s.state.endTime,
		Pot:           new(big.Int).Set(s.state.pot),
		TicketPrice:   new(big.Int).Set(s.opts.TicketPrice),
		SponsorWallet: s.state.sponsorWallet,
		Phase:         s.phase(now),
		Now:           now,
	}
	if p := s.state.pending; p != nil {
		id := p.ID
		st.PendingRequest = &id
	}
	return st
}

func weiFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
