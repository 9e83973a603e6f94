// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	stateKey         = "lottery_state"
	entriesKeyPrefix = "lottery_entries_"
)

func entriesKey(week, number uint64) string {
	return fmt.Sprintf("%s%d_%d", entriesKeyPrefix, week, number)
}

type pendingRequest struct {
	ID          common.Hash
	Week        uint64
	RequestedAt time.Time
}

// state is the lottery header. Entries are stored separately per week and
// number.
type state struct {
	week           uint64
	endTime        time.Time
	pot            *big.Int
	sponsorWallet  common.Address
	pending        *pendingRequest
	winningNumbers map[uint64]uint64
}

func (s *state) clone() *state {
	c := *s
	c.pot = new(big.Int).Set(s.pot)
	if s.pending != nil {
		p := *s.pending
		c.pending = &p
	}
	c.winningNumbers = make(map[uint64]uint64, len(s.winningNumbers))
	for w, n := range s.winningNumbers {
		c.winningNumbers[w] = n
	}
	return &c
}

type winningRecord struct {
	Week   uint64 `msgpack:"week"`
	Number uint64 `msgpack:"number"`
}

type stateRecord struct {
	Week           uint64          `msgpack:"week"`
	EndTime        int64           `msgpack:"end_time"`
	Pot            []byte          `msgpack:"pot"`
	SponsorWallet  []byte          `msgpack:"sponsor_wallet"`
	PendingID      []byte          `msgpack:"pending_id,omitempty"`
	PendingWeek    uint64          `msgpack:"pending_week,omitempty"`
	PendingAt      int64           `msgpack:"pending_at,omitempty"`
	WinningNumbers []winningRecord `msgpack:"winning_numbers"`
}

func (s *state) MarshalBinary() ([]byte, error) {
	r := stateRecord{
		Week:          s.week,
		EndTime:       s.endTime.Unix(),
		Pot:           s.pot.Bytes(),
		SponsorWallet: s.sponsorWallet.Bytes(),
	}
	if s.pending != nil {
		r.PendingID = s.pending.ID.Bytes()
		r.PendingWeek = s.pending.Week
		r.PendingAt = s.pending.RequestedAt.Unix()
	}
	for w, n := range s.winningNumbers {
		r.WinningNumbers = append(r.WinningNumbers, winningRecord{Week: w, Number: n})
	}
	sort.Slice(r.WinningNumbers, func(i, j int) bool {
		return r.WinningNumbers[i].Week < r.WinningNumbers[j].Week
	})
	return msgpack.Marshal(&r)
}

func (s *state) UnmarshalBinary(data []byte) error {
	var r stateRecord
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return err
	}
	if len(r.SponsorWallet) != common.AddressLength {
		return errors.New("invalid sponsor wallet")
	}

	s.week = r.Week
	s.endTime = time.Unix(r.EndTime, 0)
	s.pot = new(big.Int).SetBytes(r.Pot)
	s.sponsorWallet = common.BytesToAddress(r.SponsorWallet)
	s.pending = nil
	if len(r.PendingID) > 0 {
		s.pending = &pendingRequest{
			ID:          common.BytesToHash(r.PendingID),
			Week:        r.PendingWeek,
			RequestedAt: time.Unix(r.PendingAt, 0),
		}
	}
	s.winningNumbers = make(map[uint64]uint64, len(r.WinningNumbers))
	for _, w := range r.WinningNumbers {
		s.winningNumbers[w.Week] = w.Number
	}
	return nil
}

func loadState(store storage.StateStorer) (*state, error) {
	s := new(state)
	if err := store.Get(stateKey, s); err != nil {
		return nil, err
	}
	return s, nil
}

func loadEntries(store storage.StateStorer, week, number uint64) ([]common.Address, error) {
	var entries []common.Address
	err := store.Get(entriesKey(week, number), &entries)
	if errors.Is(err, storage.ErrNotFound) {
		return []common.Address{}, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}
