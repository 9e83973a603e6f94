// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/jsonhttp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
)

var errInvalidAddress = errors.New("invalid address")

type balanceResponse struct {
	Address common.Address `json:"address"`
	Balance *ether.BigInt  `json:"balance"`
	Ether   string         `json:"ether"`
}

func (s *Service) balanceHandler(w http.ResponseWriter, r *http.Request) {
	str := mux.Vars(r)["address"]
	if !common.IsHexAddress(str) {
		s.logger.Debugf("api: balance: invalid address %q", str)
		jsonhttp.BadRequest(w, errInvalidAddress)
		return
	}
	addr := common.HexToAddress(str)
	balance := s.chain.BalanceAt(addr)

	jsonhttp.OK(w, balanceResponse{
		Address: addr,
		Balance: ether.Wrap(balance),
		Ether:   ether.FormatEther(balance),
	})
}

type chainStatusResponse struct {
	BlockNumber uint64    `json:"blockNumber"`
	Timestamp   time.Time `json:"timestamp"`
}

func (s *Service) chainStatusHandler(w http.ResponseWriter, _ *http.Request) {
	jsonhttp.OK(w, chainStatusResponse{
		BlockNumber: s.chain.BlockNumber(),
		Timestamp:   s.chain.Now().UTC(),
	})
}

// mineRequest mines a block at Timestamp, a unix time in seconds, or
// Increase seconds after the latest block when Timestamp is zero.
type mineRequest struct {
	Timestamp int64 `json:"timestamp"`
	Increase  int64 `json:"increase"`
}

func (s *Service) mineHandler(w http.ResponseWriter, r *http.Request) {
	var req mineRequest
	if !s.decodeBody(w, r, "mine", &req) {
		return
	}

	ts := time.Unix(req.Timestamp, 0)
	if req.Timestamp == 0 {
		ts = s.chain.Now().Add(time.Duration(req.Increase) * time.Second)
	}
	if err := s.chain.Mine(ts); err != nil {
		s.respondError(w, "mine", err)
		return
	}
	s.chainStatusHandler(w, r)
}
