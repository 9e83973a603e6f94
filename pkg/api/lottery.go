// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/jsonhttp"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/camronh/Lottery-Tutorial/pkg/simchain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
)

var (
	errInvalidWeek    = errors.New("invalid week")
	errInvalidNumber  = errors.New("invalid number")
	errInvalidBody    = errors.New("invalid request body")
	errMissingAddress = errors.New("missing address")
)

type lotteryStatusResponse struct {
	Week           uint64         `json:"week"`
	Phase          string         `json:"phase"`
	EndTime        time.Time      `json:"endTime"`
	Pot            *ether.BigInt  `json:"pot"`
	TicketPrice    *ether.BigInt  `json:"ticketPrice"`
	MinNumber      uint64         `json:"minNumber"`
	MaxNumber      uint64         `json:"maxNumber"`
	SponsorWallet  common.Address `json:"sponsorWallet"`
	PendingRequest *common.Hash   `json:"pendingRequest,omitempty"`
	Now            time.Time      `json:"now"`
}

func (s *Service) lotteryStatusHandler(w http.ResponseWriter, _ *http.Request) {
	st := s.lottery.Status()
	min, max := s.lottery.NumberRange()
	jsonhttp.OK(w, lotteryStatusResponse{
		Week:           st.Week,
		Phase:          st.Phase.String(),
		EndTime:        st.EndTime.UTC(),
		Pot:            ether.Wrap(st.Pot),
		TicketPrice:    ether.Wrap(st.TicketPrice),
		MinNumber:      min,
		MaxNumber:      max,
		SponsorWallet:  st.SponsorWallet,
		PendingRequest: st.PendingRequest,
		Now:            st.Now.UTC(),
	})
}

type entriesResponse struct {
	Week    uint64           `json:"week"`
	Number  uint64           `json:"number"`
	Entries []common.Address `json:"entries"`
}

func (s *Service) entriesHandler(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.ParseUint(mux.Vars(r)["week"], 10, 64)
	if err != nil {
		s.logger.Debugf("api: entries: parse week %q: %v", mux.Vars(r)["week"], err)
		jsonhttp.BadRequest(w, errInvalidWeek)
		return
	}
	number, err := strconv.ParseUint(mux.Vars(r)["number"], 10, 64)
	if err != nil {
		s.logger.Debugf("api: entries: parse number %q: %v", mux.Vars(r)["number"], err)
		jsonhttp.BadRequest(w, errInvalidNumber)
		return
	}

	entries, err := s.lottery.EntriesForNumber(number, week)
	if err != nil {
		s.respondError(w, "entries", err)
		return
	}
	jsonhttp.OK(w, entriesResponse{
		Week:    week,
		Number:  number,
		Entries: entries,
	})
}

type winningNumberResponse struct {
	Week          uint64 `json:"week"`
	WinningNumber uint64 `json:"winningNumber"`
}

func (s *Service) winningNumberHandler(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.ParseUint(mux.Vars(r)["week"], 10, 64)
	if err != nil {
		s.logger.Debugf("api: winning number: parse week %q: %v", mux.Vars(r)["week"], err)
		jsonhttp.BadRequest(w, errInvalidWeek)
		return
	}

	number, err := s.lottery.WinningNumber(week)
	if err != nil {
		s.respondError(w, "winning number", err)
		return
	}
	jsonhttp.OK(w, winningNumberResponse{
		Week:          week,
		WinningNumber: number,
	})
}

type enterRequest struct {
	Participant *common.Address `json:"participant"`
	Number      uint64          `json:"number"`
	Value       *ether.BigInt   `json:"value"`
}

type enterResponse struct {
	Week   uint64 `json:"week"`
	Number uint64 `json:"number"`
}

func (s *Service) enterHandler(w http.ResponseWriter, r *http.Request) {
	var req enterRequest
	if !s.decodeBody(w, r, "enter", &req) {
		return
	}
	if req.Participant == nil {
		jsonhttp.BadRequest(w, errMissingAddress)
		return
	}

	week, err := s.lottery.Enter(r.Context(), *req.Participant, req.Number, req.Value.Unwrap())
	if err != nil {
		s.respondError(w, "enter", err)
		return
	}
	jsonhttp.Created(w, enterResponse{
		Week:   week,
		Number: req.Number,
	})
}

type drawRequest struct {
	Caller *common.Address `json:"caller"`
	Value  *ether.BigInt   `json:"value"`
}

type drawResponse struct {
	RequestID common.Hash `json:"requestId"`
}

func (s *Service) drawHandler(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if !s.decodeBody(w, r, "draw", &req) {
		return
	}
	if req.Caller == nil {
		jsonhttp.BadRequest(w, errMissingAddress)
		return
	}

	id, err := s.lottery.RequestWinningNumber(r.Context(), *req.Caller, req.Value.Unwrap())
	if err != nil {
		s.respondError(w, "draw", err)
		return
	}
	jsonhttp.Accepted(w, drawResponse{RequestID: id})
}

type closeWeekRequest struct {
	Caller *common.Address `json:"caller"`
	Number uint64          `json:"number"`
}

type closeWeekResponse struct {
	ClosedWeek uint64 `json:"closedWeek"`
	Week       uint64 `json:"week"`
}

func (s *Service) closeWeekHandler(w http.ResponseWriter, r *http.Request) {
	var req closeWeekRequest
	if !s.decodeBody(w, r, "close", &req) {
		return
	}
	if req.Caller == nil {
		jsonhttp.BadRequest(w, errMissingAddress)
		return
	}

	closed, err := s.lottery.CloseWeek(r.Context(), *req.Caller, req.Number)
	if err != nil {
		s.respondError(w, "close", err)
		return
	}
	jsonhttp.OK(w, closeWeekResponse{
		ClosedWeek: closed,
		Week:       closed + 1,
	})
}

// decodeBody reads a JSON request body into v. It reports whether decoding
// succeeded; otherwise a response has been written.
func (s *Service) decodeBody(w http.ResponseWriter, r *http.Request, op string, v interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if jsonhttp.HandleBodyReadError(err, w) {
			return false
		}
		s.logger.Debugf("api: %s: read body: %v", op, err)
		s.logger.Errorf("api: %s: read body", op)
		jsonhttp.InternalServerError(w, "cannot read request")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.logger.Debugf("api: %s: decode body: %v", op, err)
		jsonhttp.BadRequest(w, errInvalidBody)
		return false
	}
	return true
}

// respondError maps errors of the lottery and the chain to status codes.
func (s *Service) respondError(w http.ResponseWriter, op string, err error) {
	reason := "internal"
	defer func() {
		s.metrics.RejectedOperations.WithLabelValues(op, reason).Inc()
	}()

	switch {
	case lottery.IsValidationError(err), errors.Is(err, simchain.ErrTimeTravel), errors.Is(err, simchain.ErrNegativeValue):
		reason = "validation"
		jsonhttp.BadRequest(w, err)
	case errors.Is(err, lottery.ErrUnauthorized):
		reason = "unauthorized"
		jsonhttp.Forbidden(w, err)
	case errors.Is(err, lottery.ErrNotDrawn):
		reason = "not_drawn"
		jsonhttp.NotFound(w, err)
	case errors.Is(err, simchain.ErrInsufficientBalance):
		reason = "insufficient_balance"
		jsonhttp.PaymentRequired(w, err)
	case lottery.IsDoubleResolutionError(err):
		reason = "double_resolution"
		jsonhttp.Conflict(w, err)
	case lottery.IsTimingError(err), errors.Is(err, lottery.ErrSponsorWalletNotSet):
		reason = "timing"
		jsonhttp.Conflict(w, err)
	default:
		s.logger.Debugf("api: %s: %v", op, err)
		s.logger.Errorf("api: %s failed", op)
		jsonhttp.InternalServerError(w, op+" failed")
	}
}
