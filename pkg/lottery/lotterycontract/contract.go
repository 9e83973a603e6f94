// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lotterycontract is the client of a deployed Lottery contract.
package lotterycontract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	lotteryContractABI = transaction.ParseABIUnchecked(LotteryABI)

	requestedRandomNumberTopic = lotteryContractABI.Events["RequestedRandomNumber"].ID
	receivedRandomNumberTopic  = lotteryContractABI.Events["ReceivedRandomNumber"].ID

	ErrNoRequestEvent = errors.New("no RequestedRandomNumber event in receipt")
)

const defaultPollInterval = 2 * time.Second

type Interface interface {
	Enter(ctx context.Context, number uint64, value *big.Int) (common.Hash, error)
	EntriesForNumber(ctx context.Context, number, week uint64) ([]common.Address, error)
	GetWinningNumber(ctx context.Context, value *big.Int) (requestID common.Hash, err error)
	WaitForRandomNumber(ctx context.Context, requestID common.Hash) (*big.Int, error)
	WinningNumber(ctx context.Context, week uint64) (*big.Int, error)
	CloseWeek(ctx context.Context, number uint64) (common.Hash, error)
	SetSponsorWallet(ctx context.Context, wallet common.Address) (common.Hash, error)
	SponsorWallet(ctx context.Context) (common.Address, error)
	Pot(ctx context.Context) (*big.Int, error)
	Week(ctx context.Context) (uint64, error)
	EndTime(ctx context.Context) (time.Time, error)
	TicketPrice(ctx context.Context) (*big.Int, error)
}

type Service struct {
	logger          logging.Logger
	filterer        ethereum.LogFilterer
	txService       transaction.Service
	contractAddress common.Address
	pollInterval    time.Duration
}

func New(logger logging.Logger, filterer ethereum.LogFilterer, txService transaction.Service, contractAddress common.Address) *Service {
	return &Service{
		logger:          logger,
		filterer:        filterer,
		txService:       txService,
		contractAddress: contractAddress,
		pollInterval:    defaultPollInterval,
	}
}

func (s *Service) Address() common.Address {
	return s.contractAddress
}

// Enter buys a ticket on number. value must be the ticket price.
func (s *Service) Enter(ctx context.Context, number uint64, value *big.Int) (common.Hash, error) {
	callData, err := lotteryContractABI.Pack("enter", new(big.Int).SetUint64(number))
	if err != nil {
		return common.Hash{}, err
	}
	request := &transaction.TxRequest{
		To:          &s.contractAddress,
		Data:        callData,
		Value:       value,
		Description: "lottery enter",
	}
	receipt, err := s.sendAndWait(ctx, request)
	if err != nil {
		return common.Hash{}, fmt.Errorf("enter: number %d: %w", number, err)
	}
	return receipt.TxHash, nil
}

// EntriesForNumber returns the entries of week on number.
func (s *Service) EntriesForNumber(ctx context.Context, number, week uint64) ([]common.Address, error) {
	results, err := s.call(ctx, "getEntriesForNumber", new(big.Int).SetUint64(number), new(big.Int).SetUint64(week))
	if err != nil {
		return nil, fmt.Errorf("getEntriesForNumber: number %d week %d: %w", number, week, err)
	}
	return results[0].([]common.Address), nil
}

// GetWinningNumber requests the random number closing the current week and
// returns the id of the request. value tops up the sponsor wallet.
func (s *Service) GetWinningNumber(ctx context.Context, value *big.Int) (common.Hash, error) {
	callData, err := lotteryContractABI.Pack("getWinningNumber")
	if err != nil {
		return common.Hash{}, err
	}
	request := &transaction.TxRequest{
		To:          &s.contractAddress,
		Data:        callData,
		Value:       value,
		Description: "lottery draw request",
	}
	receipt, err := s.sendAndWait(ctx, request)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getWinningNumber: %w", err)
	}

	for _, l := range receipt.Logs {
		if l.Address != s.contractAddress || len(l.Topics) < 2 {
			continue
		}
		if l.Topics[0] == requestedRandomNumberTopic {
			return l.Topics[1], nil
		}
	}
	return common.Hash{}, ErrNoRequestEvent
}

// WaitForRandomNumber waits until the request is fulfilled and returns the
// received random number. It follows the contract logs through a
// subscription when the backend supports one and polls them otherwise.
func (s *Service) WaitForRandomNumber(ctx context.Context, requestID common.Hash) (*big.Int, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{s.contractAddress},
		Topics:    [][]common.Hash{{receivedRandomNumberTopic}, {requestID}},
	}

	logs := make(chan types.Log, 1)
	sub, err := s.filterer.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		s.logger.Debugf("lottery contract: log subscription unavailable, polling: %v", err)
		return s.pollRandomNumber(ctx, query, requestID)
	}
	defer sub.Unsubscribe()

	// The subscription only delivers new logs.
	if random, err := s.findRandomNumber(ctx, query); random != nil || err != nil {
		return random, err
	}

	s.logger.Tracef("lottery contract: waiting for fulfillment of %s", requestID)
	select {
	case l := <-logs:
		return unpackRandomNumber(l)
	case err := <-sub.Err():
		return nil, fmt.Errorf("log subscription: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) pollRandomNumber(ctx context.Context, query ethereum.FilterQuery, requestID common.Hash) (*big.Int, error) {
	for {
		random, err := s.findRandomNumber(ctx, query)
		if random != nil || err != nil {
			return random, err
		}

		s.logger.Tracef("lottery contract: waiting for fulfillment of %s", requestID)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// findRandomNumber returns nil without an error if the query matches no
// logs.
func (s *Service) findRandomNumber(ctx context.Context, query ethereum.FilterQuery) (*big.Int, error) {
	logs, err := s.filterer.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return unpackRandomNumber(logs[0])
}

func unpackRandomNumber(l types.Log) (*big.Int, error) {
	values, err := lotteryContractABI.Unpack("ReceivedRandomNumber", l.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack ReceivedRandomNumber: %w", err)
	}
	return values[0].(*big.Int), nil
}

func (s *Service) WinningNumber(ctx context.Context, week uint64) (*big.Int, error) {
	results, err := s.call(ctx, "winningNumber", new(big.Int).SetUint64(week))
	if err != nil {
		return nil, fmt.Errorf("winningNumber: week %d: %w", week, err)
	}
	return results[0].(*big.Int), nil
}

// CloseWeek closes the current week with number.
func (s *Service) CloseWeek(ctx context.Context, number uint64) (common.Hash, error) {
	callData, err := lotteryContractABI.Pack("closeWeek", new(big.Int).SetUint64(number))
	if err != nil {
		return common.Hash{}, err
	}
	request := &transaction.TxRequest{
		To:          &s.contractAddress,
		Data:        callData,
		Value:       big.NewInt(0),
		Description: "lottery close week",
	}
	receipt, err := s.sendAndWait(ctx, request)
	if err != nil {
		return common.Hash{}, fmt.Errorf("closeWeek: number %d: %w", number, err)
	}
	return receipt.TxHash, nil
}

func (s *Service) SetSponsorWallet(ctx context.Context, wallet common.Address) (common.Hash, error) {
	callData, err := lotteryContractABI.Pack("setSponsorWallet", wallet)
	if err != nil {
		return common.Hash{}, err
	}
	request := &transaction.TxRequest{
		To:          &s.contractAddress,
		Data:        callData,
		Value:       big.NewInt(0),
		Description: "lottery set sponsor wallet",
	}
	receipt, err := s.sendAndWait(ctx, request)
	if err != nil {
		return common.Hash{}, fmt.Errorf("setSponsorWallet: %s: %w", wallet, err)
	}
	return receipt.TxHash, nil
}

func (s *Service) SponsorWallet(ctx context.Context) (common.Address, error) {
	results, err := s.call(ctx, "sponsorWallet")
	if err != nil {
		return common.Address{}, fmt.Errorf("sponsorWallet: %w", err)
	}
	return results[0].(common.Address), nil
}

func (s *Service) Pot(ctx context.Context) (*big.Int, error) {
	results, err := s.call(ctx, "pot")
	if err != nil {
		return nil, fmt.Errorf("pot: %w", err)
	}
	return results[0].(*big.Int), nil
}

func (s *Service) Week(ctx context.Context) (uint64, error) {
	results, err := s.call(ctx, "week")
	if err != nil {
		return 0, fmt.Errorf("week: %w", err)
	}
	return results[0].(*big.Int).Uint64(), nil
}

func (s *Service) EndTime(ctx context.Context) (time.Time, error) {
	results, err := s.call(ctx, "endTime")
	if err != nil {
		return time.Time{}, fmt.Errorf("endTime: %w", err)
	}
	return time.Unix(results[0].(*big.Int).Int64(), 0), nil
}

func (s *Service) TicketPrice(ctx context.Context) (*big.Int, error) {
	results, err := s.call(ctx, "ticketPrice")
	if err != nil {
		return nil, fmt.Errorf("ticketPrice: %w", err)
	}
	return results[0].(*big.Int), nil
}

// call packs a view method call, executes it and unpacks the results.
func (s *Service) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	callData, err := lotteryContractABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	result, err := s.txService.Call(ctx, &transaction.TxRequest{
		To:   &s.contractAddress,
		Data: callData,
	})
	if err != nil {
		return nil, err
	}

	return lotteryContractABI.Unpack(method, result)
}

// sendAndWait sends a transaction based on tx request and waits until the tx is either mined or ctx is cancelled.
func (s *Service) sendAndWait(ctx context.Context, request *transaction.TxRequest) (*types.Receipt, error) {
	txHash, err := s.txService.Send(ctx, request)
	if err != nil {
		return nil, err
	}

	receipt, err := s.txService.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return nil, transaction.ErrTransactionReverted
	}
	return receipt, nil
}
