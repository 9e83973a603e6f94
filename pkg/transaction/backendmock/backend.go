// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backendmock provides a transaction.Backend whose methods are
// replaced by functions given as options. Methods without a function return
// ErrNotImplemented.
package backendmock

import (
	"context"
	"errors"
	"math/big"

	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrNotImplemented = errors.New("not implemented")

type backendMock struct {
	codeAt             func(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	callContract       func(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	headerByNumber     func(ctx context.Context, number *big.Int) (*types.Header, error)
	pendingNonceAt     func(ctx context.Context, account common.Address) (uint64, error)
	suggestGasPrice    func(ctx context.Context) (*big.Int, error)
	suggestGasTipCap   func(ctx context.Context) (*big.Int, error)
	estimateGas        func(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	sendTransaction    func(ctx context.Context, tx *types.Transaction) error
	filterLogs         func(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	subscribeFilterLog func(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	transactionReceipt func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// New returns a backend with the given functions.
func New(opts ...Option) transaction.Backend {
	m := new(backendMock)
	for _, o := range opts {
		o(m)
	}
	return m
}

// Option sets a function of the mock backend.
type Option func(*backendMock)

func (m *backendMock) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if m.codeAt == nil {
		return nil, ErrNotImplemented
	}
	return m.codeAt(ctx, contract, blockNumber)
}

func (m *backendMock) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return m.CodeAt(ctx, account, nil)
}

func (m *backendMock) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if m.callContract == nil {
		return nil, ErrNotImplemented
	}
	return m.callContract(ctx, call, blockNumber)
}

func (m *backendMock) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if m.headerByNumber == nil {
		return nil, ErrNotImplemented
	}
	return m.headerByNumber(ctx, number)
}

func (m *backendMock) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if m.pendingNonceAt == nil {
		return 0, ErrNotImplemented
	}
	return m.pendingNonceAt(ctx, account)
}

func (m *backendMock) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if m.suggestGasPrice == nil {
		return nil, ErrNotImplemented
	}
	return m.suggestGasPrice(ctx)
}

func (m *backendMock) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if m.suggestGasTipCap == nil {
		return nil, ErrNotImplemented
	}
	return m.suggestGasTipCap(ctx)
}

func (m *backendMock) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if m.estimateGas == nil {
		return 0, ErrNotImplemented
	}
	return m.estimateGas(ctx, call)
}

func (m *backendMock) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if m.sendTransaction == nil {
		return ErrNotImplemented
	}
	return m.sendTransaction(ctx, tx)
}

func (m *backendMock) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if m.filterLogs == nil {
		return nil, ErrNotImplemented
	}
	return m.filterLogs(ctx, query)
}

func (m *backendMock) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if m.subscribeFilterLog == nil {
		return nil, ErrNotImplemented
	}
	return m.subscribeFilterLog(ctx, query, ch)
}

func (m *backendMock) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if m.transactionReceipt == nil {
		return nil, ErrNotImplemented
	}
	return m.transactionReceipt(ctx, txHash)
}

func WithCodeAtFunc(f func(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)) Option {
	return func(m *backendMock) { m.codeAt = f }
}

func WithCallContractFunc(f func(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)) Option {
	return func(m *backendMock) { m.callContract = f }
}

func WithHeaderByNumberFunc(f func(ctx context.Context, number *big.Int) (*types.Header, error)) Option {
	return func(m *backendMock) { m.headerByNumber = f }
}

// WithBaseFee makes the latest header carry baseFee. A nil baseFee is a
// chain without dynamic fees.
func WithBaseFee(baseFee *big.Int) Option {
	return WithHeaderByNumberFunc(func(context.Context, *big.Int) (*types.Header, error) {
		return &types.Header{Number: big.NewInt(1), BaseFee: baseFee}, nil
	})
}

func WithPendingNonceAtFunc(f func(ctx context.Context, account common.Address) (uint64, error)) Option {
	return func(m *backendMock) { m.pendingNonceAt = f }
}

func WithSuggestGasPriceFunc(f func(ctx context.Context) (*big.Int, error)) Option {
	return func(m *backendMock) { m.suggestGasPrice = f }
}

func WithSuggestGasTipCapFunc(f func(ctx context.Context) (*big.Int, error)) Option {
	return func(m *backendMock) { m.suggestGasTipCap = f }
}

func WithEstimateGasFunc(f func(ctx context.Context, call ethereum.CallMsg) (uint64, error)) Option {
	return func(m *backendMock) { m.estimateGas = f }
}

func WithSendTransactionFunc(f func(ctx context.Context, tx *types.Transaction) error) Option {
	return func(m *backendMock) { m.sendTransaction = f }
}

func WithFilterLogsFunc(f func(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)) Option {
	return func(m *backendMock) { m.filterLogs = f }
}

func WithSubscribeFilterLogsFunc(f func(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)) Option {
	return func(m *backendMock) { m.subscribeFilterLog = f }
}

func WithTransactionReceiptFunc(f func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)) Option {
	return func(m *backendMock) { m.transactionReceipt = f }
}
