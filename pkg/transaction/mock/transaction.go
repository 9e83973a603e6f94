// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mock provides a transaction.Service whose behaviour is configured
// per method with options.
package mock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNotImplemented is returned by methods that were not configured.
var ErrNotImplemented = errors.New("transaction mock: not implemented")

type service struct {
	sender         common.Address
	send           func(ctx context.Context, request *transaction.TxRequest) (common.Hash, error)
	call           func(ctx context.Context, request *transaction.TxRequest) ([]byte, error)
	waitForReceipt func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Option configures the mock service.
type Option func(*service)

// New returns a transaction.Service built from the options.
func New(opts ...Option) transaction.Service {
	s := new(service)
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) Sender() common.Address {
	return s.sender
}

func (s *service) Send(ctx context.Context, request *transaction.TxRequest) (common.Hash, error) {
	if s.send == nil {
		return common.Hash{}, ErrNotImplemented
	}
	return s.send(ctx, request)
}

func (s *service) Call(ctx context.Context, request *transaction.TxRequest) ([]byte, error) {
	if s.call == nil {
		return nil, ErrNotImplemented
	}
	return s.call(ctx, request)
}

func (s *service) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if s.waitForReceipt == nil {
		return nil, ErrNotImplemented
	}
	return s.waitForReceipt(ctx, txHash)
}

func (s *service) StoredTransaction(common.Hash) (*transaction.StoredTransaction, error) {
	return nil, ErrNotImplemented
}

func (s *service) PendingTransactions() ([]common.Hash, error) {
	return nil, nil
}

func (s *service) Close() error {
	return nil
}

func WithSender(sender common.Address) Option {
	return func(s *service) { s.sender = sender }
}

func WithSendFunc(f func(ctx context.Context, request *transaction.TxRequest) (common.Hash, error)) Option {
	return func(s *service) { s.send = f }
}

func WithWaitForReceiptFunc(f func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)) Option {
	return func(s *service) { s.waitForReceipt = f }
}

// Call is an expected contract method call and the raw result returned
// for it.
type Call struct {
	abi    *abi.ABI
	to     common.Address
	result []byte
	method string
	params []interface{}
}

func ABICall(abi *abi.ABI, to common.Address, result []byte, method string, params ...interface{}) Call {
	return Call{abi: abi, to: to, result: result, method: method, params: params}
}

// match reports how request differs from the expected method call to the
// contract at to.
func match(a *abi.ABI, to common.Address, method string, params []interface{}, request *transaction.TxRequest) error {
	data, err := a.Pack(method, params...)
	if err != nil {
		return err
	}
	if !bytes.Equal(data, request.Data) {
		return fmt.Errorf("%s: got data %x, want %x", method, request.Data, data)
	}
	if request.To == nil {
		return fmt.Errorf("%s: no recipient", method)
	}
	if *request.To != to {
		return fmt.Errorf("%s: got recipient %s, want %s", method, request.To, to)
	}
	return nil
}

// WithABICallSequence expects the calls in order, one per Call.
func WithABICallSequence(calls ...Call) Option {
	return func(s *service) {
		s.call = func(_ context.Context, request *transaction.TxRequest) ([]byte, error) {
			if len(calls) == 0 {
				return nil, errors.New("unexpected call")
			}
			c := calls[0]
			if err := match(c.abi, c.to, c.method, c.params, request); err != nil {
				return nil, err
			}
			calls = calls[1:]
			return c.result, nil
		}
	}
}

// WithABISend expects transactions calling method on the contract at to
// with the given value and answers them with txHash.
func WithABISend(abi *abi.ABI, txHash common.Hash, to common.Address, value *big.Int, method string, params ...interface{}) Option {
	return func(s *service) {
		s.send = func(_ context.Context, request *transaction.TxRequest) (common.Hash, error) {
			if err := match(abi, to, method, params, request); err != nil {
				return common.Hash{}, err
			}
			got := request.Value
			if got == nil {
				got = new(big.Int)
			}
			if got.Cmp(value) != 0 {
				return common.Hash{}, fmt.Errorf("%s: got value %d, want %d", method, got, value)
			}
			return txHash, nil
		}
	}
}
