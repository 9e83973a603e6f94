// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/storage"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	noncePrefix              = "transaction_nonce_"
	storedTransactionPrefix  = "transaction_stored_"
	pendingTransactionPrefix = "transaction_pending_"

	DefaultPollInterval = time.Second
)

var (
	// ErrTransactionReverted denotes that the sent transaction has been
	// reverted.
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrUnknownTransaction  = errors.New("unknown transaction")
)

// TxRequest describes a request for a transaction that can be executed.
type TxRequest struct {
	To          *common.Address // recipient of the transaction or nil for a contract creation
	Data        []byte          // transaction data
	GasPrice    *big.Int        // gas price of a legacy transaction or nil if the fees should be suggested
	GasLimit    uint64          // gas limit or 0 if it should be estimated
	Value       *big.Int        // amount of wei to send
	Description string          // optional description
}

type StoredTransaction struct {
	To          *common.Address // recipient of the transaction
	Data        []byte          // transaction data
	GasPrice    *big.Int        // used gas price, the fee cap of dynamic fee transactions
	GasTipCap   *big.Int        // used tip cap or nil for legacy transactions
	GasLimit    uint64          // used gas limit
	Value       *big.Int        // amount of wei to send
	Nonce       uint64          // used nonce
	Created     int64           // creation timestamp
	Description string          // description
}

// Service is the service to send transactions. It takes care of gas price, gas
// limit and nonce management.
type Service interface {
	io.Closer
	// Sender is the account transactions are sent from.
	Sender() common.Address
	// Send creates a transaction based on the request and sends it.
	Send(ctx context.Context, request *TxRequest) (txHash common.Hash, err error)
	// Call simulate a transaction based on the request.
	Call(ctx context.Context, request *TxRequest) (result []byte, err error)
	// WaitForReceipt waits until either the transaction with the given hash has been mined or the context is cancelled.
	WaitForReceipt(ctx context.Context, txHash common.Hash) (receipt *types.Receipt, err error)
	// StoredTransaction retrieves the stored information for the transaction
	StoredTransaction(txHash common.Hash) (*StoredTransaction, error)
	// PendingTransactions retrieves the list of all pending transaction hashes
	PendingTransactions() ([]common.Hash, error)
}

type transactionService struct {
	wg     sync.WaitGroup
	lock   sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	logger       logging.Logger
	backend      Backend
	signer       Signer
	sender       common.Address
	store        storage.StateStorer
	chainID      *big.Int
	pollInterval time.Duration
}

// NewService creates a new transaction service. Transactions still pending
// from a previous run are watched again.
func NewService(logger logging.Logger, backend Backend, signer Signer, store storage.StateStorer, chainID *big.Int, pollInterval time.Duration) (Service, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	t := &transactionService{
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
		backend:      backend,
		signer:       signer,
		sender:       signer.EthereumAddress(),
		store:        store,
		chainID:      chainID,
		pollInterval: pollInterval,
	}

	pendingTxs, err := t.PendingTransactions()
	if err != nil {
		cancel()
		return nil, err
	}
	for _, txHash := range pendingTxs {
		t.waitForPendingTx(txHash)
	}

	return t, nil
}

func (t *transactionService) Sender() common.Address {
	return t.sender
}

// Send signs a transaction built from the request with the next nonce and
// broadcasts it. The transaction is recorded as pending until its receipt
// arrives.
func (t *transactionService) Send(ctx context.Context, request *TxRequest) (common.Hash, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	nonce, err := t.nextNonce(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce: %w", err)
	}

	tx, err := prepareTransaction(ctx, request, t.sender, t.backend, t.chainID, nonce)
	if err != nil {
		return common.Hash{}, fmt.Errorf("prepare %s transaction: %w", txDescription(request), err)
	}

	signed, err := t.signer.SignTx(tx, t.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	txHash := signed.Hash()

	t.logger.Tracef("sending %s transaction %x with nonce %d", txDescription(request), txHash, nonce)
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send %s transaction: %w", txDescription(request), err)
	}

	if err := t.store.Put(t.nonceKey(), nonce+1); err != nil {
		return common.Hash{}, err
	}
	if err := t.record(signed, request.Description); err != nil {
		return common.Hash{}, err
	}

	t.waitForPendingTx(txHash)
	return txHash, nil
}

// record stores the details of a sent transaction and marks it pending.
func (t *transactionService) record(tx *types.Transaction, description string) error {
	var tipCap *big.Int
	if tx.Type() != types.LegacyTxType {
		tipCap = tx.GasTipCap()
	}
	stored := StoredTransaction{
		To:          tx.To(),
		Data:        tx.Data(),
		GasPrice:    tx.GasFeeCap(),
		GasTipCap:   tipCap,
		GasLimit:    tx.Gas(),
		Value:       tx.Value(),
		Nonce:       tx.Nonce(),
		Created:     time.Now().Unix(),
		Description: description,
	}
	if err := t.store.Put(t.storedTransactionKey(tx.Hash()), stored); err != nil {
		return fmt.Errorf("store transaction %x: %w", tx.Hash(), err)
	}
	if err := t.store.Put(t.pendingTransactionKey(tx.Hash()), struct{}{}); err != nil {
		return fmt.Errorf("mark transaction %x pending: %w", tx.Hash(), err)
	}
	return nil
}

// waitForPendingTx clears the pending mark of the transaction once it is
// mined. It stops when the service is closed.
func (t *transactionService) waitForPendingTx(txHash common.Hash) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		receipt, err := t.WaitForReceipt(t.ctx, txHash)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			t.logger.Errorf("transaction %x: waiting for receipt: %v", txHash, err)
			return
		case receipt.Status == types.ReceiptStatusFailed:
			t.logger.Warningf("transaction %x reverted in block %d", txHash, receipt.BlockNumber)
		default:
			t.logger.Tracef("transaction %x confirmed in block %d", txHash, receipt.BlockNumber)
		}

		if err := t.store.Delete(t.pendingTransactionKey(txHash)); err != nil {
			t.logger.Errorf("transaction %x: clear pending mark: %v", txHash, err)
		}
	}()
}

func (t *transactionService) Call(ctx context.Context, request *TxRequest) ([]byte, error) {
	msg := ethereum.CallMsg{
		From:     t.sender,
		To:       request.To,
		Data:     request.Data,
		GasPrice: request.GasPrice,
		Gas:      request.GasLimit,
		Value:    request.Value,
	}
	return t.backend.CallContract(ctx, msg, nil)
}

func (t *transactionService) StoredTransaction(txHash common.Hash) (*StoredTransaction, error) {
	tx := new(StoredTransaction)
	switch err := t.store.Get(t.storedTransactionKey(txHash), tx); {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrUnknownTransaction
	case err != nil:
		return nil, err
	}
	return tx, nil
}

// prepareTransaction creates a signable transaction based on a request. On
// chains with a base fee it is a dynamic fee transaction paying the suggested
// tip on top of twice the base fee at most. A request with a gas price is
// always sent as a legacy transaction.
func prepareTransaction(ctx context.Context, request *TxRequest, from common.Address, backend Backend, chainID *big.Int, nonce uint64) (tx *types.Transaction, err error) {
	gasLimit := request.GasLimit
	if gasLimit == 0 {
		gasLimit, err = backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    request.To,
			Data:  request.Data,
			Value: request.Value,
		})
		if err != nil {
			return nil, err
		}
		gasLimit += gasLimit / 5 // add 20% on top
	}

	value := request.Value
	if value == nil {
		value = new(big.Int)
	}

	var baseFee *big.Int
	if request.GasPrice == nil {
		header, err := backend.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("latest header: %w", err)
		}
		baseFee = header.BaseFee
	}

	if baseFee == nil {
		gasPrice := request.GasPrice
		if gasPrice == nil {
			if gasPrice, err = backend.SuggestGasPrice(ctx); err != nil {
				return nil, err
			}
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       request.To,
			Value:    value,
			Gas:      gasLimit,
			GasPrice: gasPrice,
			Data:     request.Data,
		}), nil
	}

	gasTipCap, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, err
	}
	gasFeeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), gasTipCap)

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        request.To,
		Value:     value,
		Data:      request.Data,
	}), nil
}

func txDescription(request *TxRequest) string {
	if request.Description == "" {
		return "unnamed"
	}
	return request.Description
}

// Keys are scoped by chain id, so one state store can serve several chains.

func (t *transactionService) nonceKey() string {
	return fmt.Sprintf("%s%s_%x", noncePrefix, t.chainID, t.sender)
}

func (t *transactionService) storedTransactionKey(txHash common.Hash) string {
	return fmt.Sprintf("%s%s_%x", storedTransactionPrefix, t.chainID, txHash)
}

func (t *transactionService) pendingPrefix() string {
	return fmt.Sprintf("%s%s_", pendingTransactionPrefix, t.chainID)
}

func (t *transactionService) pendingTransactionKey(txHash common.Hash) string {
	return fmt.Sprintf("%s%x", t.pendingPrefix(), txHash)
}

// nextNonce is the locally tracked nonce unless the chain reports a higher
// one, which happens after transactions sent by other clients.
func (t *transactionService) nextNonce(ctx context.Context) (uint64, error) {
	pending, err := t.backend.PendingNonceAt(ctx, t.sender)
	if err != nil {
		return 0, err
	}

	var local uint64
	switch err := t.store.Get(t.nonceKey(), &local); {
	case errors.Is(err, storage.ErrNotFound):
		return pending, nil
	case err != nil:
		return 0, err
	}
	if pending > local {
		return pending, nil
	}
	return local, nil
}

// WaitForReceipt polls the backend until the transaction with the given hash
// has been mined or the context is cancelled.
func (t *transactionService) WaitForReceipt(ctx context.Context, txHash common.Hash) (receipt *types.Receipt, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		receipt, err := t.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			t.logger.Tracef("waiting for receipt of %x: %v", txHash, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.pollInterval):
		}
	}
}

func (t *transactionService) PendingTransactions() ([]common.Hash, error) {
	hashes := make([]common.Hash, 0)
	prefix := t.pendingPrefix()
	err := t.store.Iterate(prefix, func(key, _ []byte) (bool, error) {
		hashes = append(hashes, common.HexToHash(strings.TrimPrefix(string(key), prefix)))
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pending transactions: %w", err)
	}
	return hashes, nil
}

func (t *transactionService) Close() error {
	t.cancel()
	t.wg.Wait()
	return nil
}
