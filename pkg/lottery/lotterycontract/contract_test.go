// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lotterycontract_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery/lotterycontract"
	"github.com/camronh/Lottery-Tutorial/pkg/transaction"
	"github.com/camronh/Lottery-Tutorial/pkg/transaction/backendmock"
	transactionMock "github.com/camronh/Lottery-Tutorial/pkg/transaction/mock"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/google/go-cmp/cmp"
)

var (
	lotteryABI      = mustParseABI(lotterycontract.LotteryABI)
	contractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	requestID       = common.HexToHash("0x1c8b4d0b6f2b7e07a5e1d9c7e1b0a4ee9f8b3cbb19a1f3e5c1f0b2f4d2d9c5a1")
	txHash          = common.HexToHash("0x2b4f")
)

func mustParseABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}

func mustPackOutputs(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	data, err := lotteryABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func successReceipt(logs ...*types.Log) func(context.Context, common.Hash) (*types.Receipt, error) {
	return func(_ context.Context, h common.Hash) (*types.Receipt, error) {
		if h != txHash {
			return nil, errors.New("unexpected tx hash")
		}
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: h, Logs: logs}, nil
	}
}

func TestEnter(t *testing.T) {
	t.Parallel()

	price := ether.MustParseEther("0.0001")

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		contract := lotterycontract.New(
			logging.Noop(),
			backendmock.New(),
			transactionMock.New(
				transactionMock.WithABISend(&lotteryABI, txHash, contractAddress, price, "enter", big.NewInt(2)),
				transactionMock.WithWaitForReceiptFunc(successReceipt()),
			),
			contractAddress,
		)

		got, err := contract.Enter(context.Background(), 2, price)
		if err != nil {
			t.Fatal(err)
		}
		if got != txHash {
			t.Fatalf("got tx hash %s, want %s", got, txHash)
		}
	})

	t.Run("reverted", func(t *testing.T) {
		t.Parallel()

		contract := lotterycontract.New(
			logging.Noop(),
			backendmock.New(),
			transactionMock.New(
				transactionMock.WithABISend(&lotteryABI, txHash, contractAddress, price, "enter", big.NewInt(2)),
				transactionMock.WithWaitForReceiptFunc(func(context.Context, common.Hash) (*types.Receipt, error) {
					return &types.Receipt{Status: types.ReceiptStatusFailed}, nil
				}),
			),
			contractAddress,
		)

		_, err := contract.Enter(context.Background(), 2, price)
		if !errors.Is(err, transaction.ErrTransactionReverted) {
			t.Fatalf("got error %v, want %v", err, transaction.ErrTransactionReverted)
		}
	})
}

func TestViews(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pot := ether.MustParseEther("0.0003")
	price := ether.MustParseEther("0.0001")
	endTime := time.Unix(1700000000, 0)
	wallet := common.HexToAddress("0x61648B2Ec3e6b3492E90184Ef281C2ba28a675ec")
	entries := []common.Address{
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
	}

	contract := lotterycontract.New(
		logging.Noop(),
		backendmock.New(),
		transactionMock.New(
			transactionMock.WithABICallSequence(
				transactionMock.ABICall(&lotteryABI, contractAddress, mustPackOutputs(t, "pot", pot), "pot"),
				transactionMock.ABICall(&lotteryABI, contractAddress, mustPackOutputs(t, "week", big.NewInt(3)), "week"),
				transactionMock.ABICall(&lotteryABI, contractAddress, mustPackOutputs(t, "endTime", big.NewInt(endTime.Unix())), "endTime"),
				transactionMock.ABICall(&lotteryABI, contractAddress, mustPackOutputs(t, "ticketPrice", price), "ticketPrice"),
				transactionMock.ABICall(&lotteryABI, contractAddress, mustPackOutputs(t, "sponsorWallet", wallet), "sponsorWallet"),
				transactionMock.ABICall(&lotteryABI, contractAddress, mustPackOutputs(t, "getEntriesForNumber", entries), "getEntriesForNumber", big.NewInt(2), big.NewInt(3)),
				transactionMock.ABICall(&lotteryABI, contractAddress, mustPackOutputs(t, "winningNumber", big.NewInt(2)), "winningNumber", big.NewInt(2)),
			),
		),
		contractAddress,
	)

	gotPot, err := contract.Pot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if gotPot.Cmp(pot) != 0 {
		t.Fatalf("got pot %s, want %s", gotPot, pot)
	}

	week, err := contract.Week(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if week != 3 {
		t.Fatalf("got week %d, want 3", week)
	}

	gotEnd, err := contract.EndTime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !gotEnd.Equal(endTime) {
		t.Fatalf("got end time %s, want %s", gotEnd, endTime)
	}

	gotPrice, err := contract.TicketPrice(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if gotPrice.Cmp(price) != 0 {
		t.Fatalf("got ticket price %s, want %s", gotPrice, price)
	}

	gotWallet, err := contract.SponsorWallet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if gotWallet != wallet {
		t.Fatalf("got sponsor wallet %s, want %s", gotWallet, wallet)
	}

	gotEntries, err := contract.EntriesForNumber(ctx, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries, gotEntries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	winning, err := contract.WinningNumber(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if winning.Uint64() != 2 {
		t.Fatalf("got winning number %s, want 2", winning)
	}
}

func TestGetWinningNumber(t *testing.T) {
	t.Parallel()

	topUp := ether.MustParseEther("0.01")
	requestTopic := lotteryABI.Events["RequestedRandomNumber"].ID

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		contract := lotterycontract.New(
			logging.Noop(),
			backendmock.New(),
			transactionMock.New(
				transactionMock.WithABISend(&lotteryABI, txHash, contractAddress, topUp, "getWinningNumber"),
				transactionMock.WithWaitForReceiptFunc(successReceipt(
					// logs of other contracts are skipped
					&types.Log{Address: common.HexToAddress("0xa0AD79D995DdeeB18a14eAef56A549A04e3Aa1Bd"), Topics: []common.Hash{requestTopic, {}}},
					&types.Log{Address: contractAddress, Topics: []common.Hash{requestTopic, requestID}},
				)),
			),
			contractAddress,
		)

		got, err := contract.GetWinningNumber(context.Background(), topUp)
		if err != nil {
			t.Fatal(err)
		}
		if got != requestID {
			t.Fatalf("got request id %s, want %s", got, requestID)
		}
	})

	t.Run("no event", func(t *testing.T) {
		t.Parallel()

		contract := lotterycontract.New(
			logging.Noop(),
			backendmock.New(),
			transactionMock.New(
				transactionMock.WithABISend(&lotteryABI, txHash, contractAddress, topUp, "getWinningNumber"),
				transactionMock.WithWaitForReceiptFunc(successReceipt()),
			),
			contractAddress,
		)

		_, err := contract.GetWinningNumber(context.Background(), topUp)
		if !errors.Is(err, lotterycontract.ErrNoRequestEvent) {
			t.Fatalf("got error %v, want %v", err, lotterycontract.ErrNoRequestEvent)
		}
	})
}

func TestWaitForRandomNumber(t *testing.T) {
	t.Parallel()

	receivedEvent := lotteryABI.Events["ReceivedRandomNumber"]
	data, err := receivedEvent.Inputs.NonIndexed().Pack(big.NewInt(4))
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	contract := lotterycontract.New(
		logging.Noop(),
		backendmock.New(
			backendmock.WithFilterLogsFunc(func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
				wantTopics := [][]common.Hash{{receivedEvent.ID}, {requestID}}
				if diff := cmp.Diff(wantTopics, q.Topics); diff != "" {
					return nil, errors.New("unexpected topics: " + diff)
				}
				calls++
				if calls < 3 {
					return nil, nil
				}
				return []types.Log{{Address: contractAddress, Topics: []common.Hash{receivedEvent.ID, requestID}, Data: data}}, nil
			}),
		),
		transactionMock.New(),
		contractAddress,
	)
	contract.SetPollInterval(time.Millisecond)

	got, err := contract.WaitForRandomNumber(context.Background(), requestID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Uint64() != 4 {
		t.Fatalf("got random number %s, want 4", got)
	}
	if calls != 3 {
		t.Fatalf("got %d log queries, want 3", calls)
	}
}

func TestWaitForRandomNumberSubscription(t *testing.T) {
	t.Parallel()

	receivedEvent := lotteryABI.Events["ReceivedRandomNumber"]
	data, err := receivedEvent.Inputs.NonIndexed().Pack(big.NewInt(2))
	if err != nil {
		t.Fatal(err)
	}

	filterCalls := 0
	contract := lotterycontract.New(
		logging.Noop(),
		backendmock.New(
			backendmock.WithFilterLogsFunc(func(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
				filterCalls++
				return nil, nil
			}),
			backendmock.WithSubscribeFilterLogsFunc(func(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
				if diff := cmp.Diff([]common.Address{contractAddress}, q.Addresses); diff != "" {
					return nil, errors.New("unexpected addresses: " + diff)
				}
				return event.NewSubscription(func(quit <-chan struct{}) error {
					select {
					case ch <- types.Log{Address: contractAddress, Topics: []common.Hash{receivedEvent.ID, requestID}, Data: data}:
					case <-quit:
					}
					<-quit
					return nil
				}), nil
			}),
		),
		transactionMock.New(),
		contractAddress,
	)

	got, err := contract.WaitForRandomNumber(context.Background(), requestID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Uint64() != 2 {
		t.Fatalf("got random number %s, want 2", got)
	}
	if filterCalls != 1 {
		t.Fatalf("got %d log queries, want 1", filterCalls)
	}
}

func TestWaitForRandomNumberCancel(t *testing.T) {
	t.Parallel()

	contract := lotterycontract.New(
		logging.Noop(),
		backendmock.New(
			backendmock.WithFilterLogsFunc(func(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
				return nil, nil
			}),
		),
		transactionMock.New(),
		contractAddress,
	)
	contract.SetPollInterval(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := contract.WaitForRandomNumber(ctx, requestID)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got error %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestOwnerCalls(t *testing.T) {
	t.Parallel()

	wallet := common.HexToAddress("0x61648B2Ec3e6b3492E90184Ef281C2ba28a675ec")

	contract := lotterycontract.New(
		logging.Noop(),
		backendmock.New(),
		transactionMock.New(
			transactionMock.WithABISend(&lotteryABI, txHash, contractAddress, big.NewInt(0), "setSponsorWallet", wallet),
			transactionMock.WithWaitForReceiptFunc(successReceipt()),
		),
		contractAddress,
	)
	if _, err := contract.SetSponsorWallet(context.Background(), wallet); err != nil {
		t.Fatal(err)
	}

	contract = lotterycontract.New(
		logging.Noop(),
		backendmock.New(),
		transactionMock.New(
			transactionMock.WithABISend(&lotteryABI, txHash, contractAddress, big.NewInt(0), "closeWeek", big.NewInt(1)),
			transactionMock.WithWaitForReceiptFunc(successReceipt()),
		),
		contractAddress,
	)
	if _, err := contract.CloseWeek(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
}
