// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/camronh/Lottery-Tutorial/pkg/node"
	"github.com/camronh/Lottery-Tutorial/pkg/wallet"
	"github.com/spf13/cobra"
)

const optionNameWeeks = "weeks"

var errDrawTimeout = errors.New("timed out waiting for the random number")

func (c *command) initSimulateCmd() {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run lottery weeks on a simulated chain and print a report",
		Long: `Runs the lottery on an in-memory chain. Every week each account buys a
ticket, the chain is mined to the end of the week and the owner requests the
winning number from the simulated QRNG Airnode.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			logger, err := newLogger(cmd, c.config.GetString(optionNameVerbosity))
			if err != nil {
				return fmt.Errorf("new logger: %w", err)
			}

			o, err := c.simulatedOptions()
			if err != nil {
				return err
			}
			o.DataDir = ""

			n, err := node.NewSimulated(logger, o)
			if err != nil {
				return err
			}
			defer func() {
				if e := n.Shutdown(context.Background()); e != nil && err == nil {
					err = e
				}
			}()

			ctx := cmd.Context()
			weeks := c.config.GetUint64(optionNameWeeks)
			timeout := c.config.GetDuration(optionNameWaitTimeout)

			for i := uint64(0); i < weeks; i++ {
				if err := simulateWeek(ctx, cmd, n, o.AgentTopUp, timeout); err != nil {
					return err
				}
			}

			cmd.Println("Balances:")
			for _, key := range n.Accounts {
				address := wallet.Address(key)
				cmd.Printf("%s: (%s ETH)\n", address.Hex(), ether.FormatEther(n.Chain.BalanceAt(address)))
			}
			cmd.Printf("Week %d pot: %s ETH\n", n.Lottery.Week(), ether.FormatEther(n.Lottery.Pot()))
			return nil
		},
		PreRunE: c.bindFlags,
	}

	c.setSimulationFlags(cmd)
	cmd.Flags().Uint64(optionNameWeeks, 3, "number of weeks to draw")
	cmd.Flags().Duration(optionNameWaitTimeout, time.Minute, "maximal time to wait for a draw")

	c.root.AddCommand(cmd)
}

// simulateWeek enters a number for every account, ends the week and waits
// for its draw.
func simulateWeek(ctx context.Context, cmd *cobra.Command, n *node.Node, topUp *big.Int, timeout time.Duration) error {
	l := n.Lottery
	week := l.Week()
	min, max := l.NumberRange()
	span := max - min + 1

	for i, key := range n.Accounts {
		number := min + (week+uint64(i))%span
		if _, err := l.Enter(ctx, wallet.Address(key), number, l.TicketPrice()); err != nil {
			return fmt.Errorf("enter week %d: %w", week, err)
		}
	}
	pot := l.Pot()

	if err := n.Chain.Mine(l.EndTime()); err != nil {
		return fmt.Errorf("mine end of week %d: %w", week, err)
	}

	ch := make(chan lottery.ReceivedRandomNumber, 1)
	sub := l.SubscribeRandomNumber(ch)
	defer sub.Unsubscribe()

	requestID, err := l.RequestWinningNumber(ctx, n.Owner, topUp)
	if err != nil {
		return fmt.Errorf("request winning number of week %d: %w", week, err)
	}

	var ev lottery.ReceivedRandomNumber
	select {
	case ev = <-ch:
	case <-time.After(timeout):
		return fmt.Errorf("week %d request %s: %w", week, requestID, errDrawTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	winners, err := l.EntriesForNumber(ev.Number, week)
	if err != nil {
		return fmt.Errorf("entries of week %d: %w", week, err)
	}
	cmd.Printf("Week %d: %d entries, pot %s ETH, winning number %d, %d winners\n",
		week, len(n.Accounts), ether.FormatEther(pot), ev.Number, len(winners))
	return nil
}
