// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/spf13/cobra"
)

func (c *command) initEnterCmd() {
	cmd := &cobra.Command{
		Use:   "enter",
		Short: "Buy a ticket for a number in the current week",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			cc, err := c.newChainClient(cmd)
			if err != nil {
				return err
			}
			defer cc.Close()

			contract, err := cc.lottery(c.config.GetString(optionNameContractAddress))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			number := c.config.GetUint64(optionNameNumber)

			ticketPrice, err := contract.TicketPrice(ctx)
			if err != nil {
				return fmt.Errorf("ticket price: %w", err)
			}
			cmd.Printf("Entering number %d for %s ETH\n", number, ether.FormatEther(ticketPrice))

			txHash, err := contract.Enter(ctx, number, ticketPrice)
			if err != nil {
				return fmt.Errorf("enter: %w", err)
			}
			cc.logger.Debugf("entered in transaction %s", txHash)

			week, err := contract.Week(ctx)
			if err != nil {
				return fmt.Errorf("week: %w", err)
			}
			entries, err := contract.EntriesForNumber(ctx, number, week)
			if err != nil {
				return fmt.Errorf("entries: %w", err)
			}
			cmd.Printf("Entries for number %d in week %d:\n", number, week)
			for _, e := range entries {
				cmd.Println(e.Hex())
			}
			return nil
		},
		PreRunE: c.bindFlags,
	}

	c.setChainFlags(cmd)
	cmd.Flags().Uint64(optionNameNumber, 1, "number to enter")

	c.root.AddCommand(cmd)
}
