// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/spf13/cobra"
)

func (c *command) initCloseCmd() {
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Request the winning number of the ended week and wait for the draw",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			topUp, err := c.parseEtherOption(optionNameTopUp)
			if err != nil {
				return err
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

			week, err := contract.Week(ctx)
			if err != nil {
				return fmt.Errorf("week: %w", err)
			}

			requestID, err := contract.GetWinningNumber(ctx, topUp)
			if err != nil {
				return fmt.Errorf("get winning number: %w", err)
			}
			cmd.Printf("Requested random number %s for week %d\n", requestID, week)

			waitCtx := ctx
			if timeout := c.config.GetDuration(optionNameWaitTimeout); timeout > 0 {
				var cancel context.CancelFunc
				waitCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if _, err := contract.WaitForRandomNumber(waitCtx, requestID); err != nil {
				return fmt.Errorf("wait for random number: %w", err)
			}

			winningNumber, err := contract.WinningNumber(ctx, week)
			if err != nil {
				return fmt.Errorf("winning number: %w", err)
			}
			cmd.Printf("Winning number of week %d: %s\n", week, winningNumber)
			return nil
		},
		PreRunE: c.bindFlags,
	}

	c.setChainFlags(cmd)
	cmd.Flags().String(optionNameTopUp, ether.FormatEther(lottery.DefaultTopUp), "ether sent to the sponsor wallet with the request")
	cmd.Flags().Duration(optionNameWaitTimeout, 10*time.Minute, "maximal time to wait for the Airnode to fulfill the request, 0 waits forever")

	c.root.AddCommand(cmd)
}
