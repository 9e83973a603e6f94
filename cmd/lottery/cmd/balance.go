// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/spf13/cobra"
)

func (c *command) initBalanceCmd() {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the balance of the signing account",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			cc, err := c.newChainClient(cmd)
			if err != nil {
				return err
			}
			defer cc.Close()

			balance, err := cc.backend.BalanceAt(cmd.Context(), cc.address, nil)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			cmd.Printf("%s: (%s ETH)\n", cc.address.Hex(), ether.FormatEther(balance))
			return nil
		},
		PreRunE: c.bindFlags,
	}

	c.setChainFlags(cmd)

	c.root.AddCommand(cmd)
}
