// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *command) initSponsorCmd() {
	cmd := &cobra.Command{
		Use:   "sponsor",
		Short: "Print the sponsor wallet of the lottery contract",
		Long: `Derives the wallet the QRNG Airnode uses to fulfill requests of the lottery
contract. With --set the contract owner stores it on the contract.`,
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

			sponsorWallet, err := c.sponsorWallet(contract.Address())
			if err != nil {
				return err
			}
			cmd.Printf("Sponsor wallet: %s\n", sponsorWallet)

			if !c.config.GetBool(optionNameSet) {
				return nil
			}

			current, err := contract.SponsorWallet(cmd.Context())
			if err != nil {
				return fmt.Errorf("sponsor wallet: %w", err)
			}
			if current == sponsorWallet {
				cmd.Println("Sponsor wallet already set")
				return nil
			}
			if _, err := contract.SetSponsorWallet(cmd.Context(), sponsorWallet); err != nil {
				return fmt.Errorf("set sponsor wallet: %w", err)
			}
			cmd.Println("Sponsor wallet set")
			return nil
		},
		PreRunE: c.bindFlags,
	}

	c.setChainFlags(cmd)
	c.setAirnodeFlags(cmd)
	cmd.Flags().Bool(optionNameSet, false, "set the sponsor wallet on the contract")

	c.root.AddCommand(cmd)
}
