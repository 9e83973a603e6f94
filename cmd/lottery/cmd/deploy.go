// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/lottery/lotterycontract"
	"github.com/camronh/Lottery-Tutorial/pkg/qrng"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

const defaultEndTimeOffset = 9000 * time.Second

func (c *command) initDeployCmd() {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the lottery contract and set its sponsor wallet",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			artifact, err := lotterycontract.LoadArtifact(c.config.GetString(optionNameArtifact))
			if err != nil {
				return fmt.Errorf("load artifact: %w", err)
			}

			cc, err := c.newChainClient(cmd)
			if err != nil {
				return err
			}
			defer cc.Close()

			rrp, err := rrpAddress(c.config.GetString(optionNameRRPAddress), cc.chainID.Int64())
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			endTime := time.Now().Add(c.config.GetDuration(optionNameEndTimeOffset))
			address, txHash, err := lotterycontract.Deploy(ctx, cc.transactionService, artifact, endTime, rrp)
			if err != nil {
				return fmt.Errorf("deploy: %w", err)
			}
			cc.logger.Debugf("deployed in transaction %s", txHash)
			cmd.Printf("Lottery contract deployed to %s\n", address)

			if err := cc.storeDeployment(address); err != nil {
				return fmt.Errorf("store contract address: %w", err)
			}

			contract, err := cc.lottery(address.Hex())
			if err != nil {
				return err
			}
			sponsorWallet, err := c.sponsorWallet(address)
			if err != nil {
				return err
			}
			if _, err := contract.SetSponsorWallet(ctx, sponsorWallet); err != nil {
				return fmt.Errorf("set sponsor wallet: %w", err)
			}
			cmd.Printf("Sponsor wallet set to %s\n", sponsorWallet)
			return nil
		},
		PreRunE: c.bindFlags,
	}

	c.setChainFlags(cmd)
	cmd.Flags().String(optionNameArtifact, "artifacts/contracts/Lottery.sol/Lottery.json", "path of the compiled Lottery contract artifact")
	cmd.Flags().String(optionNameRRPAddress, "", "AirnodeRrp contract address (default is the deployment on the connected chain)")
	cmd.Flags().Duration(optionNameEndTimeOffset, defaultEndTimeOffset, "end time of the first week relative to now")
	c.setAirnodeFlags(cmd)

	c.root.AddCommand(cmd)
}

func (c *command) setAirnodeFlags(cmd *cobra.Command) {
	cmd.Flags().String(optionNameXpub, qrng.Xpub, "extended public key of the QRNG Airnode")
	cmd.Flags().String(optionNameAirnodeAddress, qrng.AirnodeAddress.Hex(), "address of the QRNG Airnode")
}

// sponsorWallet derives the wallet the Airnode fulfills requests of sponsor
// from.
func (c *command) sponsorWallet(sponsor common.Address) (common.Address, error) {
	airnode := c.config.GetString(optionNameAirnodeAddress)
	if !common.IsHexAddress(airnode) {
		return common.Address{}, fmt.Errorf("invalid airnode address %q", airnode)
	}
	wallet, err := qrng.DeriveSponsorWalletAddress(c.config.GetString(optionNameXpub), common.HexToAddress(airnode), sponsor)
	if err != nil {
		return common.Address{}, fmt.Errorf("derive sponsor wallet: %w", err)
	}
	return wallet, nil
}

func rrpAddress(option string, chainID int64) (common.Address, error) {
	if option != "" {
		if !common.IsHexAddress(option) {
			return common.Address{}, fmt.Errorf("invalid rrp address %q", option)
		}
		return common.HexToAddress(option), nil
	}
	address, ok := qrng.RRPAddresses[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("no known AirnodeRrp deployment on chain %d, set --%s", chainID, optionNameRRPAddress)
	}
	return address, nil
}
