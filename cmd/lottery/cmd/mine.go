// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/cobra"
)

func (c *command) initMineCmd() {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine a block on a development node",
		Long: `Mines a block on a development node such as hardhat or anvil. With
--timestamp the block gets that unix time, with --increase the node clock is
moved forward first.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			logger, err := newLogger(cmd, c.config.GetString(optionNameVerbosity))
			if err != nil {
				return fmt.Errorf("new logger: %w", err)
			}

			ctx := cmd.Context()
			endpoint := c.config.GetString(optionNameRPCEndpoint)

			client, err := rpc.DialContext(ctx, endpoint)
			if err != nil {
				return fmt.Errorf("dial %s: %w", endpoint, err)
			}
			defer client.Close()

			if increase := c.config.GetDuration(optionNameIncrease); increase > 0 {
				// hardhat answers with a decimal string, ganache and anvil
				// with a number.
				var offset json.RawMessage
				if err := client.CallContext(ctx, &offset, "evm_increaseTime", int64(increase.Seconds())); err != nil {
					return fmt.Errorf("increase time: %w", err)
				}
				logger.Debugf("node clock offset %s", offset)
			}

			var params []interface{}
			if ts := c.config.GetInt64(optionNameTimestamp); ts > 0 {
				params = append(params, ts)
			}
			var result interface{}
			if err := client.CallContext(ctx, &result, "evm_mine", params...); err != nil {
				return fmt.Errorf("mine: %w", err)
			}

			var block struct {
				Number    hexutil.Uint64 `json:"number"`
				Timestamp hexutil.Uint64 `json:"timestamp"`
			}
			if err := client.CallContext(ctx, &block, "eth_getBlockByNumber", "latest", false); err != nil {
				return fmt.Errorf("latest block: %w", err)
			}
			cmd.Printf("Mined block %d at %d\n", block.Number, block.Timestamp)
			return nil
		},
		PreRunE: c.bindFlags,
	}

	cmd.Flags().String(optionNameVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
	cmd.Flags().String(optionNameRPCEndpoint, defaultRPCEndpoint, "ethereum JSON-RPC endpoint of the development node")
	cmd.Flags().Int64(optionNameTimestamp, 0, "unix timestamp of the mined block")
	cmd.Flags().Duration(optionNameIncrease, 0, "move the node clock forward before mining")

	c.root.AddCommand(cmd)
}
