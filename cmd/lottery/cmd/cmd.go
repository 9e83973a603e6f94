// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/ether"
	"github.com/camronh/Lottery-Tutorial/pkg/logging"
	"github.com/camronh/Lottery-Tutorial/pkg/lottery"
	"github.com/camronh/Lottery-Tutorial/pkg/node"
	"github.com/camronh/Lottery-Tutorial/pkg/wallet"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	optionNameDataDir          = "data-dir"
	optionNameVerbosity        = "verbosity"
	optionNameRPCEndpoint      = "rpc-endpoint"
	optionNameMnemonic         = "mnemonic"
	optionNameAccountIndex     = "account-index"
	optionNameContractAddress  = "contract-address"
	optionNamePollInterval     = "poll-interval"
	optionNameRRPAddress       = "rrp-address"
	optionNameArtifact         = "artifact"
	optionNameEndTimeOffset    = "end-time-offset"
	optionNameXpub             = "xpub"
	optionNameAirnodeAddress   = "airnode-address"
	optionNameSet              = "set"
	optionNameNumber           = "number"
	optionNameTopUp            = "top-up"
	optionNameWaitTimeout      = "wait-timeout"
	optionNameTimestamp        = "timestamp"
	optionNameIncrease         = "increase"
	optionNameAPIAddr          = "api-addr"
	optionCORSAllowedOrigins   = "cors-allowed-origins"
	optionNameAccounts         = "accounts"
	optionNameInitialBalance   = "initial-balance"
	optionNameAirnodeMnemonic  = "airnode-mnemonic"
	optionNameChainID          = "chain-id"
	optionNameBlockTime        = "block-time"
	optionNameTicketPrice      = "ticket-price"
	optionNamePeriod           = "period"
	optionNameDrawTimeout      = "draw-timeout"
	optionNameMinNumber        = "min-number"
	optionNameMaxNumber        = "max-number"
	optionNameFulfillmentDelay = "fulfillment-delay"
	optionNameFulfillmentCost  = "fulfillment-cost"
	optionNameAgentInterval    = "agent-interval"
)

const defaultRPCEndpoint = "http://127.0.0.1:8545"

func init() {
	cobra.EnableCommandSorting = false
}

type command struct {
	root    *cobra.Command
	config  *viper.Viper
	cfgFile string
	homeDir string
	ctx     context.Context
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "lottery",
			Short:         "Weekly lottery drawn with quantum random numbers",
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return c.initConfig()
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	// Find home directory.
	if err := c.setHomeDir(); err != nil {
		return nil, err
	}

	c.initGlobalFlags()

	c.initDeployCmd()
	c.initSponsorCmd()
	c.initEnterCmd()
	c.initCloseCmd()
	c.initBalanceCmd()
	c.initMineCmd()
	c.initSimulateCmd()
	c.initServeCmd()
	c.initPrintConfigCmd()
	c.initVersionCmd()

	return c, nil
}

func (c *command) Execute() (err error) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return c.root.ExecuteContext(ctx)
}

// Execute parses command line arguments and runs appropriate functions.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.lottery.yaml)")
}

func (c *command) initConfig() (err error) {
	config := viper.New()
	configName := ".lottery"
	if c.cfgFile != "" {
		// Use config file from the flag.
		config.SetConfigFile(c.cfgFile)
	} else {
		// Search config in home directory with name ".lottery" (without extension).
		config.AddConfigPath(c.homeDir)
		config.SetConfigName(configName)
	}

	// Environment
	config.SetEnvPrefix("lottery")
	config.AutomaticEnv() // read in environment variables that match
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if c.homeDir != "" && c.cfgFile == "" {
		c.cfgFile = filepath.Join(c.homeDir, configName+".yaml")
	}

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return err
		}
	}
	c.config = config
	return nil
}

func (c *command) setHomeDir() (err error) {
	if c.homeDir != "" {
		return
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	c.homeDir = dir
	return nil
}

// bindFlags makes the flags of cmd visible to the viper configuration.
func (c *command) bindFlags(cmd *cobra.Command, _ []string) error {
	return c.config.BindPFlags(cmd.Flags())
}

func (c *command) setCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String(optionNameDataDir, filepath.Join(c.homeDir, ".lottery"), "data directory")
	cmd.Flags().String(optionNameVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
}

func (c *command) setChainFlags(cmd *cobra.Command) {
	c.setCommonFlags(cmd)
	cmd.Flags().String(optionNameRPCEndpoint, defaultRPCEndpoint, "ethereum JSON-RPC endpoint")
	cmd.Flags().String(optionNameMnemonic, wallet.DefaultMnemonic, "mnemonic of the signing account")
	cmd.Flags().Uint32(optionNameAccountIndex, 0, "index of the signing account derived from the mnemonic")
	cmd.Flags().String(optionNameContractAddress, "", "lottery contract address (default is the last deployment on the chain)")
	cmd.Flags().Duration(optionNamePollInterval, 2*time.Second, "interval of polling for receipts and events")
}

func (c *command) setSimulationFlags(cmd *cobra.Command) {
	c.setCommonFlags(cmd)
	cmd.Flags().String(optionNameMnemonic, wallet.DefaultMnemonic, "mnemonic of the funded accounts, account 0 owns the lottery")
	cmd.Flags().String(optionNameAirnodeMnemonic, "", "mnemonic of the simulated airnode (default is the accounts mnemonic)")
	cmd.Flags().Int(optionNameAccounts, 5, "number of funded accounts")
	cmd.Flags().String(optionNameInitialBalance, "10000", "initial balance of each account in ether")
	cmd.Flags().Int64(optionNameChainID, 5, "chain id of the simulated chain")
	cmd.Flags().String(optionNameTicketPrice, ether.FormatEther(lottery.DefaultTicketPrice), "ticket price in ether")
	cmd.Flags().Duration(optionNamePeriod, lottery.DefaultPeriod, "length of a lottery week")
	cmd.Flags().Duration(optionNameDrawTimeout, lottery.DefaultDrawTimeout, "time after which a draw request may be replaced")
	cmd.Flags().Uint64(optionNameMinNumber, lottery.DefaultMinNumber, "lowest number that can be entered")
	cmd.Flags().Uint64(optionNameMaxNumber, lottery.DefaultMaxNumber, "highest number that can be entered")
	cmd.Flags().Duration(optionNameFulfillmentDelay, 0, "delay of the airnode before fulfilling a request")
	cmd.Flags().String(optionNameFulfillmentCost, "0.0003", "fulfillment cost charged from the sponsor wallet in ether")
	cmd.Flags().String(optionNameTopUp, ether.FormatEther(lottery.DefaultTopUp), "sponsor wallet top up of each draw in ether")
}

// simulatedOptions reads the options of the simulated node shared by the
// simulate and serve commands.
func (c *command) simulatedOptions() (o node.Options, err error) {
	initialBalance, err := c.parseEtherOption(optionNameInitialBalance)
	if err != nil {
		return o, err
	}
	ticketPrice, err := c.parseEtherOption(optionNameTicketPrice)
	if err != nil {
		return o, err
	}
	fulfillmentCost, err := c.parseEtherOption(optionNameFulfillmentCost)
	if err != nil {
		return o, err
	}
	topUp, err := c.parseEtherOption(optionNameTopUp)
	if err != nil {
		return o, err
	}
	return node.Options{
		DataDir:          c.config.GetString(optionNameDataDir),
		Mnemonic:         c.config.GetString(optionNameMnemonic),
		AirnodeMnemonic:  c.config.GetString(optionNameAirnodeMnemonic),
		Accounts:         c.config.GetInt(optionNameAccounts),
		InitialBalance:   initialBalance,
		ChainID:          c.config.GetInt64(optionNameChainID),
		TicketPrice:      ticketPrice,
		Period:           c.config.GetDuration(optionNamePeriod),
		DrawTimeout:      c.config.GetDuration(optionNameDrawTimeout),
		MinNumber:        c.config.GetUint64(optionNameMinNumber),
		MaxNumber:        c.config.GetUint64(optionNameMaxNumber),
		FulfillmentDelay: c.config.GetDuration(optionNameFulfillmentDelay),
		FulfillmentCost:  fulfillmentCost,
		AgentTopUp:       topUp,
	}, nil
}

func newLogger(cmd *cobra.Command, verbosity string) (logging.Logger, error) {
	return logging.ParseVerbosity(cmd.OutOrStdout(), strings.ToLower(verbosity))
}

// parseEtherOption reads an ether amount option as wei.
func (c *command) parseEtherOption(name string) (wei *big.Int, err error) {
	wei, err = ether.ParseEther(c.config.GetString(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return wei, nil
}
