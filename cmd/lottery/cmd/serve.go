// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camronh/Lottery-Tutorial/pkg/node"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (c *command) initServeCmd() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a simulated lottery with its Airnode, draw agent and HTTP API",
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
			o.APIAddr = c.config.GetString(optionNameAPIAddr)
			o.CORSAllowedOrigins = c.config.GetStringSlice(optionCORSAllowedOrigins)
			o.BlockTime = c.config.GetDuration(optionNameBlockTime)
			o.AgentInterval = c.config.GetDuration(optionNameAgentInterval)

			n, err := node.NewSimulated(logger, o)
			if err != nil {
				return err
			}

			// Wait for termination or interrupt signals.
			// We catch SIGTERM so that the lottery can be stopped gracefully.
			interruptChannel := make(chan os.Signal, 1)
			signal.Notify(interruptChannel, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(interruptChannel)

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, ctx := errgroup.WithContext(runCtx)
			g.Go(func() error {
				select {
				case sig := <-interruptChannel:
					logger.Infof("received signal: %v", sig)
					cancel()
				case <-ctx.Done():
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()

				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return n.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
		PreRunE: c.bindFlags,
	}

	c.setSimulationFlags(cmd)
	cmd.Flags().String(optionNameAPIAddr, ":8080", "HTTP API listen address")
	cmd.Flags().StringSlice(optionCORSAllowedOrigins, []string{}, "origins with CORS headers enabled")
	cmd.Flags().Duration(optionNameBlockTime, time.Second, "interval of mining blocks that follow the wall clock, 0 disables it")
	cmd.Flags().Duration(optionNameAgentInterval, 5*time.Second, "interval of the draw agent checks, 0 disables it")

	c.root.AddCommand(cmd)
}
