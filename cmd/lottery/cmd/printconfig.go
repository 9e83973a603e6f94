// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func (c *command) initPrintConfigCmd() {
	cmd := &cobra.Command{
		Use:   "printconfig",
		Short: "Print the effective configuration of the serve command in yaml format",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}

			// The serve flags carry the full simulated node configuration.
			serve, _, err := c.root.Find([]string{"serve"})
			if err != nil {
				return err
			}
			if err := c.config.BindPFlags(serve.Flags()); err != nil {
				return err
			}

			d := c.config.AllSettings()
			delete(d, "config")
			ym, err := yaml.Marshal(d)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			cmd.Print(string(ym))
			return nil
		},
	}

	c.root.AddCommand(cmd)
}
