// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"io"
)

type (
	Command = command
	Option  = option
)

var (
	NewCommand           = newCommand
	ErrNoContractAddress = errNoContractAddress
)

func WithHomeDir(dir string) func(c *Command) {
	return func(c *Command) {
		c.homeDir = dir
	}
}

func WithArgs(a ...string) func(c *Command) {
	return func(c *Command) {
		c.root.SetArgs(a)
	}
}

func WithOutput(w io.Writer) func(c *Command) {
	return func(c *Command) {
		c.root.SetOut(w)
	}
}

func WithContext(ctx context.Context) func(c *Command) {
	return func(c *Command) {
		c.ctx = ctx
	}
}
